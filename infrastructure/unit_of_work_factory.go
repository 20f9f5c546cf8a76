package infrastructure

import (
	"cryptoluck/application"
	"cryptoluck/database"
	"cryptoluck/domain/interfaces"
	"cryptoluck/repository"
)

// UnitOfWorkFactory creates units of work whose events are buffered per
// transaction and delivered to a shared sink on commit.
type UnitOfWorkFactory struct {
	inner *repository.UnitOfWorkFactory
	sink  interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a factory backed by the given database whose
// committed events are delivered to sink
func NewUnitOfWorkFactory(db *database.DB, sink interfaces.EventPublisher) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		inner: repository.NewUnitOfWorkFactory(db),
		sink:  sink,
	}
}

// Create returns a new unit of work with a fresh transactional publisher
func (f *UnitOfWorkFactory) Create() application.UnitOfWork {
	return f.inner.CreateWithPublisher(NewBufferedEventPublisher(f.sink))
}
