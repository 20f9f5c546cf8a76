package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ErrSeedUnavailable is returned when no block hash source responded with a
// usable value after all retries.
var ErrSeedUnavailable = errors.New("no block hash source available")

const (
	seedCacheKey    = "cryptoluck:oracle:tip_hash"
	defaultSeedTTL  = 60 * time.Second
	sourceTimeout   = 10 * time.Second
	maxAttempts     = 3
	initialBackoff  = 500 * time.Millisecond
	backoffMultiple = 2
)

// blockHashSource fetches the current Bitcoin chain tip hash from one public
// API. Each source parses its own response format.
type blockHashSource struct {
	name  string
	url   string
	parse func(body []byte) (string, error)
}

func defaultSources() []blockHashSource {
	return []blockHashSource{
		{
			name: "blockstream",
			url:  "https://blockstream.info/api/blocks/tip/hash",
			parse: func(body []byte) (string, error) {
				return strings.TrimSpace(string(body)), nil
			},
		},
		{
			name:  "blockcypher",
			url:   "https://api.blockcypher.com/v1/btc/main",
			parse: parseJSONHash,
		},
		{
			name:  "blockchain.info",
			url:   "https://blockchain.info/latestblock",
			parse: parseJSONHash,
		},
	}
}

func parseJSONHash(body []byte) (string, error) {
	var resp struct {
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return resp.Hash, nil
}

// BlockHashOracle produces public random seeds from the Bitcoin chain tip.
// The tip hash is fetched from several independent APIs and cached for a
// short TTL so repeated calls within one draw see the same value.
type BlockHashOracle struct {
	sources []blockHashSource
	http    *http.Client
	redis   *redis.Client
	ttl     time.Duration

	mu          sync.Mutex
	cachedHash  string
	cachedUntil time.Time
}

// NewBlockHashOracle creates an oracle using the default public sources.
// redisClient may be nil, in which case an in-memory cache is used.
func NewBlockHashOracle(redisClient *redis.Client) *BlockHashOracle {
	return &BlockHashOracle{
		sources: defaultSources(),
		http:    &http.Client{Timeout: sourceTimeout},
		redis:   redisClient,
		ttl:     defaultSeedTTL,
	}
}

// NewBlockHashOracleWithSources creates an oracle with an explicit ordered
// source list and cache TTL. URLs ending in "/hash" are treated as plain-text
// endpoints; everything else is parsed as JSON with a top-level "hash" field.
func NewBlockHashOracleWithSources(urls []string, ttl time.Duration, redisClient *redis.Client) *BlockHashOracle {
	if ttl <= 0 {
		ttl = defaultSeedTTL
	}
	sources := make([]blockHashSource, 0, len(urls))
	for _, url := range urls {
		source := blockHashSource{name: url, url: url, parse: parseJSONHash}
		if strings.HasSuffix(url, "/hash") {
			source.parse = func(body []byte) (string, error) {
				return strings.TrimSpace(string(body)), nil
			}
		}
		sources = append(sources, source)
	}
	if len(sources) == 0 {
		sources = defaultSources()
	}
	return &BlockHashOracle{
		sources: sources,
		http:    &http.Client{Timeout: sourceTimeout},
		redis:   redisClient,
		ttl:     ttl,
	}
}

// GetPublicSeed returns the current Bitcoin tip block hash as a lowercase
// 64-character hex string.
func (o *BlockHashOracle) GetPublicSeed(ctx context.Context) (string, error) {
	if hash, ok := o.cacheGet(ctx); ok {
		return hash, nil
	}

	backoff := initialBackoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		for _, source := range o.sources {
			hash, err := o.fetch(ctx, source)
			if err != nil {
				log.WithError(err).WithFields(log.Fields{
					"source":  source.name,
					"attempt": attempt,
				}).Warn("Block hash source failed")
				continue
			}

			o.cacheSet(ctx, hash)
			return hash, nil
		}

		if attempt < maxAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			backoff *= backoffMultiple
		}
	}

	return "", ErrSeedUnavailable
}

func (o *BlockHashOracle) fetch(ctx context.Context, source blockHashSource) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	res, err := o.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("source returned HTTP %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	hash, err := source.parse(body)
	if err != nil {
		return "", err
	}

	hash = strings.ToLower(strings.TrimSpace(hash))
	if !isBlockHash(hash) {
		return "", fmt.Errorf("invalid block hash %q", hash)
	}
	return hash, nil
}

// isBlockHash reports whether s is a 64-character lowercase hex string.
func isBlockHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func (o *BlockHashOracle) cacheGet(ctx context.Context) (string, bool) {
	if o.redis != nil {
		hash, err := o.redis.Get(ctx, seedCacheKey).Result()
		if err == nil && isBlockHash(hash) {
			return hash, true
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			log.WithError(err).Warn("Failed to read cached block hash")
		}
		return "", false
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cachedHash != "" && time.Now().Before(o.cachedUntil) {
		return o.cachedHash, true
	}
	return "", false
}

func (o *BlockHashOracle) cacheSet(ctx context.Context, hash string) {
	if o.redis != nil {
		if err := o.redis.Set(ctx, seedCacheKey, hash, o.ttl).Err(); err != nil {
			log.WithError(err).Warn("Failed to cache block hash")
		}
		return
	}

	o.mu.Lock()
	o.cachedHash = hash
	o.cachedUntil = time.Now().Add(o.ttl)
	o.mu.Unlock()
}
