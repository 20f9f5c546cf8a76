package infrastructure

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cryptoluck/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const (
	invoiceTimeout = 15 * time.Second
	payoutTimeout  = 30 * time.Second
)

// NowPaymentsClient talks to the NOWPayments API for invoice creation,
// payouts and IPN callback signature verification.
type NowPaymentsClient struct {
	baseURL   string
	apiKey    string
	ipnSecret string
	http      *http.Client
}

// NewNowPaymentsClient creates a payment provider client.
// ipnSecret is the shared secret used to verify callback signatures.
func NewNowPaymentsClient(baseURL, apiKey, ipnSecret string) *NowPaymentsClient {
	return &NowPaymentsClient{
		baseURL:   baseURL,
		apiKey:    apiKey,
		ipnSecret: ipnSecret,
		http:      &http.Client{Timeout: payoutTimeout},
	}
}

type createPaymentRequest struct {
	PriceAmount   float64 `json:"price_amount"`
	PriceCurrency string  `json:"price_currency"`
	PayCurrency   string  `json:"pay_currency"`
	OrderID       string  `json:"order_id"`
}

type createPaymentResponse struct {
	PaymentID   json.Number `json:"payment_id"`
	PayAddress  string      `json:"pay_address"`
	PayAmount   float64     `json:"pay_amount"`
	PayCurrency string      `json:"pay_currency"`
}

// CreateInvoice creates a payment at the provider and returns the deposit
// address the user must pay to. amountCents is the USD price of the invoice.
func (c *NowPaymentsClient) CreateInvoice(ctx context.Context, amountCents int64, payCurrency, orderRef string) (*interfaces.Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, invoiceTimeout)
	defer cancel()

	reqBody := createPaymentRequest{
		PriceAmount:   float64(amountCents) / 100,
		PriceCurrency: "usd",
		PayCurrency:   payCurrency,
		OrderID:       orderRef,
	}

	var resp createPaymentResponse
	if err := c.post(ctx, "/v1/payment", reqBody, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	log.WithFields(log.Fields{
		"paymentID": resp.PaymentID.String(),
		"currency":  resp.PayCurrency,
		"orderRef":  orderRef,
	}).Info("Created payment invoice")

	return &interfaces.Invoice{
		PaymentID:   resp.PaymentID.String(),
		PayAddress:  resp.PayAddress,
		PayAmount:   resp.PayAmount,
		PayCurrency: resp.PayCurrency,
	}, nil
}

type createPayoutRequest struct {
	Withdrawals []payoutWithdrawal `json:"withdrawals"`
}

type payoutWithdrawal struct {
	Address      string  `json:"address"`
	Currency     string  `json:"currency"`
	FiatAmount   float64 `json:"fiat_amount"`
	FiatCurrency string  `json:"fiat_currency"`
}

type createPayoutResponse struct {
	ID          json.Number `json:"id"`
	Withdrawals []struct {
		ID     json.Number `json:"id"`
		Status string      `json:"status"`
	} `json:"withdrawals"`
}

// CreatePayout submits a withdrawal to the provider. The idempotencyKey is
// sent as an Idempotency-Key header so retried calls do not double-pay.
func (c *NowPaymentsClient) CreatePayout(ctx context.Context, currency string, amountCents int64, address, idempotencyKey string) (*interfaces.PayoutReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, payoutTimeout)
	defer cancel()

	reqBody := createPayoutRequest{
		Withdrawals: []payoutWithdrawal{{
			Address:      address,
			Currency:     currency,
			FiatAmount:   float64(amountCents) / 100,
			FiatCurrency: "usd",
		}},
	}

	headers := map[string]string{"Idempotency-Key": idempotencyKey}

	var resp createPayoutResponse
	if err := c.post(ctx, "/v1/payout", reqBody, headers, &resp); err != nil {
		return nil, fmt.Errorf("failed to create payout: %w", err)
	}

	receipt := &interfaces.PayoutReceipt{ID: resp.ID.String()}
	if len(resp.Withdrawals) > 0 {
		receipt.Status = resp.Withdrawals[0].Status
		if receipt.ID == "" {
			receipt.ID = resp.Withdrawals[0].ID.String()
		}
	}

	log.WithFields(log.Fields{
		"payoutID":       receipt.ID,
		"currency":       currency,
		"idempotencyKey": idempotencyKey,
	}).Info("Created payout")

	return receipt, nil
}

// VerifySignature checks an IPN callback signature. The signature is the
// hex-encoded HMAC-SHA512 of the raw request body keyed with the IPN secret.
// An unset secret or missing signature never verifies: an HMAC keyed with
// the empty string is computable by anyone.
func (c *NowPaymentsClient) VerifySignature(rawBody []byte, signature string) bool {
	if c.ipnSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(c.ipnSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *NowPaymentsClient) post(ctx context.Context, path string, body interface{}, headers map[string]string, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(res.Body).Decode(&apiErr)
		return fmt.Errorf("provider returned HTTP %d: %s", res.StatusCode, apiErr.Message)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
