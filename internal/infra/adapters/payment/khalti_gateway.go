package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"gym-membership-backend/internal/config"
	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/ports/adapter"
	"gym-membership-backend/internal/infra/metrics"
)

var _ adapter.PaymentGateway = (*KhaltiGateway)(nil)

// KhaltiGateway implements adapter.PaymentGateway against the Khalti
// ePayment API (initiate / lookup / refund). Khalti deals in paisa; the
// rest of the system deals in whole NPR, so amounts are converted at this
// boundary only.
type KhaltiGateway struct {
	baseURL   string
	secretKey string
	publicKey string
	returnURL string
	client    *http.Client
}

func NewKhaltiGateway(cfg config.KhaltiConfig) (*KhaltiGateway, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("khalti secret key empty")
	}
	if _, err := url.Parse(cfg.ReturnURL); err != nil {
		return nil, fmt.Errorf("invalid return url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &KhaltiGateway{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		publicKey: cfg.PublicKey,
		returnURL: cfg.ReturnURL,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

func (k *KhaltiGateway) Name() string { return "khalti" }

const paisaPerRupee = 100

func (k *KhaltiGateway) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+k.secretKey)

	resp, err := k.client.Do(req)
	if err != nil {
		return domain.ErrGatewayUnavailable
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: khalti %s http %d", domain.ErrGatewayUnavailable, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode khalti response: %v", domain.ErrGatewayUnavailable, err)
	}
	return nil
}

// Initiate calls /epayment/initiate/ and returns the hosted payment URL plus
// the gateway correlation ids. Completion arrives out of band.
func (k *KhaltiGateway) Initiate(ctx context.Context, req adapter.InitiateRequest) (res *adapter.InitiateResult, err error) {
	defer func() { metrics.IncGatewayRequest("initiate", err) }()

	payload := map[string]interface{}{
		"public_key":       k.publicKey,
		"amount":           req.Amount * paisaPerRupee,
		"product_identity": req.TransactionID,
		"product_name":     req.Description,
		"customer_info": map[string]string{
			"name":  req.Customer.Name,
			"email": req.Customer.Email,
			"phone": req.Customer.Phone,
		},
		"return_url": k.returnURL,
	}
	var out struct {
		PaymentURL    string `json:"payment_url"`
		Token         string `json:"token"`
		TransactionID string `json:"transaction_id"`
	}
	if err = k.post(ctx, "/epayment/initiate/", payload, &out); err != nil {
		return nil, err
	}
	if out.Token == "" || out.PaymentURL == "" {
		err = fmt.Errorf("%w: khalti initiate returned no token", domain.ErrGatewayUnavailable)
		return nil, err
	}
	return &adapter.InitiateResult{
		PaymentURL:   out.PaymentURL,
		Token:        out.Token,
		GatewayTxnID: out.TransactionID,
	}, nil
}

// Verify calls /epayment/lookup/ for the given token.
func (k *KhaltiGateway) Verify(ctx context.Context, token string) (res *adapter.VerifyResult, err error) {
	defer func() { metrics.IncGatewayRequest("verify", err) }()

	var out struct {
		Status        string `json:"status"`
		TransactionID string `json:"transaction_id"`
		Amount        int64  `json:"amount"` // paisa
	}
	if err = k.post(ctx, "/epayment/lookup/", map[string]string{"token": token}, &out); err != nil {
		return nil, err
	}
	return &adapter.VerifyResult{
		Status:       out.Status,
		GatewayTxnID: out.TransactionID,
		Amount:       out.Amount / paisaPerRupee,
	}, nil
}

// Refund calls /epayment/refund/ for a completed transaction.
func (k *KhaltiGateway) Refund(ctx context.Context, gatewayTxnID string, amount int64) (err error) {
	defer func() { metrics.IncGatewayRequest("refund", err) }()

	payload := map[string]interface{}{
		"transaction_id": gatewayTxnID,
		"amount":         amount * paisaPerRupee,
		"refund_type":    "full",
	}
	var out struct {
		Status string `json:"status"`
	}
	return k.post(ctx, "/epayment/refund/", payload, &out)
}
