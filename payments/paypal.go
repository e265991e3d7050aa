// Package payments wraps the external payment provider behind a narrow
// contract: create a payment the user approves out-of-band, then execute it.
// Provider internals never leak past this package.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"arborist-study-api/apperr"
	"arborist-study-api/utils"

	"golang.org/x/oauth2/clientcredentials"
)

// CreatedPayment identifies a provider payment awaiting user approval
type CreatedPayment struct {
	ID          string
	ApprovalURL string
}

// Provider is the opaque external payment collaborator
type Provider interface {
	CreatePayment(ctx context.Context, amount float64, currency, description string) (*CreatedPayment, error)
	// ExecutePayment confirms an approved payment and returns the provider's
	// payment reference
	ExecutePayment(ctx context.Context, paymentID, payerID string) (string, error)
}

const (
	sandboxBaseURL = "https://api.sandbox.paypal.com"
	liveBaseURL    = "https://api.paypal.com"
)

// PayPalClient implements Provider against the PayPal REST payments API,
// authenticating with OAuth2 client credentials.
type PayPalClient struct {
	baseURL    string
	httpClient *http.Client
	returnURL  string
	cancelURL  string
}

func NewPayPalClient(mode, clientID, clientSecret, frontendURL string) *PayPalClient {
	baseURL := sandboxBaseURL
	if mode == "live" {
		baseURL = liveBaseURL
	}

	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     baseURL + "/v1/oauth2/token",
	}

	client := conf.Client(context.Background())
	client.Timeout = 30 * time.Second

	return &PayPalClient{
		baseURL:    baseURL,
		httpClient: client,
		returnURL:  frontendURL + "/payment/success",
		cancelURL:  frontendURL + "/payment/cancel",
	}
}

type paypalLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type paypalPaymentResponse struct {
	ID    string       `json:"id"`
	State string       `json:"state"`
	Links []paypalLink `json:"links"`
}

func (c *PayPalClient) CreatePayment(ctx context.Context, amount float64, currency, description string) (*CreatedPayment, error) {
	body := map[string]interface{}{
		"intent": "sale",
		"payer":  map[string]string{"payment_method": "paypal"},
		"redirect_urls": map[string]string{
			"return_url": c.returnURL,
			"cancel_url": c.cancelURL,
		},
		"transactions": []map[string]interface{}{{
			"amount": map[string]string{
				"total":    fmt.Sprintf("%.2f", amount),
				"currency": currency,
			},
			"description": description,
		}},
	}

	var resp paypalPaymentResponse
	if err := c.post(ctx, "/v1/payments/payment", body, &resp); err != nil {
		return nil, apperr.Wrap(apperr.ExternalService, "Failed to create payment with provider", err)
	}

	created := &CreatedPayment{ID: resp.ID}
	for _, link := range resp.Links {
		if link.Rel == "approval_url" {
			created.ApprovalURL = link.Href
		}
	}
	if created.ID == "" || created.ApprovalURL == "" {
		return nil, apperr.New(apperr.ExternalService, "Failed to create payment with provider")
	}

	return created, nil
}

func (c *PayPalClient) ExecutePayment(ctx context.Context, paymentID, payerID string) (string, error) {
	body := map[string]string{"payer_id": payerID}

	var resp paypalPaymentResponse
	if err := c.post(ctx, "/v1/payments/payment/"+paymentID+"/execute", body, &resp); err != nil {
		return "", apperr.Wrap(apperr.ExternalService, "Failed to execute payment with provider", err)
	}

	if resp.State != "approved" {
		utils.LogError("Provider payment %s not approved (state: %s)", paymentID, resp.State)
		return "", apperr.New(apperr.ExternalService, "Failed to execute payment with provider")
	}

	return resp.ID, nil
}

func (c *PayPalClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		utils.LogError("Provider returned %d for %s: %s", resp.StatusCode, path, detail)
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
