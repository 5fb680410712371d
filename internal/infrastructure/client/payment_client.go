package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"auction-marketplace/internal/auth"
	"auction-marketplace/internal/domain"
)

// PaymentClient is the Reputation Gate's read-only view of the Settlement
// Processor.
type PaymentClient struct {
	baseURL     string
	httpClient  *http.Client
	serviceName string
	jwtSecret   string
	tokenTTL    time.Duration
}

func NewPaymentClient(baseURL, serviceName, jwtSecret string, timeout, tokenTTL time.Duration) *PaymentClient {
	return &PaymentClient{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		serviceName: serviceName,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
	}
}

func (c *PaymentClient) CompletedTransactionExists(ctx context.Context, auctionID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/api/v1/payments/check/%s", c.baseURL, url.PathEscape(auctionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}

	token, err := auth.NewServiceToken(c.serviceName, c.jwtSecret, c.tokenTTL)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: payment service returned %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}
}
