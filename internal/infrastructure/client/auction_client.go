package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"auction-marketplace/internal/auth"
	"auction-marketplace/internal/domain"
)

// AuctionClient calls the Auction Authority over HTTP. Every call carries the
// configured timeout; transport failures map to ErrUpstreamUnavailable so
// callers can tell "the answer was no" from "we could not ask".
type AuctionClient struct {
	baseURL     string
	httpClient  *http.Client
	serviceName string
	jwtSecret   string
	tokenTTL    time.Duration
}

func NewAuctionClient(baseURL, serviceName, jwtSecret string, timeout, tokenTTL time.Duration) *AuctionClient {
	return &AuctionClient{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		serviceName: serviceName,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
	}
}

func (c *AuctionClient) GetSnapshot(ctx context.Context, auctionID string) (*domain.AuctionSnapshot, error) {
	endpoint := fmt.Sprintf("%s/api/v1/auctions/%s", c.baseURL, url.PathEscape(auctionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var snapshot domain.AuctionSnapshot
		if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
			return nil, fmt.Errorf("%w: decoding snapshot: %v", domain.ErrUpstreamUnavailable, err)
		}
		return &snapshot, nil
	case http.StatusNotFound:
		return nil, domain.ErrAuctionNotFound
	default:
		return nil, fmt.Errorf("%w: auction service returned %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}
}

func (c *AuctionClient) PushHighestBid(ctx context.Context, auctionID string, amount float64, bidder string) error {
	endpoint := fmt.Sprintf("%s/api/v1/auctions/%s/highest-bid?amount=%s&bidder=%s",
		c.baseURL, url.PathEscape(auctionID),
		strconv.FormatFloat(amount, 'f', 2, 64), url.QueryEscape(bidder))

	resp, err := c.doAuthorized(ctx, http.MethodPut, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil
	case http.StatusBadRequest:
		return domain.ErrBidTooLow
	case http.StatusNotFound:
		return domain.ErrAuctionNotFound
	default:
		return fmt.Errorf("%w: auction service returned %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}
}

func (c *AuctionClient) PushStatus(ctx context.Context, auctionID string, status domain.AuctionStatus) error {
	endpoint := fmt.Sprintf("%s/api/v1/auctions/%s/status?status=%s",
		c.baseURL, url.PathEscape(auctionID), url.QueryEscape(string(status)))

	resp, err := c.doAuthorized(ctx, http.MethodPut, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil
	case http.StatusConflict:
		return domain.ErrInvalidTransition
	case http.StatusNotFound:
		return domain.ErrAuctionNotFound
	default:
		return fmt.Errorf("%w: auction service returned %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}
}

func (c *AuctionClient) doAuthorized(ctx context.Context, method, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, err
	}

	token, err := auth.NewServiceToken(c.serviceName, c.jwtSecret, c.tokenTTL)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return resp, nil
}
