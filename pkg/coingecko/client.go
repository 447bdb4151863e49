package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client talks to the CoinGecko REST API with exponential backoff on
// rate-limit responses (HTTP 429). It performs no caching itself; the
// metadata service layers a cache on top.
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration, maxRetries int) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		maxRetries: maxRetries,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Options selects which sections of a coin payload to include.
type Options struct {
	MarketData    bool
	CommunityData bool
	DeveloperData bool
	Localization  bool
	Tickers       bool
	Sparkline     bool
}

// DefaultOptions matches what the coin detail page needs: market data only.
func DefaultOptions() Options {
	return Options{MarketData: true}
}

// CoinDetail fetches /coins/{id} with the given section flags.
func (c *Client) CoinDetail(ctx context.Context, id string, opts Options) (*CoinDetail, error) {
	q := url.Values{}
	q.Set("market_data", strconv.FormatBool(opts.MarketData))
	q.Set("community_data", strconv.FormatBool(opts.CommunityData))
	q.Set("developer_data", strconv.FormatBool(opts.DeveloperData))
	q.Set("localization", strconv.FormatBool(opts.Localization))
	q.Set("tickers", strconv.FormatBool(opts.Tickers))
	q.Set("sparkline", strconv.FormatBool(opts.Sparkline))

	var detail CoinDetail
	if err := c.get(ctx, "/coins/"+url.PathEscape(id), q, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// get issues one GET request, retrying 429 responses with doubling delays
// up to maxRetries attempts. Other failures are not retried.
func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	u := c.baseURL + endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	backoff := time.Second
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("x-cg-api-key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("making request: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if attempt+1 >= c.maxRetries {
				return &APIError{Status: http.StatusTooManyRequests, Message: "rate limited"}
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode != http.StatusOK {
			msg := apiErrorMessage(resp)
			resp.Body.Close()
			return &APIError{Status: resp.StatusCode, Message: msg}
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
}

// apiErrorMessage pulls the "error" field out of an error body when present.
func apiErrorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(resp.Body)

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return resp.Status
}
