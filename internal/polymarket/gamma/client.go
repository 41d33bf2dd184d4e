// Package gamma consume Polymarket gamma endpoints.
package gamma

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/daszybak/btc15m-watcher/pkg/httpclient"
)

const (
	DefaultBaseURL = "https://gamma-api.polymarket.com"
	DefaultTimeout = 30 * time.Second

	searchEndpoint = "/public-search"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the default client, e.g. for tests. A nil client
// keeps the default.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request. It applies to a copy of the HTTP client,
// never to one passed in with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	switch {
	case c.httpClient == nil:
		timeout := c.timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	case c.timeout != 0:
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// TokenIDs handles the double-encoded JSON array from the API.
// Ids that cannot be decoded leave the slice empty so the market is skipped
// instead of failing the whole response.
type TokenIDs []string

func (t *TokenIDs) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Some responses carry a plain array.
		var ids []string
		if json.Unmarshal(data, &ids) == nil {
			*t = ids
		}
		return nil
	}
	var ids []string
	if json.Unmarshal([]byte(s), &ids) == nil {
		*t = ids
	}
	return nil
}

type Market struct {
	ID             string   `json:"id"`
	ConditionID    string   `json:"conditionId"`
	QuestionID     string   `json:"questionID"`
	Question       string   `json:"question"`
	Slug           string   `json:"slug"`
	EventStartTime string   `json:"eventStartTime"`
	EndDate        string   `json:"endDate"`
	ClobTokenIDs   TokenIDs `json:"clobTokenIds"`
}

type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartTime string    `json:"startTime"`
	EndDate   string    `json:"endDate"`
	Markets   []*Market `json:"markets"`
}

type SearchResult struct {
	Events []*Event `json:"events"`
}

// Search runs a public search for q. Any status other than 200 is an error.
func (c *Client) Search(ctx context.Context, q string) (*SearchResult, error) {
	endpoint := searchEndpoint + "?q=" + url.QueryEscape(q)
	return httpclient.GetResource[*SearchResult](ctx, c.httpClient, c.baseURL, endpoint, []int{http.StatusOK})
}
