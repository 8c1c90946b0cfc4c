package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"twitterpipe/config"
	"twitterpipe/types"
)

// Options configures a Client. BearerToken and UserID are required.
type Options struct {
	BaseURL     string
	BearerToken string
	UserID      string
	// MaxResults is sent as max_results when positive.
	MaxResults int
	Timeout    time.Duration
}

// Client fetches pages of one user's timeline.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userID     string
	maxResults int
	maxBody    int64
}

// NewClient builds a Client whose transport signs every request with the bearer token.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = config.DefaultAPIBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.UpstreamTimeout
	}

	base := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.BearerToken, TokenType: "Bearer"})

	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: &oauth2.Transport{Source: src, Base: base},
		},
		baseURL:    opts.BaseURL,
		userID:     opts.UserID,
		maxResults: opts.MaxResults,
		maxBody:    config.MaxResponseBytes,
	}
}

// TimelineURL is the endpoint listing the configured user's posts.
func (c *Client) TimelineURL() string {
	return fmt.Sprintf("%s/users/%s/tweets", c.baseURL, url.PathEscape(c.userID))
}

// Params returns the query parameters for one page. An empty token requests the first page.
func (c *Client) Params(paginationToken string) url.Values {
	q := url.Values{}
	q.Set("tweet.fields", config.TweetFields)
	q.Set("media.fields", config.MediaFields)
	q.Set("expansions", config.Expansions)
	if c.maxResults > 0 {
		q.Set("max_results", strconv.Itoa(c.maxResults))
	}
	if paginationToken != "" {
		q.Set("pagination_token", paginationToken)
	}
	return q
}

type pageResponse struct {
	types.Page
	Errors []APIError `json:"errors,omitempty"`
}

// FetchPage requests one page. Anything but a decodable 200 is an error: a 429 is a
// *RateLimitError, everything else an *UpstreamError.
func (c *Client) FetchPage(ctx context.Context, paginationToken string) (*types.Page, error) {
	u := c.TimelineURL() + "?" + c.Params(paginationToken).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if int64(len(body)) > c.maxBody {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: truncate(body), Err: fmt.Errorf("response exceeds %d bytes", c.maxBody)}
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, rateLimitFrom(resp, body)
	default:
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: truncate(body)}
	}

	var page pageResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: truncate(body), Err: fmt.Errorf("failed to decode page: %w", err)}
	}
	if len(page.Data) == 0 && len(page.Errors) > 0 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: truncate(body), Err: page.Errors[0]}
	}
	return &page.Page, nil
}
