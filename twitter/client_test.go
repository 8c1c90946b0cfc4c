package twitter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	s := httptest.NewServer(h)
	t.Cleanup(s.Close)
	return NewClient(Options{BaseURL: s.URL, BearerToken: "secret", UserID: "2244994945", Timeout: 2 * time.Second})
}

func TestFetchPage_OK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/2244994945/tweets" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing user agent")
		}
		q := r.URL.Query()
		if q.Get("expansions") != "attachments.media_keys" || q.Get("tweet.fields") == "" || q.Get("media.fields") != "type,url" {
			t.Errorf("unexpected params %v", q)
		}
		if q.Has("pagination_token") {
			t.Error("first page must not carry a pagination token")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"data":[{"author_id":"1","conversation_id":"9","text":"hi","referenced_tweets":[{"type":"quoted","id":"7"}]}],
			"includes":{"media":[{"media_key":"3_1","type":"photo","url":"https://img/1.jpg"}]},
			"meta":{"result_count":1,"newest_id":"9","oldest_id":"9","next_token":"abc"}}`))
	})

	page, err := c.FetchPage(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].Text != "hi" || page.Data[0].ReferencedTweets[0].ID != "7" {
		t.Fatalf("unexpected posts: %+v", page.Data)
	}
	if !page.HasMedia() || page.Includes.Media[0].MediaKey != "3_1" {
		t.Fatalf("unexpected includes: %+v", page.Includes)
	}
	if page.Meta.NextToken != "abc" || page.Meta.ResultCount != 1 {
		t.Fatalf("unexpected meta: %+v", page.Meta)
	}
}

func TestFetchPage_SendsPaginationToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("pagination_token"); got != "abc" {
			t.Errorf("expected pagination_token=abc, got %q", got)
		}
		_, _ = w.Write([]byte(`{"data":[{"author_id":"1","conversation_id":"2","text":"x"}],"meta":{"result_count":1}}`))
	})
	if _, err := c.FetchPage(context.Background(), "abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetchPage_RateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("x-rate-limit-reset", "1720000000")
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
	})

	_, err := c.FetchPage(context.Background(), "")
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if !rl.ResetAt.Equal(time.Unix(1720000000, 0)) {
		t.Errorf("unexpected reset time %s", rl.ResetAt)
	}
}

func TestFetchPage_UnknownStatusIsAnError(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusUnauthorized, http.StatusBadGateway} {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"title":"nope"}`))
		})

		_, err := c.FetchPage(context.Background(), "")
		var up *UpstreamError
		if !errors.As(err, &up) {
			t.Fatalf("status %d: expected UpstreamError, got %v", status, err)
		}
		if up.StatusCode != status {
			t.Errorf("expected status %d, got %d", status, up.StatusCode)
		}
	}
}

func TestFetchPage_InvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[not json`))
	})

	_, err := c.FetchPage(context.Background(), "")
	var up *UpstreamError
	if !errors.As(err, &up) || up.Err == nil {
		t.Fatalf("expected decode UpstreamError, got %v", err)
	}
}

func TestFetchPage_ErrorsOnlyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"title":"Not Found Error","detail":"Could not find user"}]}`))
	})

	_, err := c.FetchPage(context.Background(), "")
	var apiErr APIError
	if !errors.As(err, &apiErr) || apiErr.Title != "Not Found Error" {
		t.Fatalf("expected wrapped APIError, got %v", err)
	}
}

func TestFetchPage_Timeout(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer s.Close()

	c := NewClient(Options{BaseURL: s.URL, BearerToken: "t", UserID: "1", Timeout: 100 * time.Millisecond})
	if _, err := c.FetchPage(context.Background(), ""); err == nil {
		t.Fatal("expected timeout error, got nil")
	}
}

func TestFetchPage_OversizedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"author_id":"1","conversation_id":"9","text":"` + strings.Repeat("x", 256) + `"}],"meta":{}}`))
	})
	c.maxBody = 64

	_, err := c.FetchPage(context.Background(), "")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) || upstream.StatusCode != http.StatusOK {
		t.Fatalf("expected UpstreamError for an oversized body, got %v", err)
	}
}

func TestParams_MaxResults(t *testing.T) {
	c := NewClient(Options{BearerToken: "t", UserID: "1", MaxResults: 100})
	if got := c.Params("").Get("max_results"); got != "100" {
		t.Fatalf("expected max_results=100, got %q", got)
	}
	if c.TimelineURL() != "https://api.twitter.com/2/users/1/tweets" {
		t.Fatalf("unexpected default url %s", c.TimelineURL())
	}
}
