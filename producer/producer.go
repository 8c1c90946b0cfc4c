package producer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"twitterpipe/logger"
	"twitterpipe/twitter"
	"twitterpipe/types"
)

// PageFetcher returns one page of the timeline; an empty token asks for the first page.
type PageFetcher interface {
	FetchPage(ctx context.Context, paginationToken string) (*types.Page, error)
}

// Publisher sends one message body to the named queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

// PublishError is a failed queue send. It is counted and logged, never fatal to a run.
type PublishError struct {
	Kind  types.Kind
	Queue string
	Page  int
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("failed to publish %s fragment of page %d to %s: %v", e.Kind, e.Page, e.Queue, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// StopReason says why a run stopped paginating.
type StopReason string

const (
	StopExhausted     StopReason = "exhausted"
	StopRateLimited   StopReason = "rate_limited"
	StopPageLimit     StopReason = "page_limit"
	StopRepeatedToken StopReason = "repeated_token"
	StopCanceled      StopReason = "canceled"
	StopFailed        StopReason = "failed"
)

// RunSummary describes one pagination run.
type RunSummary struct {
	RunID           string     `json:"run_id"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      time.Time  `json:"finished_at"`
	Pages           int        `json:"pages"`
	Published       int        `json:"published"`
	PublishFailures int        `json:"publish_failures"`
	StopReason      StopReason `json:"stop_reason"`
	RateLimitReset  *time.Time `json:"rate_limit_reset,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// Options tunes a Producer.
type Options struct {
	// MaxPages caps the pages fetched per run; 0 means no cap.
	MaxPages int
	Logger   *logrus.Entry
	Now      func() time.Time
}

// Producer paginates a timeline and fans every page out to the three queues.
type Producer struct {
	fetcher   PageFetcher
	publisher Publisher
	queues    map[types.Kind]string
	maxPages  int
	log       *logrus.Entry
	now       func() time.Time
}

// New builds a Producer. queues must name a queue for every fragment kind.
func New(fetcher PageFetcher, publisher Publisher, queues map[types.Kind]string, opts Options) (*Producer, error) {
	for _, kind := range types.Kinds {
		if queues[kind] == "" {
			return nil, fmt.Errorf("no queue configured for %s fragments", kind)
		}
	}
	if opts.Logger == nil {
		opts.Logger = logger.WithField("component", "producer")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Producer{
		fetcher:   fetcher,
		publisher: publisher,
		queues:    queues,
		maxPages:  opts.MaxPages,
		log:       opts.Logger,
		now:       opts.Now,
	}, nil
}

// Run fetches pages until the upstream has no continuation token, rate limits the run,
// returns a token it already returned, hits the page cap or ctx ends. Publish failures
// never stop the run; an upstream error other than a rate limit does and is returned.
func (p *Producer) Run(ctx context.Context) (RunSummary, error) {
	sum := RunSummary{RunID: uuid.New().String(), StartedAt: p.now()}
	log := p.log.WithField("run_id", sum.RunID)
	log.Info("producer run started")

	finish := func(reason StopReason, err error) (RunSummary, error) {
		sum.StopReason = reason
		sum.FinishedAt = p.now()
		if err != nil {
			sum.Error = err.Error()
		}
		log.WithFields(logrus.Fields{
			"pages":            sum.Pages,
			"published":        sum.Published,
			"publish_failures": sum.PublishFailures,
			"stop_reason":      reason,
		}).Info("producer run finished")
		return sum, err
	}

	token := ""
	seen := make(map[string]struct{})
	for {
		if err := ctx.Err(); err != nil {
			return finish(StopCanceled, err)
		}
		if p.maxPages > 0 && sum.Pages >= p.maxPages {
			return finish(StopPageLimit, nil)
		}

		page, err := p.fetcher.FetchPage(ctx, token)
		if err != nil {
			var rl *twitter.RateLimitError
			if errors.As(err, &rl) {
				if !rl.ResetAt.IsZero() {
					reset := rl.ResetAt
					sum.RateLimitReset = &reset
				}
				log.WithError(err).Warn("rate limited, stopping pagination")
				return finish(StopRateLimited, nil)
			}
			if ctx.Err() != nil {
				return finish(StopCanceled, err)
			}
			return finish(StopFailed, fmt.Errorf("failed to fetch page %d: %w", sum.Pages+1, err))
		}
		sum.Pages++

		if err := p.publishPage(ctx, log, sum.Pages, page, &sum); err != nil {
			return finish(StopFailed, err)
		}

		next := page.Meta.NextToken
		if next == "" {
			return finish(StopExhausted, nil)
		}
		if _, ok := seen[next]; ok {
			log.WithField("token", next).Warn("upstream repeated a continuation token")
			return finish(StopRepeatedToken, nil)
		}
		seen[next] = struct{}{}
		token = next
	}
}

func (p *Producer) publishPage(ctx context.Context, log *logrus.Entry, n int, page *types.Page, sum *RunSummary) error {
	posts, media, meta, err := Classify(page)
	if err != nil {
		return fmt.Errorf("failed to classify page %d: %w", n, err)
	}
	if posts == nil {
		log.WithField("page", n).Info("page has no posts, nothing to publish")
		return nil
	}

	for _, f := range []*types.Fragment{posts, media, meta} {
		if f == nil {
			continue
		}
		queue := p.queues[f.Kind]
		if err := p.publisher.Publish(ctx, queue, f.Body); err != nil {
			sum.PublishFailures++
			log.WithError(&PublishError{Kind: f.Kind, Queue: queue, Page: n, Err: err}).Error("publish failed")
			continue
		}
		sum.Published++
		log.WithFields(logrus.Fields{"page": n, "kind": f.Kind, "queue": queue}).Debug("fragment published")
	}
	return nil
}
