package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"twitterpipe/logger"
	"twitterpipe/types"
)

// TableWriter puts one item, replacing any item stored under the same key.
type TableWriter interface {
	PutItem(ctx context.Context, item types.Keyed) error
}

// ObjectWriter puts one object, replacing any object stored under the same key.
type ObjectWriter interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
}

// Options tunes a Consumer.
type Options struct {
	// FailFast stops a batch at the first failure and fails every message after it.
	FailFast bool
	Logger   *logrus.Entry
	Now      func() time.Time
	// WriteTimeout bounds each store write; 0 leaves the batch context alone.
	WriteTimeout time.Duration
}

// Failure is one message that did not fully persist. Permanent failures are malformed
// input that no redelivery can fix; the rest should be redelivered.
type Failure struct {
	MessageID string
	Err       error
	Permanent bool
}

// BatchResult summarizes one HandleBatch call.
type BatchResult struct {
	Messages int
	Written  int
	Failed   []Failure
}

// Rejected counts the failed messages that are acknowledged anyway.
func (r BatchResult) Rejected() int {
	n := 0
	for _, f := range r.Failed {
		if f.Permanent {
			n++
		}
	}
	return n
}

// OK reports whether every message persisted.
func (r BatchResult) OK() bool { return len(r.Failed) == 0 }

// FailedIDs lists the ids of the messages to leave for redelivery. Messages that failed
// only to parse are left out: they are acknowledged and dropped.
func (r BatchResult) FailedIDs() map[string]bool {
	ids := make(map[string]bool, len(r.Failed))
	for _, f := range r.Failed {
		if !f.Permanent {
			ids[f.MessageID] = true
		}
	}
	return ids
}

// Err joins every failure, or nil.
func (r BatchResult) Err() error {
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// processFunc persists one message and reports how many records it wrote.
type processFunc func(ctx context.Context, msg types.Message) (int, error)

// Consumer drains one queue into its store.
type Consumer struct {
	kind     types.Kind
	failFast bool
	timeout  time.Duration
	log      *logrus.Entry
	now      func() time.Time
	process  processFunc
}

func newConsumer(kind types.Kind, opts Options) *Consumer {
	if opts.Logger == nil {
		opts.Logger = logger.WithField("component", "consumer")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Consumer{
		kind:     kind,
		failFast: opts.FailFast,
		timeout:  opts.WriteTimeout,
		log:      opts.Logger.WithField("kind", kind),
		now:      opts.Now,
	}
}

// Kind is the fragment kind this consumer expects.
func (c *Consumer) Kind() types.Kind { return c.kind }

// HandleBatch persists every message of one delivered batch. Messages are isolated from
// each other: a failing message is reported and the rest still go through, unless the
// consumer is fail-fast.
func (c *Consumer) HandleBatch(ctx context.Context, msgs []types.Message) BatchResult {
	res := BatchResult{Messages: len(msgs)}
	for i, msg := range msgs {
		if err := ctx.Err(); err != nil {
			res.Failed = appendRemaining(res.Failed, msgs[i:], err)
			break
		}

		n, err := c.process(ctx, msg)
		res.Written += n
		if err == nil {
			continue
		}

		f := Failure{MessageID: msg.ID, Err: err, Permanent: permanent(err)}
		res.Failed = append(res.Failed, f)
		if f.Permanent {
			c.log.WithError(err).WithField("message_id", msg.ID).Warn("message rejected, acknowledging it")
		} else {
			c.log.WithError(err).WithField("message_id", msg.ID).Error("message failed")
		}
		if c.failFast {
			res.Failed = appendRemaining(res.Failed, msgs[i+1:], ErrBatchAborted)
			break
		}
	}

	c.log.WithFields(logrus.Fields{
		"messages": res.Messages,
		"written":  res.Written,
		"failed":   len(res.Failed),
		"rejected": res.Rejected(),
	}).Info("batch processed")
	return res
}

// stop reports whether entry processing should end after err.
func (c *Consumer) stop(err error) bool {
	return err != nil && c.failFast
}

func (c *Consumer) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// permanent reports whether every error in err's tree is a ParseError.
func permanent(err error) bool {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs := joined.Unwrap()
		for _, e := range errs {
			if !permanent(e) {
				return false
			}
		}
		return len(errs) > 0
	}
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

func appendRemaining(failed []Failure, rest []types.Message, err error) []Failure {
	for _, msg := range rest {
		failed = append(failed, Failure{MessageID: msg.ID, Err: err})
	}
	return failed
}
