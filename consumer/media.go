package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"twitterpipe/config"
	"twitterpipe/types"
)

// MediaObjectKey is the object key of one media entry processed at t: year/month/day of
// the processing date in UTC, without zero padding, then the media key.
func MediaObjectKey(t time.Time, mediaKey string) string {
	t = t.UTC()
	return fmt.Sprintf("%d/%d/%d/%s.json", t.Year(), int(t.Month()), t.Day(), mediaKey)
}

// NewMedia returns the consumer that writes every media entry of a media message as one
// pretty-printed JSON object, partitioned by the processing date. A message replayed on
// another day lands under a new partition.
func NewMedia(store ObjectWriter, opts Options) *Consumer {
	c := newConsumer(types.KindMedia, opts)
	c.process = func(ctx context.Context, msg types.Message) (int, error) {
		var entries []json.RawMessage
		if err := json.Unmarshal(msg.Body, &entries); err != nil {
			return 0, &ParseError{MessageID: msg.ID, Index: -1, Err: err}
		}

		now := c.now()
		written := 0
		var errs []error
		for i, raw := range entries {
			err := c.putMedia(ctx, store, msg.ID, i, raw, now)
			if err == nil {
				written++
				continue
			}
			errs = append(errs, err)
			if c.stop(err) {
				break
			}
		}
		return written, errors.Join(errs...)
	}
	return c
}

func (c *Consumer) putMedia(ctx context.Context, store ObjectWriter, msgID string, i int, raw json.RawMessage, now time.Time) error {
	var media types.Media
	if err := json.Unmarshal(raw, &media); err != nil {
		return &ParseError{MessageID: msgID, Index: i, Err: err}
	}
	if media.MediaKey == "" {
		return &ParseError{MessageID: msgID, Index: i, Err: errors.New("media has no media_key")}
	}

	var body bytes.Buffer
	if err := json.Indent(&body, raw, "", "  "); err != nil {
		return &ParseError{MessageID: msgID, Index: i, Err: err}
	}

	key := MediaObjectKey(now, media.MediaKey)
	wctx, cancel := c.writeContext(ctx)
	defer cancel()
	if err := store.PutObject(wctx, key, body.Bytes(), config.MediaContentType); err != nil {
		return &StoreWriteError{MessageID: msgID, Index: i, Key: key, Err: err}
	}
	c.log.WithField("key", key).Debug("media stored")
	return nil
}
