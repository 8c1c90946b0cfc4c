package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"twitterpipe/config"
	"twitterpipe/types"
)

// NewMeta returns the consumer that stamps each meta message with the UTC ingestion time
// and writes it as one table item.
func NewMeta(table TableWriter, opts Options) *Consumer {
	c := newConsumer(types.KindMeta, opts)
	c.process = func(ctx context.Context, msg types.Message) (int, error) {
		var meta types.Meta
		if err := json.Unmarshal(msg.Body, &meta); err != nil {
			return 0, &ParseError{MessageID: msg.ID, Index: -1, Err: err}
		}
		author, newest := meta.Key()
		if author == "" || newest == "" {
			return 0, &ParseError{MessageID: msg.ID, Index: 0, Err: errors.New("meta has no author_id/newest_id")}
		}

		rec := types.MetaRecord{
			Meta:      meta,
			CreatedAt: c.now().UTC().Format(config.MetaTimestampLayout),
		}
		key := fmt.Sprintf("(%s, %s)", author, newest)

		wctx, cancel := c.writeContext(ctx)
		defer cancel()
		if err := table.PutItem(wctx, rec); err != nil {
			return 0, &StoreWriteError{MessageID: msg.ID, Index: 0, Key: key, Err: err}
		}
		c.log.WithField("key", key).Debug("meta stored")
		return 1, nil
	}
	return c
}
