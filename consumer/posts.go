package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"twitterpipe/types"
)

// NewPosts returns the consumer that writes every post of a posts message as one table item.
func NewPosts(table TableWriter, opts Options) *Consumer {
	c := newConsumer(types.KindPosts, opts)
	c.process = func(ctx context.Context, msg types.Message) (int, error) {
		var posts []types.Post
		if err := json.Unmarshal(msg.Body, &posts); err != nil {
			return 0, &ParseError{MessageID: msg.ID, Index: -1, Err: err}
		}

		written := 0
		var errs []error
		for i, post := range posts {
			err := c.putPost(ctx, table, msg.ID, i, post)
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

func (c *Consumer) putPost(ctx context.Context, table TableWriter, msgID string, i int, post types.Post) error {
	author, conversation := post.Key()
	if author == "" || conversation == "" {
		return &ParseError{MessageID: msgID, Index: i, Err: errors.New("post has no author_id/conversation_id")}
	}
	key := fmt.Sprintf("(%s, %s)", author, conversation)

	wctx, cancel := c.writeContext(ctx)
	defer cancel()
	if err := table.PutItem(wctx, post); err != nil {
		return &StoreWriteError{MessageID: msgID, Index: i, Key: key, Err: err}
	}
	c.log.WithField("key", key).Debug("post stored")
	return nil
}
