package producer

import (
	"encoding/json"
	"fmt"

	"twitterpipe/types"
)

// Classify splits a page into its posts, media and meta fragments. Media is nil when the
// page references no media. A page without posts yields no fragments: there is no first
// post to take the meta author from.
func Classify(page *types.Page) (posts, media, meta *types.Fragment, err error) {
	if page == nil || len(page.Data) == 0 {
		return nil, nil, nil, nil
	}

	posts, err = fragment(types.KindPosts, page.Data)
	if err != nil {
		return nil, nil, nil, err
	}

	if page.HasMedia() {
		media, err = fragment(types.KindMedia, page.Includes.Media)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	meta, err = fragment(types.KindMeta, types.Meta{
		PageMeta: page.Meta,
		AuthorID: page.Data[0].AuthorID,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return posts, media, meta, nil
}

func fragment(kind types.Kind, v any) (*types.Fragment, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s fragment: %w", kind, err)
	}
	return &types.Fragment{Kind: kind, Body: body}, nil
}
