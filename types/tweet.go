package types

// Reference points a post at another post it replies to, quotes or retweets.
type Reference struct {
	Type string `json:"type" dynamodbav:"type"`
	ID   string `json:"id" dynamodbav:"id"`
}

// Attachments lists the media keys a post carries.
type Attachments struct {
	MediaKeys []string `json:"media_keys,omitempty" dynamodbav:"media_keys,omitempty"`
}

// Post is a single timeline entry as returned by the API and stored in the posts table.
// The pair (AuthorID, ConversationID) is the table key.
type Post struct {
	ID                  string       `json:"id,omitempty" dynamodbav:"id,omitempty"`
	AuthorID            string       `json:"author_id" dynamodbav:"author_id"`
	ConversationID      string       `json:"conversation_id" dynamodbav:"conversation_id"`
	CreatedAt           string       `json:"created_at,omitempty" dynamodbav:"created_at,omitempty"`
	Source              string       `json:"source,omitempty" dynamodbav:"source,omitempty"`
	ReferencedTweets    []Reference  `json:"referenced_tweets,omitempty" dynamodbav:"referenced_tweets,omitempty"`
	Text                string       `json:"text" dynamodbav:"text"`
	Attachments         *Attachments `json:"attachments,omitempty" dynamodbav:"attachments,omitempty"`
	EditHistoryTweetIDs []string     `json:"edit_history_tweet_ids,omitempty" dynamodbav:"edit_history_tweet_ids,omitempty"`
}

// Key returns the posts table key.
func (p Post) Key() (string, string) {
	return p.AuthorID, p.ConversationID
}

// Media is an attachment referenced from a page's includes section.
type Media struct {
	MediaKey        string `json:"media_key"`
	Type            string `json:"type"`
	URL             string `json:"url,omitempty"`
	PreviewImageURL string `json:"preview_image_url,omitempty"`
}

// PageMeta is the pagination block of a timeline response.
type PageMeta struct {
	NextToken     string `json:"next_token,omitempty" dynamodbav:"next_token,omitempty"`
	PreviousToken string `json:"previous_token,omitempty" dynamodbav:"previous_token,omitempty"`
	ResultCount   int    `json:"result_count" dynamodbav:"result_count"`
	NewestID      string `json:"newest_id" dynamodbav:"newest_id"`
	OldestID      string `json:"oldest_id" dynamodbav:"oldest_id"`
}

// Includes holds the expansions requested alongside the posts.
type Includes struct {
	Media []Media `json:"media,omitempty"`
}

// Page is one timeline API response.
type Page struct {
	Data     []Post    `json:"data"`
	Includes *Includes `json:"includes,omitempty"`
	Meta     PageMeta  `json:"meta"`
}

// HasMedia reports whether the page references any media.
func (p *Page) HasMedia() bool {
	return p.Includes != nil && len(p.Includes.Media) > 0
}

// Meta is the pagination metadata of one page plus the author of its first post.
type Meta struct {
	PageMeta
	AuthorID string `json:"author_id" dynamodbav:"author_id"`
}

// Key returns the meta table key.
func (m Meta) Key() (string, string) {
	return m.AuthorID, m.NewestID
}

// MetaRecord is what the meta consumer writes: the fragment plus the ingestion time.
type MetaRecord struct {
	Meta
	CreatedAt string `json:"created_at" dynamodbav:"created_at"`
}
