package types

// Kind identifies which queue a fragment belongs to.
type Kind string

const (
	KindPosts Kind = "posts"
	KindMedia Kind = "media"
	KindMeta  Kind = "meta"
)

// Kinds lists every fragment kind in publish order.
var Kinds = []Kind{KindPosts, KindMedia, KindMeta}

// Valid reports whether k is a known fragment kind.
func (k Kind) Valid() bool {
	switch k {
	case KindPosts, KindMedia, KindMeta:
		return true
	}
	return false
}

// Fragment is one queue-sized, serialized slice of a page.
type Fragment struct {
	Kind Kind
	Body []byte
}

// Message is a single delivered queue message, independent of the queue backend.
type Message struct {
	ID         string
	Body       []byte
	Attributes map[string]string
}

// Keyed is an item stored under a two-part table key (partition, sort).
type Keyed interface {
	Key() (string, string)
}
