package domain

import (
	"context"
	"time"
)

// Target represents one census task
type Target struct {
	Subreddit string
	Count     int
}

// Post is the clean data structure for a listing item
type Post struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Subreddit    string  `json:"subreddit"`
	Author       string  `json:"author"`
	URL          string  `json:"url"`
	Score        int     `json:"score"`
	CommentCount int     `json:"comment_count"`
	CreatedUTC   float64 `json:"created_utc"`
	Flair        *string `json:"link_flair_text"`
	NSFW         bool    `json:"over_18"`
}

// Label returns the post flair and whether one is set.
func (p Post) Label() (string, bool) {
	if p.Flair == nil {
		return "", false
	}
	return *p.Flair, true
}

// FullName is the type-prefixed identifier Reddit uses for listing anchors.
func (p Post) FullName() string {
	return LinkPrefix + p.ID
}

// LinkPrefix is Reddit's type tag for links (submissions).
const LinkPrefix = "t3_"

// MaxPageSize is the largest limit the listing endpoints accept.
const MaxPageSize = 100

// PageRequest describes one listing call.
type PageRequest struct {
	Subreddit string
	Ordering  Ordering
	Limit     int
	// After is the anchor token; empty on the first call.
	After string
	// Count is the number of items already seen, forwarded as the listing "count" parameter.
	Count int
	// Window restricts the Top ordering ("hour", "day", "week", "month", "year", "all").
	Window string
}

// Lister defines the interface for listing page fetches
type Lister interface {
	FetchPage(ctx context.Context, req PageRequest) ([]Post, error)
}

// OrderingSummary is the aggregated outcome of one ordering's collection.
type OrderingSummary struct {
	Ordering      Ordering      `json:"ordering"`
	Collected     int           `json:"collected"`
	Exhausted     bool          `json:"exhausted"`
	Duplicates    int           `json:"duplicates"`
	Pages         int           `json:"pages"`
	Flairs        CategoryTally `json:"flairs"`
	LabeledFlairs CategoryTally `json:"labeled_flairs"`
	Flags         FlagTally     `json:"flags"`
}

// Series is one named, label-aligned sequence of values.
type Series struct {
	Name   string `json:"name"`
	Values []int  `json:"values"`
}

// Chart groups series that share the same label axis.
type Chart struct {
	Name   string   `json:"name"`
	Title  string   `json:"title"`
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// Census is the full result of one target run, handed to the reporting sinks.
type Census struct {
	ID         string            `json:"id"`
	Subreddit  string            `json:"subreddit"`
	Target     int               `json:"target"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Orderings  []OrderingSummary `json:"orderings"`
	Charts     []Chart           `json:"charts,omitempty"`
}
