// Package reddit implements domain.Lister against Reddit listing endpoints.
package reddit

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/qepting91/flair-census/internal/domain"
)

// listingResponse is the subset of a Reddit Listing thing we decode.
type listingResponse struct {
	Kind string `json:"kind"`
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string `json:"kind"`
			Data struct {
				ID            string  `json:"id"`
				Title         string  `json:"title"`
				Subreddit     string  `json:"subreddit_name_prefixed"`
				Author        string  `json:"author"`
				URL           string  `json:"url"`
				Score         int     `json:"score"`
				NumComments   int     `json:"num_comments"`
				CreatedUTC    float64 `json:"created_utc"`
				LinkFlairText *string `json:"link_flair_text"`
				Over18        bool    `json:"over_18"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (l *listingResponse) posts() []domain.Post {
	posts := make([]domain.Post, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		d := child.Data
		posts = append(posts, domain.Post{
			ID:           d.ID,
			Title:        d.Title,
			Subreddit:    d.Subreddit,
			Author:       d.Author,
			URL:          d.URL,
			Score:        d.Score,
			CommentCount: d.NumComments,
			CreatedUTC:   d.CreatedUTC,
			Flair:        d.LinkFlairText,
			NSFW:         d.Over18,
		})
	}
	return posts
}

// listingPath builds "r/<sub>/<endpoint>" plus the query for req.
func listingPath(req domain.PageRequest, suffix string) (string, error) {
	if req.Subreddit == "" {
		return "", fmt.Errorf("subreddit is required")
	}
	if !req.Ordering.Valid() {
		return "", fmt.Errorf("unknown ordering %q", req.Ordering)
	}
	return fmt.Sprintf("r/%s/%s%s?%s",
		url.PathEscape(req.Subreddit), req.Ordering.Endpoint(), suffix, listingQuery(req).Encode()), nil
}

func listingQuery(req domain.PageRequest) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(req.Limit))
	q.Set("raw_json", "1")
	if req.After != "" {
		q.Set("after", req.After)
	}
	if req.Count > 0 {
		q.Set("count", strconv.Itoa(req.Count))
	}
	if req.Ordering == domain.OrderingTop && req.Window != "" {
		q.Set("t", req.Window)
	}
	return q
}
