package models

import "time"

// RedditPost is a normalized post from the subreddit's "new" listing.
type RedditPost struct {
	PostID      string    `json:"id"`
	Fullname    string    `json:"name"`
	Subreddit   string    `json:"subreddit"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Permalink   string    `json:"permalink"`
	Selftext    string    `json:"selftext"`
	IsSelf      bool      `json:"is_self"`
	Score       int       `json:"score"`
	NumComments int       `json:"num_comments"`
	CreatedAt   time.Time `json:"created_at"`
}

// PostStats is a point-in-time score/comment reading for a post.
type PostStats struct {
	Score       int `json:"score"`
	NumComments int `json:"num_comments"`
}

type RedditAPIResponse struct {
	Data RedditAPIData `json:"data"`
}

type RedditAPIData struct {
	After    string           `json:"after"`
	Children []RedditAPIChild `json:"children"`
}

type RedditAPIChild struct {
	Data RedditAPIChildData `json:"data"`
}

type RedditAPIChildData struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Subreddit   string  `json:"subreddit"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Permalink   string  `json:"permalink"`
	Selftext    string  `json:"selftext"`
	IsSelf      bool    `json:"is_self"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
}

// ToPost converts the raw API payload into a RedditPost with a full
// permalink URL and a proper UTC timestamp.
func (d RedditAPIChildData) ToPost() RedditPost {
	return RedditPost{
		PostID:      d.ID,
		Fullname:    d.Name,
		Subreddit:   d.Subreddit,
		Title:       d.Title,
		Author:      d.Author,
		Permalink:   "https://www.reddit.com" + d.Permalink,
		Selftext:    d.Selftext,
		IsSelf:      d.IsSelf,
		Score:       d.Score,
		NumComments: d.NumComments,
		CreatedAt:   time.Unix(int64(d.CreatedUTC), 0).UTC(),
	}
}
