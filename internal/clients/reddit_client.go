package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/spacesedan/subtrack/config"
	"github.com/spacesedan/subtrack/internal/models"
	"github.com/spacesedan/subtrack/internal/tracker"
)

const (
	REDDIT_AUTH_URL = "https://www.reddit.com/api/v1/access_token"
	REDDIT_API_URL  = "https://oauth.reddit.com"
)

var (
	redditClientInstance *RedditClient
	redditClientOnce     sync.Once
)

type RedditClient struct {
	Config    *clientcredentials.Config
	Client    *http.Client
	userAgent string
	mu        *sync.Mutex
}

func GetRedditClient(cfg *config.Config) *RedditClient {
	redditClientOnce.Do(func() {
		oauthConf := &clientcredentials.Config{
			ClientID:     cfg.RedditClientID,
			ClientSecret: cfg.RedditClientSecret,
			TokenURL:     REDDIT_AUTH_URL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}

		redditClientInstance = &RedditClient{
			Config:    oauthConf,
			Client:    oauthConf.Client(context.Background()),
			userAgent: cfg.RedditUserAgent,
			mu:        &sync.Mutex{},
		}
	})

	return redditClientInstance
}

func (rc *RedditClient) RefreshClient() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.Client = rc.Config.Client(context.Background())
}

// NewPosts fetches the subreddit's "new" listing, most recent first.
func (rc *RedditClient) NewPosts(ctx context.Context, subreddit string, limit int) ([]models.RedditPost, error) {
	endpoint := fmt.Sprintf("%s/r/%s/new", REDDIT_API_URL, url.PathEscape(subreddit))
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("raw_json", "1")

	body, err := rc.doGet(ctx, endpoint, query, 0)
	if err != nil {
		return nil, fmt.Errorf("[RedditClient] Failed to fetch /r/%s/new: %w", subreddit, err)
	}

	var listing models.RedditAPIResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("[RedditClient] Failed to decode listing: %w", err)
	}

	posts := make([]models.RedditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, child.Data.ToPost())
	}
	return posts, nil
}

// PostStats fetches the current score/comment count for one post by id.
// Returns tracker.ErrPostUnavailable when the post no longer resolves.
func (rc *RedditClient) PostStats(ctx context.Context, postID string) (models.PostStats, error) {
	endpoint := REDDIT_API_URL + "/api/info"
	query := url.Values{}
	query.Set("id", "t3_"+postID)
	query.Set("raw_json", "1")

	body, err := rc.doGet(ctx, endpoint, query, 0)
	if err != nil {
		return models.PostStats{}, fmt.Errorf("[RedditClient] Failed to fetch info for %s: %w", postID, err)
	}

	var listing models.RedditAPIResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return models.PostStats{}, fmt.Errorf("[RedditClient] Failed to decode info for %s: %w", postID, err)
	}

	if len(listing.Data.Children) == 0 {
		return models.PostStats{}, fmt.Errorf("[RedditClient] %s: %w", postID, tracker.ErrPostUnavailable)
	}

	data := listing.Data.Children[0].Data
	return models.PostStats{Score: data.Score, NumComments: data.NumComments}, nil
}

func (rc *RedditClient) doGet(ctx context.Context, endpoint string, query url.Values, attempt int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", rc.userAgent)

	resp, err := rc.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusUnauthorized:
		if attempt >= 1 {
			return nil, fmt.Errorf("still unauthorized after token refresh")
		}
		slog.Warn("[RedditClient] Token expired - Refreshing and Retrying...")
		rc.RefreshClient()
		return rc.doGet(ctx, endpoint, query, attempt+1)
	case http.StatusTooManyRequests:
		if attempt >= 1 {
			return nil, fmt.Errorf("rate limited")
		}
		slog.Warn("[RedditClient] 429 Too Many Requests - Retrying with backoff")
		return rc.retryWithBackoff(ctx, endpoint, query)
	case http.StatusNotFound, http.StatusForbidden:
		return nil, tracker.ErrPostUnavailable
	default:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

func (rc *RedditClient) retryWithBackoff(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	backoff := INITIAL_BACKOFF
	for i := 1; i < MAX_RETRIES; i++ {
		slog.Warn("[RedditClient] Retrying request",
			slog.Int("attempt", i), slog.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > MAX_BACKOFF {
			backoff = MAX_BACKOFF
		}

		data, err := rc.doGet(ctx, endpoint, query, 1)
		if err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("max retries reached, request failed")
}
