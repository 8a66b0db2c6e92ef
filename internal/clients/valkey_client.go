package clients

import (
	"context"
	"crypto/tls"
	"log/slog"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/spacesedan/subtrack/config"
)

var (
	valkeyInstance *ValkeyClient
	valkeyOnce     sync.Once
)

const VALKEY_SEEN_PREFIX = "subtrack:seen_posts:"

// ValkeyClient caches post ids already recorded on the sheet so repeat polls
// can skip the sheet read. The cache is strictly optional.
type ValkeyClient struct {
	Client valkey.Client

	// seen-id entries outlive the observation window by a day
	ttlSeconds int64
}

// InitValkey connects to Valkey if an address is configured. Returns nil
// (cache disabled) when unconfigured or unreachable; the tracker falls back
// to reading the sheet's id column every cycle.
func InitValkey(cfg *config.Config) *ValkeyClient {
	valkeyOnce.Do(func() {
		if cfg.ValkeyAddress == "" {
			slog.Info("[ValkeyClient] No address configured, seen-post cache disabled")
			return
		}

		opts := valkey.ClientOption{
			InitAddress:      []string{cfg.ValkeyAddress},
			Password:         cfg.ValkeyPassword,
			ConnWriteTimeout: 5 * time.Second,
			SelectDB:         0,
		}
		if cfg.ValkeyTLS {
			opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
		}

		client, err := valkey.NewClient(opts)
		if err != nil {
			slog.Warn("[ValkeyClient] Failed to create client, cache disabled",
				slog.String("error", err.Error()))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()

		if res := client.Do(ctx, client.B().Ping().Build()); res.Error() != nil {
			slog.Warn("[ValkeyClient] Failed to ping Valkey, cache disabled",
				slog.String("error", res.Error().Error()))
			client.Close()
			return
		}

		slog.Info("[ValkeyClient] Successfully connected to valkey")
		valkeyInstance = &ValkeyClient{
			Client:     client,
			ttlSeconds: int64(cfg.TrackDays+1) * 86400,
		}
	})
	return valkeyInstance
}

func CloseValkey() {
	if valkeyInstance != nil {
		valkeyInstance.Client.Close()
	}
}

func (vc *ValkeyClient) IsPostSeen(ctx context.Context, subreddit, postID string) bool {
	key := VALKEY_SEEN_PREFIX + subreddit
	res := vc.Client.Do(ctx, vc.Client.B().Sismember().Key(key).Member(postID).Build())

	ok, err := res.AsBool()
	if err != nil {
		return false
	}
	return ok
}

func (vc *ValkeyClient) MarkPostSeen(ctx context.Context, subreddit, postID string) error {
	key := VALKEY_SEEN_PREFIX + subreddit
	completed := []valkey.Completed{
		vc.Client.B().Sadd().Key(key).Member(postID).Build(),
		vc.Client.B().Expire().Key(key).Seconds(vc.ttlSeconds).Build(),
	}

	for _, res := range vc.Client.DoMulti(ctx, completed...) {
		if err := res.Error(); err != nil {
			return err
		}
	}
	return nil
}
