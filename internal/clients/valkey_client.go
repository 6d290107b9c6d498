package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"
)

var (
	valkeyInstance *ValkeyClient
	valkeyOnce     sync.Once
)

type ValkeyClient struct {
	Client valkey.Client
	mu     sync.Mutex
}

const (
	VALKEY_TTS_CACHE_PREFIX  = "tts:"
	VALKEY_RATE_LIMIT_PREFIX = "ratelimit:"

	TTS_CACHE_TTL_SECONDS = 86400
)

func InitValkey() *ValkeyClient {
	valkeyOnce.Do(func() {
		opts := valkeyOptions()

		client, err := valkey.NewClient(opts)
		if err != nil {
			panic(fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err))
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()

		c := client.Do(ctx, client.B().Ping().Build())
		if c.Error() != nil {
			panic(fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", c.Error()))
		}

		slog.Info("[ValkeyClient] Successfully connected to valkey")

		valkeyInstance = &ValkeyClient{Client: client}
	})
	return valkeyInstance
}

func valkeyOptions() valkey.ClientOption {
	valkeyAddr := os.Getenv("VALKEY_INIT_ADDRESS")
	valkeyPassword := os.Getenv("VALKEY_PASSWORD")
	useTLS := os.Getenv("VALKEY_TLS") == "true"

	opts := valkey.ClientOption{
		InitAddress: []string{
			valkeyAddr,
		},
		Password:         valkeyPassword,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}

	if useTLS {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	return opts
}

func (vc *ValkeyClient) recreateClient() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[ValkeyClient] Recreate failed and was recovered from panic",
				slog.Any("panic", r))
		}
	}()

	vc.mu.Lock()
	defer vc.mu.Unlock()
	slog.Warn("[ValkeyClient] Attempting to recreate Valkey client...")
	vc.Client.Close()

	client, err := valkey.NewClient(valkeyOptions())
	if err != nil {
		panic(fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	c := client.Do(ctx, client.B().Ping().Build())
	if c.Error() != nil {
		panic(fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", c.Error()))
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey")
	vc.Client = client
}

func CloseValkey() {
	if valkeyInstance != nil {
		valkeyInstance.Client.Close()
	}
}

func GetValkeyClient() *ValkeyClient {
	if valkeyInstance == nil {
		panic("[ValkeyClient] Error: Valkey client is not initilialized")
	}
	return valkeyInstance
}

// ValkeyInitialized reports whether InitValkey has run. Callers that can
// operate without the cache use this instead of GetValkeyClient.
func ValkeyInitialized() bool {
	return valkeyInstance != nil
}

// GetCachedAudio returns the cached audio bytes for a synthesis cache key, or
// false on a miss. Cache failures are reported as misses so synthesis can
// proceed against the provider.
func (vc *ValkeyClient) GetCachedAudio(ctx context.Context, key string) ([]byte, bool) {
	cacheKey := VALKEY_TTS_CACHE_PREFIX + key
	res := vc.DoWithRetry(ctx, vc.Client.B().Get().Key(cacheKey).Build(), 3)

	if err := res.Error(); err != nil {
		if isConnectionError(err) {
			vc.recreateClient()
		}
		return nil, false
	}

	audio, err := res.AsBytes()
	if err != nil || len(audio) == 0 {
		return nil, false
	}

	return audio, true
}

// StoreCachedAudio writes synthesized audio under the cache key with a 24h
// TTL. A write failure is logged and swallowed.
func (vc *ValkeyClient) StoreCachedAudio(ctx context.Context, key string, audio []byte) error {
	cacheKey := VALKEY_TTS_CACHE_PREFIX + key
	res := vc.DoWithRetry(ctx,
		vc.Client.B().Set().Key(cacheKey).Value(valkey.BinaryString(audio)).ExSeconds(TTS_CACHE_TTL_SECONDS).Build(), 3)

	if err := res.Error(); err != nil {
		slog.Warn("[ValkeyClient] Failed to cache audio",
			slog.String("key", cacheKey),
			slog.String("error", err.Error()))
		return err
	}

	slog.Info("[ValkeyClient] Cached synthesized audio",
		slog.String("key", cacheKey),
		slog.Int("bytes", len(audio)))
	return nil
}

// IncrRateLimit bumps the per-client counter for the current minute window
// and returns the count after the increment. The error is non-nil only when
// Valkey stays unreachable; callers are expected to fail open.
func (vc *ValkeyClient) IncrRateLimit(ctx context.Context, clientID string, window time.Time) (int64, error) {
	key := fmt.Sprintf("%s%s:%d", VALKEY_RATE_LIMIT_PREFIX, clientID, window.Unix())
	completed := []valkey.Completed{
		vc.Client.B().Incr().Key(key).Build(),
		vc.Client.B().Expire().Key(key).Seconds(120).Build(),
	}

	responses := vc.DoMultiWithRetry(ctx, completed, 3)
	for _, res := range responses {
		if err := res.Error(); err != nil {
			if isConnectionError(err) {
				vc.recreateClient()
			}
			return 0, err
		}
	}

	count, err := responses[0].AsInt64()
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (vc *ValkeyClient) DoMultiWithRetry(ctx context.Context, completed []valkey.Completed, retries int) []valkey.ValkeyResult {
	var results []valkey.ValkeyResult

	for i := 0; i < retries; i++ {
		results = vc.Client.DoMulti(ctx, completed...)
		hasErr := false
		for _, r := range results {
			if r.Error() != nil {
				hasErr = true
				slog.Warn("[ValkeyClient] Do Multi failed",
					slog.Int("attempt", i+1),
					slog.String("error", r.Error().Error()))
				if isConnectionError(r.Error()) {
					vc.recreateClient()
				}
				break
			}
		}
		if !hasErr {
			break
		}
		time.Sleep(time.Millisecond * 250)
	}

	return results
}

func (vc *ValkeyClient) DoWithRetry(ctx context.Context, completed valkey.Completed, retries int) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < retries; i++ {
		result = vc.Client.Do(ctx, completed)
		if result.Error() == nil || valkey.IsValkeyNil(result.Error()) {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", result.Error().Error()))

		time.Sleep(250 * time.Millisecond)
	}

	return result
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}
