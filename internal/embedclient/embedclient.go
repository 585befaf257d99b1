// Package embedclient wraps an OpenAI-shaped embeddings endpoint behind the
// EmbeddingClient contract: fixed-size batches in, same-length float32
// vectors out, transient failures retried with jittered backoff.
package embedclient

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"codelore/internal/apperr"
)

const (
	// DefaultModel is used unless Config overrides it.
	DefaultModel = "text-embedding-3-small"
	// DefaultDimension matches DefaultModel's output length.
	DefaultDimension = 1536
	// DefaultMaxRetries bounds retry attempts for a transient failure
	// (spec §4.3) when the caller doesn't supply one from Config.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the exponential backoff base used when the
	// caller doesn't supply one from Config.
	DefaultBaseDelay = 500 * time.Millisecond
	maxDelay         = 30 * time.Second
)

// Client is the EmbeddingClient implementation bound to an OpenAI-shaped
// API. A non-empty BaseURL routes through a managed or self-hosted
// endpoint instead of api.openai.com.
type Client struct {
	oa         openai.Client
	model      string
	maxRetries int
	baseDelay  time.Duration
}

// New builds a Client. apiKey, baseURL, and model come from Config
// (env-overridable per spec §6). maxRetries and baseDelay come from
// Config's max_retries and base_delay_ms; zero/negative values fall back to
// DefaultMaxRetries/DefaultBaseDelay.
func New(apiKey, baseURL, model string, maxRetries int, baseDelay time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedclient: %w: no API key configured", apperr.ErrInvalidArgument)
	}
	if model == "" {
		model = DefaultModel
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Client{oa: openai.NewClient(opts...), model: model, maxRetries: maxRetries, baseDelay: baseDelay}, nil
}

// IsManagedEndpoint reports whether baseURL looks like an Azure-hosted
// OpenAI deployment, per spec §6's endpoint auto-selection.
func IsManagedEndpoint(baseURL string) bool {
	return strings.Contains(baseURL, "azure.com")
}

// Embed embeds texts in one request and returns one vector per input, in
// input order. Callers are responsible for keeping batches at or below
// spec's BATCH_SIZE — Embed does not further slice.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var vectors [][]float32
	attempt := 0
	operation := func() error {
		resp, err := c.oa.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
			Model: c.model,
		})
		if err != nil {
			if isTransient(err) {
				attempt++
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Data) != len(texts) {
			return backoff.Permanent(fmt.Errorf("embedclient: got %d embeddings for %d inputs", len(resp.Data), len(texts)))
		}
		vectors = make([][]float32, len(resp.Data))
		for i, d := range resp.Data {
			vectors[i] = toFloat32(d.Embedding)
		}
		return nil
	}

	b := backoff.WithMaxRetries(&jitteredBackoff{base: c.baseDelay}, uint64(c.maxRetries))
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("embedclient: %w: %v", apperr.ErrEmbedding, err)
	}
	return vectors, nil
}

// Dimension reports the vector dimension for the configured model.
// text-embedding-3-small is the only model this expansion wires up, so it
// is the only dimension it needs to know.
func (c *Client) Dimension() int {
	return DefaultDimension
}

// jitteredBackoff implements spec §4.3's schedule directly: base*2^attempt,
// capped at 30s, plus uniform jitter in [0, base/2) added after the cap (so
// a delay can exceed 30s by up to base/2). backoff.WithMaxRetries
// bounds the attempt count to the client's configured maxRetries.
type jitteredBackoff struct {
	base    time.Duration
	attempt int
}

func (j *jitteredBackoff) NextBackOff() time.Duration {
	delay := j.base * time.Duration(1<<uint(j.attempt))
	j.attempt++
	if delay > maxDelay {
		delay = maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(j.base / 2)))
	return delay + jitter
}

func (j *jitteredBackoff) Reset() {
	j.attempt = 0
}

// isTransient classifies an error as retryable per spec §4.3: rate limits,
// 502/503/504, deadline exceeded, and network resets. Everything else
// (authentication, malformed request, other 4xx) is permanent.
func isTransient(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 502, 503, 504:
			return true
		}
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
