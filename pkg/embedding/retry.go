package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig defines configuration for retries
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxElapsedTime  time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2,
		MaxElapsedTime:  30 * time.Second,
	}
}

// RetryingProvider retries transient failures of the wrapped provider with
// exponential backoff. Providers themselves never retry.
type RetryingProvider struct {
	next   EmbeddingProvider
	config RetryConfig
}

func NewRetryingProvider(next EmbeddingProvider, config RetryConfig) *RetryingProvider {
	return &RetryingProvider{next: next, config: config}
}

// isPermanent reports errors a second attempt cannot fix.
func isPermanent(err error) bool {
	if errors.Is(err, ErrEmptyText) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return !statusErr.Temporary()
	}
	return false
}

func (p *RetryingProvider) GenerateEmbedding(ctx context.Context, text string, model string) (*EmbeddingResponse, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.config.InitialInterval
	b.MaxInterval = p.config.MaxInterval
	b.Multiplier = p.config.Multiplier
	b.MaxElapsedTime = p.config.MaxElapsedTime

	var policy backoff.BackOff = b
	if p.config.MaxRetries > 0 {
		policy = backoff.WithMaxRetries(b, uint64(p.config.MaxRetries))
	}

	var result *EmbeddingResponse
	err := backoff.Retry(func() error {
		res, err := p.next.GenerateEmbedding(ctx, text, model)
		if err != nil {
			if isPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = res
		return nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return nil, err
	}
	return result, nil
}
