package fetch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Chain tries transports in priority order, returning the first success.
// Fallback transports (everything after the first) are paid APIs, so calls
// to them pass through a shared rate limiter.
type Chain struct {
	transports      []Transport
	fallbackLimiter *rate.Limiter
}

// NewChain creates a Chain with the given transports. Transports are tried
// in order; the first successful result is returned.
func NewChain(transports ...Transport) *Chain {
	return &Chain{
		transports:      transports,
		fallbackLimiter: rate.NewLimiter(rate.Limit(1), 2),
	}
}

// WithFallbackLimit overrides the rate limit applied to fallback transports.
func (c *Chain) WithFallbackLimit(rps float64, burst int) *Chain {
	c.fallbackLimiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// Fetch tries each transport in order for a single URL.
// Returns the first successful result, or a *FetchError if all fail.
func (c *Chain) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	var (
		attempts []string
		lastErr  error
	)

	for i, tr := range c.transports {
		if !tr.Supports(targetURL) {
			attempts = append(attempts, tr.Name()+": skipped")
			continue
		}

		if i > 0 {
			if err := c.fallbackLimiter.Wait(ctx); err != nil {
				return nil, &FetchError{URL: targetURL, Attempts: attempts, Err: err}
			}
		}

		result, err := tr.Fetch(ctx, targetURL)
		if err == nil && result != nil {
			if i > 0 {
				zap.L().Info("fetch: fell back from direct",
					zap.String("transport", tr.Name()),
					zap.String("url", targetURL),
				)
			}
			return result, nil
		}
		if err != nil {
			zap.L().Debug("fetch: transport failed, trying next",
				zap.String("transport", tr.Name()),
				zap.String("url", targetURL),
				zap.Error(err),
			)
			attempts = append(attempts, fmt.Sprintf("%s: %v", tr.Name(), err))
			lastErr = err
		}
	}

	return nil, &FetchError{URL: targetURL, Attempts: attempts, Err: lastErr}
}
