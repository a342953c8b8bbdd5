package indexer

import (
	"context"

	"golang.org/x/time/rate"
)

// endpointLimiter wraps a token-bucket limiter scoped to one endpoint.
type endpointLimiter struct {
	limiter *rate.Limiter
	url     string
}

func newEndpointLimiter(url string, rps int) *endpointLimiter {
	return &endpointLimiter{
		// Burst(1) spreads requests evenly across the second instead of
		// letting them through in a burst that could trip the indexer's own
		// rate limiting even though the average rate is within bounds.
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		url:     url,
	}
}

func (l *endpointLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
