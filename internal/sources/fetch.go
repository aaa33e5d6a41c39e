package sources

import (
	"context"
	"fmt"
	"time"

	fiber "github.com/gofiber/fiber/v2"
)

// DefaultFetchTimeout bounds a single outbound request when ctx has no deadline
const DefaultFetchTimeout = 15 * time.Second

const userAgent = "milescrape/1.0 (+https://github.com/milescrape/milescrape)"

// fetch performs a rate limited GET and returns the body of a 2xx response
func fetch(ctx context.Context, limiter *HostLimiter, rawURL string) ([]byte, error) {
	if err := limiter.WaitURL(ctx, rawURL); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agent := fiber.Get(rawURL)
	// Set timeout from context or the default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(DefaultFetchTimeout)
	}
	agent.UserAgent(userAgent)

	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("error fetching %s: %w", rawURL, errs[0])
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", rawURL, statusCode)
	}
	return body, nil
}
