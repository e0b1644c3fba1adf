package anthropic

import (
	"context"

	"github.com/rotisserie/eris"
)

// CachedSystemBlocks wraps a system prompt in a single block with a 1-hour
// cache breakpoint. Bulk validation reuses the same long scoring prompt for
// every idea, so caching it once pays for itself after the first request.
func CachedSystemBlocks(text string) []SystemBlock {
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: "1h",
			},
		},
	}
}

// WarmCache sends one sequential message so that subsequent batch requests
// carrying the same cached system blocks hit a warm cache. The response body
// is returned so callers can log its usage, but it is otherwise disposable.
func WarmCache(ctx context.Context, client Client, req MessageRequest) (*MessageResponse, error) {
	resp, err := client.CreateMessage(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: warm cache")
	}
	return resp, nil
}
