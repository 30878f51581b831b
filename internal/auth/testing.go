package auth

import "context"

// SetClaimsForTest injects agent claims into the context for testing purposes.
func SetClaimsForTest(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}
