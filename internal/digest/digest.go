// Package digest computes content version tokens for wishlist text.
package digest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/sync/errgroup"
)

// Text returns the lowercase hex SHA-256 of s.
func Text(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Bytes returns the lowercase hex SHA-256 of b.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// All digests every text concurrently. Results are in input order. The only
// error is ctx's, when it is cancelled before all digests finish.
func All(ctx context.Context, texts []string) ([]string, error) {
	out := make([]string, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = Text(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
