package app

import (
	"context"

	"peer_review/internal/domain"
)

// DefaultSubmissionCap is the number of reviews one session token may submit.
const DefaultSubmissionCap = 10

// CountForToken counts records tagged with token. The empty token matches
// nothing, so untokened legacy rows never consume anyone's quota.
func CountForToken(token string, records []domain.ReviewRecord) int {
	if token == "" {
		return 0
	}
	n := 0
	for _, r := range records {
		if r.SessionToken == token {
			n++
		}
	}
	return n
}

func IsAllowed(token string, records []domain.ReviewRecord, cap int) bool {
	return CountForToken(token, records) < cap
}

// countPersisted re-derives the count from the store on every call so the cap
// holds across restarts.
func countPersisted(ctx context.Context, store domain.ReviewStore, token string) (int, error) {
	if tc, ok := store.(domain.TokenCounter); ok {
		return tc.CountByToken(ctx, token)
	}
	all, err := store.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	return CountForToken(token, all), nil
}
