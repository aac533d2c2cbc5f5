package app_test

import (
	"context"
	"sync"

	"peer_review/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	mu      sync.Mutex
	recs    []domain.ReviewRecord
	loadErr error
	addErr  error
	loads   int
}

func (f *fakeStore) InitializeIfAbsent(ctx context.Context) error { return nil }
func (f *fakeStore) Append(ctx context.Context, r domain.ReviewRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.recs = append(f.recs, r)
	return nil
}
func (f *fakeStore) LoadAll(ctx context.Context) ([]domain.ReviewRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]domain.ReviewRecord(nil), f.recs...), nil
}

// countingStore also implements domain.TokenCounter.
type countingStore struct {
	fakeStore
	counted int
}

func (c *countingStore) CountByToken(ctx context.Context, token string) (int, error) {
	c.counted++
	n := 0
	for _, r := range c.recs {
		if r.SessionToken == token {
			n++
		}
	}
	return n, nil
}

type fakeSessions struct{ tokens map[string]string }

func (f *fakeSessions) GetOrCreateToken(ctx context.Context, sessionID string) (string, error) {
	if f.tokens == nil {
		f.tokens = map[string]string{}
	}
	if t, ok := f.tokens[sessionID]; ok {
		return t, nil
	}
	t := "TOK" + string(rune('A'+len(f.tokens))) + "00"
	f.tokens[sessionID] = t
	return t, nil
}

func ratings(vs ...int) map[string]int {
	m := map[string]int{}
	for i, c := range domain.DefaultCategories {
		m[c] = vs[i%len(vs)]
	}
	return m
}
