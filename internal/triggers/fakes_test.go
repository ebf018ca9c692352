package triggers

import (
	"bytes"
	"context"
	"log"
	"sync"

	"github.com/anonto42/henstagram/backend/internal/models"
)

type fakePosts struct {
	mu         sync.Mutex
	counts     map[string]any
	increments []string
	err        error
}

func (f *fakePosts) IncrementCommentsCount(_ context.Context, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.increments = append(f.increments, postID)
	return nil
}

func (f *fakePosts) DecrementCommentsCount(_ context.Context, postID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	next := models.DecrementedCount(f.counts[postID])
	f.counts[postID] = next
	return next, nil
}

type fakeRegistry struct {
	users []models.UserTokens
	err   error
	calls int
}

func (f *fakeRegistry) ListUserTokens(context.Context) ([]models.UserTokens, error) {
	f.calls++
	return f.users, f.err
}

type fakeSender struct {
	calls [][]models.PushMessage
	err   error

	// onSend runs before the result is returned, e.g. to cancel the caller.
	onSend func()
}

func (f *fakeSender) Send(_ context.Context, messages []models.PushMessage) error {
	f.calls = append(f.calls, messages)
	if f.onSend != nil {
		f.onSend()
	}
	return f.err
}

type fakeLedger struct {
	claims   map[string]bool
	released []string
}

// Claim and Release fail on a done context, like the gorm and Firestore ledgers.
func (f *fakeLedger) Claim(ctx context.Context, key, _, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if f.claims[key] {
		return false, nil
	}
	f.claims[key] = true
	return true, nil
}

func (f *fakeLedger) Release(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	delete(f.claims, key)
	f.released = append(f.released, key)
	return nil
}

func quietLogger() *log.Logger {
	return log.New(&bytes.Buffer{}, "", 0)
}
