package triggers

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/anonto42/henstagram/backend/internal/models"
	"github.com/anonto42/henstagram/backend/internal/repositories"
)

func newChallengeTrigger(users *fakeRegistry, sender *fakeSender, ledger *fakeLedger) *ChallengeTrigger {
	var l repositories.NotificationLedger
	if ledger != nil {
		l = ledger
	}
	return NewChallengeTrigger(users, sender, l, ChallengeConfig{}, quietLogger())
}

func TestOnChallengeUpdatedEdgeDetection(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		before map[string]any
		after  map[string]any
		sends  int
	}{
		{name: "missing before", before: nil, after: map[string]any{"startAt": ts}, sends: 0},
		{name: "missing after", before: map[string]any{}, after: nil, sends: 0},
		{name: "still draft", before: map[string]any{"startAt": nil}, after: map[string]any{"startAt": nil}, sends: 0},
		{
			name:   "already active re-edited",
			before: map[string]any{"startAt": map[string]any{"ts": 1}},
			after:  map[string]any{"startAt": map[string]any{"ts": 2}},
			sends:  0,
		},
		{name: "activated", before: map[string]any{"startAt": nil}, after: map[string]any{"startAt": map[string]any{"ts": 1}}, sends: 1},
		{name: "activated from absent field", before: map[string]any{"title": "x"}, after: map[string]any{"startAt": ts}, sends: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeRegistry{users: []models.UserTokens{{UserID: "u1", Tokens: []any{"token-1"}}}}
			sender := &fakeSender{}
			trigger := newChallengeTrigger(users, sender, nil)

			if err := trigger.OnChallengeUpdated(context.Background(), "c1", tt.before, tt.after); err != nil {
				t.Fatalf("OnChallengeUpdated error = %v", err)
			}
			if len(sender.calls) != tt.sends {
				t.Fatalf("sends = %d, want %d", len(sender.calls), tt.sends)
			}
			if tt.sends == 0 && users.calls != 0 {
				t.Errorf("registry read %d times, want none", users.calls)
			}
		})
	}
}

func TestOnChallengeUpdatedCollectsUniqueTokens(t *testing.T) {
	users := &fakeRegistry{users: []models.UserTokens{
		{UserID: "a", Tokens: []any{" token-1 ", "", 123, "token-2"}},
		{UserID: "b", Tokens: []any{"token-2", "token-3"}},
		{UserID: "c", Tokens: "invalid"},
	}}
	sender := &fakeSender{}
	trigger := newChallengeTrigger(users, sender, nil)

	err := trigger.OnChallengeUpdated(context.Background(), "challenge-7",
		map[string]any{"startAt": nil, "title": "before"},
		map[string]any{"startAt": map[string]any{"ts": 1}, "title": "Weekly challenge"},
	)
	if err != nil {
		t.Fatalf("OnChallengeUpdated error = %v", err)
	}
	if len(sender.calls) != 1 {
		t.Fatalf("sends = %d, want 1", len(sender.calls))
	}

	var want []models.PushMessage
	for _, token := range []string{"token-1", "token-2", "token-3"} {
		want = append(want, models.PushMessage{
			To:    token,
			Title: "New challenge 🔥",
			Body:  "Weekly challenge",
			Data: map[string]any{
				"challengeId": "challenge-7",
				"url":         "henstagrammobile://challenge/challenge-7",
			},
			Sound: "default",
		})
	}
	if got := sender.calls[0]; !reflect.DeepEqual(got, want) {
		t.Errorf("messages =\n%+v\nwant\n%+v", got, want)
	}
}

func TestActivationBodyFallback(t *testing.T) {
	tests := []struct {
		name  string
		title any
		want  string
	}{
		{name: "string title", title: "Sunset shots", want: "Sunset shots"},
		{name: "numeric title", title: 123, want: "A new challenge is live!"},
		{name: "empty title", title: "", want: "A new challenge is live!"},
		{name: "no title", title: nil, want: "A new challenge is live!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			after := map[string]any{"startAt": time.Now()}
			if tt.title != nil {
				after["title"] = tt.title
			}
			msgs := ActivationMessages("challenge-8", after, []string{"token-1"}, DefaultDeepLinkScheme)
			if len(msgs) != 1 || msgs[0].Body != tt.want {
				t.Errorf("messages = %+v, want body %q", msgs, tt.want)
			}
		})
	}
}

func TestCollectTokensRequireExpo(t *testing.T) {
	users := []models.UserTokens{
		{Tokens: []string{"ExponentPushToken[abc]", "garbage", "ExponentPushToken[def]", " ExponentPushToken[abc] "}},
	}
	got := CollectTokens(users, true)
	want := []string{"ExponentPushToken[abc]", "ExponentPushToken[def]"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectTokens = %v, want %v", got, want)
	}
}

func TestOnChallengeUpdatedLedgerSkipsRedelivery(t *testing.T) {
	users := &fakeRegistry{users: []models.UserTokens{{Tokens: []any{"token-1"}}}}
	sender := &fakeSender{}
	ledger := &fakeLedger{claims: map[string]bool{}}
	trigger := newChallengeTrigger(users, sender, ledger)

	before := map[string]any{"startAt": nil}
	after := map[string]any{"startAt": time.Now()}
	for i := 0; i < 2; i++ {
		if err := trigger.OnChallengeUpdated(context.Background(), "c9", before, after); err != nil {
			t.Fatalf("delivery %d error = %v", i, err)
		}
	}
	if len(sender.calls) != 1 {
		t.Errorf("sends = %d, want 1 for a redelivered event", len(sender.calls))
	}
}

func TestOnChallengeUpdatedReleasesClaimOnFailure(t *testing.T) {
	boom := errors.New("gateway down")
	users := &fakeRegistry{users: []models.UserTokens{{Tokens: []any{"token-1"}}}}
	sender := &fakeSender{err: boom}
	ledger := &fakeLedger{claims: map[string]bool{}}
	trigger := newChallengeTrigger(users, sender, ledger)

	before := map[string]any{"startAt": nil}
	after := map[string]any{"startAt": time.Now()}
	err := trigger.OnChallengeUpdated(context.Background(), "c10", before, after)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
	if len(ledger.released) != 1 || ledger.released[0] != models.ChallengeActivatedKey("c10") {
		t.Errorf("released = %v", ledger.released)
	}

	sender.err = nil
	if err := trigger.OnChallengeUpdated(context.Background(), "c10", before, after); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if len(sender.calls) != 2 {
		t.Errorf("sends = %d, want the retry to send again", len(sender.calls))
	}
}

func TestOnChallengeUpdatedReleasesClaimAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	users := &fakeRegistry{users: []models.UserTokens{{Tokens: []any{"token-1"}}}}
	sender := &fakeSender{err: context.Canceled, onSend: cancel}
	ledger := &fakeLedger{claims: map[string]bool{}}
	trigger := newChallengeTrigger(users, sender, ledger)

	before := map[string]any{"startAt": nil}
	after := map[string]any{"startAt": time.Now()}
	if err := trigger.OnChallengeUpdated(ctx, "c12", before, after); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if ledger.claims[models.ChallengeActivatedKey("c12")] {
		t.Fatalf("claim kept after cancelled send: %v", ledger.claims)
	}

	sender.err, sender.onSend = nil, nil
	if err := trigger.OnChallengeUpdated(context.Background(), "c12", before, after); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if len(sender.calls) != 2 {
		t.Errorf("sends = %d, want the retry to send again", len(sender.calls))
	}
}

func TestOnChallengeUpdatedRegistryErrorPropagates(t *testing.T) {
	boom := errors.New("users unavailable")
	sender := &fakeSender{}
	trigger := newChallengeTrigger(&fakeRegistry{err: boom}, sender, nil)

	err := trigger.OnChallengeUpdated(context.Background(), "c11",
		map[string]any{}, map[string]any{"startAt": time.Now()})
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
	if len(sender.calls) != 0 {
		t.Error("nothing should be sent when the registry read fails")
	}
}
