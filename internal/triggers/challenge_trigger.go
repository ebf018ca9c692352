package triggers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anonto42/henstagram/backend/internal/models"
	"github.com/anonto42/henstagram/backend/internal/repositories"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
)

const (
	ActivationTitle        = "New challenge 🔥"
	ActivationFallbackBody = "A new challenge is live!"
	DefaultDeepLinkScheme  = "henstagrammobile"

	// releaseTimeout bounds the ledger release after a failed send. The
	// release runs detached from the request context, which may already be
	// cancelled by then.
	releaseTimeout = 10 * time.Second
)

// Sender delivers push messages. *push.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, messages []models.PushMessage) error
}

// ChallengeConfig tunes the activation push.
type ChallengeConfig struct {
	DeepLinkScheme string
	// RequireExpoTokens drops registry entries that are not well formed Expo
	// push tokens.
	RequireExpoTokens bool
}

// ChallengeTrigger notifies every registered device when a challenge goes
// from draft to active.
type ChallengeTrigger struct {
	users  repositories.TokenRegistry
	sender Sender
	ledger repositories.NotificationLedger
	cfg    ChallengeConfig
	logger *log.Logger
	now    func() time.Time
}

// NewChallengeTrigger creates a new ChallengeTrigger. ledger may be nil, in
// which case a redelivered activation event sends again.
func NewChallengeTrigger(users repositories.TokenRegistry, sender Sender, ledger repositories.NotificationLedger, cfg ChallengeConfig, logger *log.Logger) *ChallengeTrigger {
	if cfg.DeepLinkScheme == "" {
		cfg.DeepLinkScheme = DefaultDeepLinkScheme
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ChallengeTrigger{
		users:  users,
		sender: sender,
		ledger: ledger,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// OnChallengeUpdated runs after any update of challenges/{challengeId}. It
// only acts on the write that set startAt for the first time.
func (t *ChallengeTrigger) OnChallengeUpdated(ctx context.Context, challengeID string, before, after map[string]any) error {
	if before == nil || after == nil {
		return nil
	}
	now := t.now()
	t.logger.Printf("[challenges] %s updated: %s -> %s", challengeID,
		models.ChallengeStateOf(before, now), models.ChallengeStateOf(after, now))

	if !models.IsActivation(before, after) {
		return nil
	}

	key := models.ChallengeActivatedKey(challengeID)
	if t.ledger != nil {
		claimed, err := t.ledger.Claim(ctx, key, models.ClaimChallengeActivated, challengeID)
		if err != nil {
			return fmt.Errorf("failed to claim activation of challenge %s: %w", challengeID, err)
		}
		if !claimed {
			t.logger.Printf("[challenges] %s: activation already notified, skipping", challengeID)
			return nil
		}
	}

	if err := t.notify(ctx, challengeID, after); err != nil {
		if t.ledger != nil {
			t.release(ctx, challengeID, key)
		}
		return err
	}
	return nil
}

func (t *ChallengeTrigger) release(ctx context.Context, challengeID, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := t.ledger.Release(ctx, key); err != nil {
		t.logger.Printf("[challenges] %s: failed to release claim: %v", challengeID, err)
	}
}

func (t *ChallengeTrigger) notify(ctx context.Context, challengeID string, after map[string]any) error {
	users, err := t.users.ListUserTokens(ctx)
	if err != nil {
		return fmt.Errorf("failed to list push tokens: %w", err)
	}

	tokens := CollectTokens(users, t.cfg.RequireExpoTokens)
	messages := ActivationMessages(challengeID, after, tokens, t.cfg.DeepLinkScheme)
	t.logger.Printf("[challenges] %s: sending push to %d tokens", challengeID, len(messages))

	if err := t.sender.Send(ctx, messages); err != nil {
		return fmt.Errorf("failed to push activation of challenge %s: %w", challengeID, err)
	}
	return nil
}

// CollectTokens returns every usable token once, trimmed, in user then list
// order. A token field that is not a list is ignored, as are entries that are
// not strings or are blank.
func CollectTokens(users []models.UserTokens, requireExpo bool) []string {
	seen := make(map[string]struct{})
	var tokens []string
	for _, user := range users {
		for _, raw := range tokenList(user.Tokens) {
			token, ok := raw.(string)
			if !ok {
				continue
			}
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			if requireExpo {
				if _, err := expo.NewExponentPushToken(token); err != nil {
					continue
				}
			}
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func tokenList(v any) []any {
	switch list := v.(type) {
	case []any:
		return list
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
	default:
		return nil
	}
}

// ActivationMessages builds one message per token announcing the challenge.
func ActivationMessages(challengeID string, challenge map[string]any, tokens []string, scheme string) []models.PushMessage {
	body := ActivationFallbackBody
	if title, ok := challenge[models.TitleField].(string); ok && title != "" {
		body = title
	}

	messages := make([]models.PushMessage, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, models.PushMessage{
			To:    token,
			Title: ActivationTitle,
			Body:  body,
			Data: map[string]any{
				"challengeId": challengeID,
				"url":         ChallengeURL(scheme, challengeID),
			},
			Sound: models.SoundDefault,
		})
	}
	return messages
}

// ChallengeURL is the deep link the mobile app opens for a challenge.
func ChallengeURL(scheme, challengeID string) string {
	return scheme + "://challenge/" + challengeID
}
