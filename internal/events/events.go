// Package events publishes account lifecycle events to the configured
// message broker. Publishing is best-effort: failures are logged and
// returned so callers can ignore them without interrupting the request.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/accounthub/apiserver/internal/mq"
	"github.com/accounthub/apiserver/types"
	"go.uber.org/zap"
)

const (
	// ChannelRegistered carries events for newly created accounts.
	ChannelRegistered = "account.registered"
	// ChannelLoggedIn carries events for successful logins.
	ChannelLoggedIn = "account.logged_in"
)

// AccountEvent is the JSON payload published for account lifecycle changes.
type AccountEvent struct {
	Event      string    `json:"event"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher emits account events over an mq backend. A nil Publisher or a
// Publisher without a broker silently drops events, which keeps the account
// flows independent of broker availability.
type Publisher struct {
	broker *mq.MQ
	logger *zap.Logger
}

// NewPublisher constructs a Publisher. broker may be nil when no backend
// is configured.
func NewPublisher(broker *mq.MQ, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{broker: broker, logger: logger}
}

// AccountRegistered publishes an event for a freshly created account.
func (p *Publisher) AccountRegistered(ctx context.Context, user types.User) error {
	return p.publish(ctx, ChannelRegistered, AccountEvent{
		Event:      ChannelRegistered,
		UserID:     user.ID.String(),
		Username:   user.Username,
		Email:      user.Email,
		OccurredAt: user.CreatedAt,
	})
}

// AccountLoggedIn publishes an event for a successful login.
func (p *Publisher) AccountLoggedIn(ctx context.Context, user types.User, at time.Time) error {
	return p.publish(ctx, ChannelLoggedIn, AccountEvent{
		Event:      ChannelLoggedIn,
		UserID:     user.ID.String(),
		Username:   user.Username,
		Email:      user.Email,
		OccurredAt: at,
	})
}

func (p *Publisher) publish(ctx context.Context, channel string, event AccountEvent) error {
	if p == nil || p.broker == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal account event failed", zap.String("channel", channel), zap.Error(err))
		return err
	}
	if _, err := p.broker.Publish(ctx, channel, body, map[string]string{"event": event.Event}); err != nil {
		p.logger.Warn("publish account event failed", zap.String("channel", channel), zap.Error(err))
		return err
	}
	return nil
}
