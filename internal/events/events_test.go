package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/accounthub/apiserver/internal/mq"
	"github.com/accounthub/apiserver/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingBackend struct {
	channels []string
	bodies   [][]byte
}

func (b *capturingBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.channels = append(b.channels, channel)
	b.bodies = append(b.bodies, data)
	return "msg-1", nil
}

func (b *capturingBackend) Subscribe(ctx context.Context, channel string, handler mq.Handler) error {
	return nil
}

func (b *capturingBackend) Close() error { return nil }

func TestPublishesRegisteredEvent(t *testing.T) {
	backend := &capturingBackend{}
	publisher := NewPublisher(mq.New(backend), nil)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	user := types.User{
		ID:        uuid.New(),
		Username:  "alice",
		Email:     "alice@example.com",
		CreatedAt: created,
	}
	require.NoError(t, publisher.AccountRegistered(context.Background(), user))

	require.Len(t, backend.channels, 1)
	assert.Equal(t, ChannelRegistered, backend.channels[0])

	var event AccountEvent
	require.NoError(t, json.Unmarshal(backend.bodies[0], &event))
	assert.Equal(t, ChannelRegistered, event.Event)
	assert.Equal(t, user.ID.String(), event.UserID)
	assert.Equal(t, "alice", event.Username)
	assert.True(t, event.OccurredAt.Equal(created))
}

func TestPublishesLoggedInEvent(t *testing.T) {
	backend := &capturingBackend{}
	publisher := NewPublisher(mq.New(backend), nil)

	at := time.Now().UTC()
	user := types.User{ID: uuid.New(), Username: "bob", Email: "bob@example.com"}
	require.NoError(t, publisher.AccountLoggedIn(context.Background(), user, at))

	require.Len(t, backend.channels, 1)
	assert.Equal(t, ChannelLoggedIn, backend.channels[0])
}

func TestNoBrokerDropsEvents(t *testing.T) {
	publisher := NewPublisher(nil, nil)

	err := publisher.AccountRegistered(context.Background(), types.User{ID: uuid.New()})
	assert.NoError(t, err)
}
