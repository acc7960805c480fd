package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/repository/memory"
)

func TestStoreNotifierPersistsAndPublishes(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := memory.New()
	n := NewStoreNotifier(store.Repositories().Notification, rdb, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	userID, orderID := uuid.New(), uuid.New()
	sub := rdb.Subscribe(ctx, ChannelFor(userID))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	rec, err := n.NotifyOrderEvent(ctx, userID, models.NotificationOrderStatusChanged, orderID, "ORD-11",
		models.Metadata{"status": "in_transit"}, true)
	require.NoError(t, err)
	assert.Equal(t, "Order ORD-11 is now in transit.", rec.Message)
	require.NoError(t, n.Deliver(ctx, userID, rec))

	select {
	case msg := <-sub.Channel():
		var got models.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, rec.ID, got.ID)
		assert.True(t, got.IsCustomer)
	case <-ctx.Done():
		t.Fatal("notification was not published")
	}

	stored := store.Notifications()
	require.Len(t, stored, 1)
	assert.Equal(t, "ORD-11", stored[0].OrderNumber)
}

func TestStoreNotifierWithoutRedis(t *testing.T) {
	n := NewStoreNotifier(memory.New().Repositories().Notification, nil, nil)
	rec, err := n.NotifyOrderEvent(context.Background(), uuid.New(), models.NotificationOrderPlaced, uuid.New(), "ORD-12", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "You have a new order ORD-12.", rec.Message)
	assert.NoError(t, n.Deliver(context.Background(), rec.UserID, rec))
}
