package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/models"
	"github.com/01moynul/taptosell-settlement/internal/repository"
)

// ChannelFor is the Redis channel the WebSocket gateway subscribes to for a user.
func ChannelFor(userID uuid.UUID) string {
	return "notifications:" + userID.String()
}

// StoreNotifier persists notifications and publishes them on Redis.
// A nil Redis client stores only.
type StoreNotifier struct {
	repo   repository.NotificationRepository
	rdb    *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewStoreNotifier(repo repository.NotificationRepository, rdb *redis.Client, logger *zap.Logger) *StoreNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreNotifier{repo: repo, rdb: rdb, logger: logger, now: time.Now}
}

func (s *StoreNotifier) NotifyOrderEvent(ctx context.Context, userID uuid.UUID, typ models.NotificationType, orderID uuid.UUID, orderNumber string, metadata models.Metadata, isCustomer bool) (*models.Notification, error) {
	id := orderID
	n := &models.Notification{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        typ,
		OrderID:     &id,
		OrderNumber: orderNumber,
		Message:     orderMessage(typ, orderNumber, metadata, isCustomer),
		Metadata:    metadata,
		IsCustomer:  isCustomer,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *StoreNotifier) Deliver(ctx context.Context, userID uuid.UUID, n *models.Notification) error {
	if s.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	receivers, err := s.rdb.Publish(ctx, ChannelFor(userID), payload).Result()
	if err != nil {
		return err
	}
	s.logger.Debug("Notification published", zap.String("user_id", userID.String()), zap.Int64("receivers", receivers))
	return nil
}

func orderMessage(typ models.NotificationType, orderNumber string, metadata models.Metadata, isCustomer bool) string {
	switch typ {
	case models.NotificationOrderPlaced:
		if isCustomer {
			return fmt.Sprintf("Your order %s has been placed.", orderNumber)
		}
		return fmt.Sprintf("You have a new order %s.", orderNumber)
	case models.NotificationOrderCancelled:
		return fmt.Sprintf("Order %s was cancelled.", orderNumber)
	case models.NotificationOrderReturned:
		return fmt.Sprintf("Order %s was returned.", orderNumber)
	default:
		if status, ok := metadata["status"].(string); ok && status != "" {
			return fmt.Sprintf("Order %s is now %s.", orderNumber, humanStatus(status))
		}
		return fmt.Sprintf("Order %s was updated.", orderNumber)
	}
}

func humanStatus(status string) string {
	if status == string(models.OrderStatusInTransit) {
		return "in transit"
	}
	return status
}
