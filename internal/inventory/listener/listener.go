package listener

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/martpos/inventory-service/internal/inventory"
	"github.com/martpos/inventory-service/internal/inventory/dto"
	"github.com/martpos/inventory-service/internal/model"
	"github.com/martpos/inventory-service/internal/platform/broker"
)

// OrderListener deducts stock when the order service reports a sale. The
// deduction goes through the same locked adjustment path as manual changes,
// so the ledger and the non-negative rule hold here too.
type OrderListener struct {
	consumer *broker.KafkaConsumer
	uc       inventory.UseCase
	logger   *zap.Logger
}

func NewOrderListener(consumer *broker.KafkaConsumer, uc inventory.UseCase, logger *zap.Logger) *OrderListener {
	return &OrderListener{consumer: consumer, uc: uc, logger: logger}
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("starting order events listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping order events listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("failed to read kafka message", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type orderCreatedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	TenantID  string       `json:"tenant_id"`
	Payload   orderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type orderPayload struct {
	ID         string      `json:"id"`
	LocationID *string     `json:"location_id"`
	Items      []orderItem `json:"items"`
}

type orderItem struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

func (l *OrderListener) processMessage(ctx context.Context, value []byte) {
	var event orderCreatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("failed to unmarshal order event", zap.Error(err))
		return
	}

	if event.EventType != "order.created" {
		return
	}

	l.logger.Info("processing order.created",
		zap.String("order_id", event.Payload.ID),
		zap.String("tenant_id", event.TenantID),
	)

	for _, item := range event.Payload.Items {
		input := &dto.AdjustStockInput{
			TenantID:       event.TenantID,
			ProductID:      item.ProductID,
			LocationID:     event.Payload.LocationID,
			QuantityChange: -item.Quantity,
			MovementType:   model.MovementSale,
			Reason:         "order sale",
			ReferenceID:    event.Payload.ID,
			ReferenceType:  "order",
			UserID:         "system",
		}

		if _, err := l.uc.AdjustStock(ctx, input); err != nil {
			l.logger.Error("failed to deduct stock for order item",
				zap.String("order_id", event.Payload.ID),
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)
		}
	}
}
