package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/martpos/inventory-service/internal/platform/broker"
)

const (
	TypeProductCreated = "product.created"
	TypeProductUpdated = "product.updated"
	TypeStockAdjusted  = "stock.adjusted"
)

type Envelope struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	TenantID  string    `json:"tenant_id"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

type ProductPayload struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
}

type StockPayload struct {
	ProductID      string  `json:"product_id"`
	MovementID     string  `json:"movement_id"`
	MovementType   string  `json:"movement_type"`
	QuantityChange float64 `json:"quantity_change"`
	QuantityAfter  float64 `json:"quantity_after"`
}

// Publisher is fire-and-forget: delivery failures are logged, never
// propagated. Transactional guarantees do not extend to event delivery.
type Publisher interface {
	Emit(eventType, tenantID string, payload any)
}

type kafkaPublisher struct {
	producer *broker.KafkaProducer
	logger   *zap.Logger
}

func NewKafkaPublisher(producer *broker.KafkaProducer, logger *zap.Logger) Publisher {
	return &kafkaPublisher{producer: producer, logger: logger}
}

func (p *kafkaPublisher) Emit(eventType, tenantID string, payload any) {
	env := Envelope{
		EventID:   uuid.New().String(),
		EventType: eventType,
		TenantID:  tenantID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("failed to marshal event", zap.String("event_type", eventType), zap.Error(err))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.producer.Publish(ctx, tenantID, data); err != nil {
			p.logger.Error("failed to publish event",
				zap.String("event_type", eventType),
				zap.String("tenant_id", tenantID),
				zap.Error(err),
			)
		}
	}()
}

// Nop discards all events. Used in tests and when Kafka is not configured.
type Nop struct{}

func (Nop) Emit(string, string, any) {}
