package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/promostack/discount-engine/internal/domain"
	pkgkafka "github.com/promostack/discount-engine/pkg/kafka"
)

// Kafka topics for discount-stack domain events.
var (
	TopicStackCreated   = pkgkafka.Topic("stack", "created")
	TopicStackUpdated   = pkgkafka.Topic("stack", "updated")
	TopicStackEvaluated = pkgkafka.Topic("stack", "evaluated")
)

// Aggregate type constant.
const AggregateTypeStack = "discount_stack"

// Source identifier for events originating from the discount engine.
const SourceDiscountEngine = "discount-engine"

// StackCreatedData is the payload for a stack.created event.
type StackCreatedData struct {
	ID        string `json:"id"`
	ShopID    string `json:"shop_id"`
	Name      string `json:"name"`
	IsActive  bool   `json:"is_active"`
	RuleCount int    `json:"rule_count"`
}

// StackUpdatedData is the payload for a stack.updated event.
type StackUpdatedData struct {
	ID        string `json:"id"`
	ShopID    string `json:"shop_id"`
	Name      string `json:"name"`
	IsActive  bool   `json:"is_active"`
	RuleCount int    `json:"rule_count"`
}

// StackEvaluatedData is the payload for a stack.evaluated event.
type StackEvaluatedData struct {
	StackID             string  `json:"stack_id"`
	ShopID              string  `json:"shop_id"`
	OriginalPrice       float64 `json:"original_price"`
	FinalTotal          float64 `json:"final_total"`
	TotalDiscountAmount float64 `json:"total_discount_amount"`
	AppliedRuleCount    int     `json:"applied_rule_count"`
	SkippedRuleCount    int     `json:"skipped_rule_count"`
}

// Producer publishes discount-stack domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the discount engine.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishStackCreated publishes a stack.created event.
func (p *Producer) PublishStackCreated(ctx context.Context, stack *domain.DiscountStack) error {
	data := StackCreatedData{
		ID:        stack.ID,
		ShopID:    stack.ShopID,
		Name:      stack.Name,
		IsActive:  stack.IsActive,
		RuleCount: len(stack.Rules),
	}

	event, err := pkgkafka.NewEvent(TopicStackCreated, stack.ID, AggregateTypeStack, SourceDiscountEngine, data)
	if err != nil {
		return fmt.Errorf("create stack.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicStackCreated, event); err != nil {
		return fmt.Errorf("publish stack.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published stack.created event",
		slog.String("stack_id", stack.ID),
		slog.String("shop_id", stack.ShopID),
	)

	return nil
}

// PublishStackUpdated publishes a stack.updated event.
func (p *Producer) PublishStackUpdated(ctx context.Context, stack *domain.DiscountStack) error {
	data := StackUpdatedData{
		ID:        stack.ID,
		ShopID:    stack.ShopID,
		Name:      stack.Name,
		IsActive:  stack.IsActive,
		RuleCount: len(stack.Rules),
	}

	event, err := pkgkafka.NewEvent(TopicStackUpdated, stack.ID, AggregateTypeStack, SourceDiscountEngine, data)
	if err != nil {
		return fmt.Errorf("create stack.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicStackUpdated, event); err != nil {
		return fmt.Errorf("publish stack.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published stack.updated event",
		slog.String("stack_id", stack.ID),
		slog.String("shop_id", stack.ShopID),
	)

	return nil
}

// PublishStackEvaluated publishes a stack.evaluated event summarizing one
// evaluation outcome.
func (p *Producer) PublishStackEvaluated(ctx context.Context, stack *domain.DiscountStack, data StackEvaluatedData) error {
	event, err := pkgkafka.NewEvent(TopicStackEvaluated, stack.ID, AggregateTypeStack, SourceDiscountEngine, data)
	if err != nil {
		return fmt.Errorf("create stack.evaluated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicStackEvaluated, event); err != nil {
		return fmt.Errorf("publish stack.evaluated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published stack.evaluated event",
		slog.String("stack_id", stack.ID),
		slog.String("shop_id", stack.ShopID),
	)

	return nil
}
