package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/promostack/discount-engine/internal/cache"
	"github.com/promostack/discount-engine/internal/domain"
	"github.com/promostack/discount-engine/internal/engine"
	"github.com/promostack/discount-engine/internal/event"
	"github.com/promostack/discount-engine/internal/metrics"
	"github.com/promostack/discount-engine/internal/repository"
	apperrors "github.com/promostack/discount-engine/pkg/errors"
)

// DiscountService implements the business logic for discount-stack
// operations: CRUD with normalization and validation, and cart evaluation.
type DiscountService struct {
	repo      repository.StackRepository
	cache     *cache.StackCache
	producer  *event.Producer
	evaluator *engine.Evaluator
	logger    *slog.Logger
}

// NewDiscountService creates a new discount service. The cache may be nil,
// in which case all reads go straight to the repository.
func NewDiscountService(
	repo repository.StackRepository,
	stackCache *cache.StackCache,
	producer *event.Producer,
	logger *slog.Logger,
) *DiscountService {
	return &DiscountService{
		repo:      repo,
		cache:     stackCache,
		producer:  producer,
		evaluator: engine.NewEvaluator(logger),
		logger:    logger,
	}
}

// RuleInput holds one discount rule as submitted by a client. BOGO
// configurations arrive raw and are normalized before validation.
type RuleInput struct {
	Type       string                  `json:"type"`
	Value      float64                 `json:"value"`
	Priority   int                     `json:"priority"`
	IsActive   *bool                   `json:"is_active"`
	Conditions *domain.RuleConditions  `json:"conditions"`
	BogoConfig *engine.BogoConfigInput `json:"bogo_config"`
}

// CreateStackInput holds the parameters for creating a discount stack.
type CreateStackInput struct {
	ShopID             string
	Name               string
	Description        string
	IsActive           *bool
	StopOnFirstFailure bool
	StartDate          *time.Time
	EndDate            *time.Time
	Rules              []RuleInput
}

// UpdateStackInput holds the parameters for updating a discount stack.
// Nil fields are left unchanged; a non-nil Rules slice replaces the rule
// set wholesale.
type UpdateStackInput struct {
	Name               *string
	Description        *string
	IsActive           *bool
	StopOnFirstFailure *bool
	StartDate          *time.Time
	EndDate            *time.Time
	Rules              []RuleInput
}

// buildRules converts rule inputs into domain rules, assigning IDs and
// normalizing every BOGO configuration. Normalization is deliberately done
// before validation so validation always sees canonical configs.
func buildRules(inputs []RuleInput) []domain.DiscountRule {
	rules := make([]domain.DiscountRule, 0, len(inputs))
	for _, in := range inputs {
		rule := domain.DiscountRule{
			ID:         uuid.New().String(),
			Type:       in.Type,
			Value:      in.Value,
			Priority:   in.Priority,
			IsActive:   true,
			Conditions: in.Conditions,
		}
		if in.IsActive != nil {
			rule.IsActive = *in.IsActive
		}

		if in.Type == domain.RuleTypeBuyXGetY {
			var raw engine.BogoConfigInput
			if in.BogoConfig != nil {
				raw = *in.BogoConfig
			}
			cfg := engine.NormalizeBogoConfig(raw, in.Value)
			rule.BogoConfig = &cfg
		}

		rules = append(rules, rule)
	}
	return rules
}

// CreateStack validates and persists a new discount stack.
func (s *DiscountService) CreateStack(ctx context.Context, input *CreateStackInput) (*domain.DiscountStack, error) {
	rules := buildRules(input.Rules)

	if errs := domain.ValidateStack(input.Name, rules); len(errs) > 0 {
		return nil, apperrors.InvalidInput(strings.Join(errs, "; "))
	}

	if input.StartDate != nil && input.EndDate != nil && !input.EndDate.After(*input.StartDate) {
		return nil, apperrors.InvalidInput("end date must be after start date")
	}

	now := time.Now().UTC()
	stack := &domain.DiscountStack{
		ID:                 uuid.New().String(),
		ShopID:             input.ShopID,
		Name:               input.Name,
		Description:        input.Description,
		IsActive:           true,
		StopOnFirstFailure: input.StopOnFirstFailure,
		StartDate:          input.StartDate,
		EndDate:            input.EndDate,
		Rules:              rules,
		CurrentUsageCount:  0,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if input.IsActive != nil {
		stack.IsActive = *input.IsActive
	}

	if err := s.repo.Create(ctx, stack); err != nil {
		return nil, fmt.Errorf("create discount stack: %w", err)
	}

	if err := s.producer.PublishStackCreated(ctx, stack); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish stack.created event",
			slog.String("stack_id", stack.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "discount stack created",
		slog.String("stack_id", stack.ID),
		slog.String("shop_id", stack.ShopID),
		slog.Int("rule_count", len(stack.Rules)),
	)

	return stack, nil
}

// GetStack retrieves a discount stack by its ID, consulting the cache first.
func (s *DiscountService) GetStack(ctx context.Context, id string) (*domain.DiscountStack, error) {
	if s.cache != nil {
		if stack, ok := s.cache.Get(ctx, id); ok {
			metrics.CacheHits.Inc()
			return stack, nil
		}
		metrics.CacheMisses.Inc()
	}

	stack, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get discount stack by id: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, stack)
	}

	return stack, nil
}

// ListStacks returns a filtered, paginated list of discount stacks.
func (s *DiscountService) ListStacks(ctx context.Context, filter repository.StackFilter) ([]domain.DiscountStack, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	stacks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list discount stacks: %w", err)
	}

	return stacks, total, nil
}

// UpdateStack applies partial updates to an existing discount stack. A
// non-nil rule set is normalized and the whole stack is re-validated before
// persisting.
func (s *DiscountService) UpdateStack(ctx context.Context, id string, input *UpdateStackInput) (*domain.DiscountStack, error) {
	stack, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get discount stack for update: %w", err)
	}

	if input.Name != nil {
		stack.Name = *input.Name
	}
	if input.Description != nil {
		stack.Description = *input.Description
	}
	if input.IsActive != nil {
		stack.IsActive = *input.IsActive
	}
	if input.StopOnFirstFailure != nil {
		stack.StopOnFirstFailure = *input.StopOnFirstFailure
	}
	if input.StartDate != nil {
		stack.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		stack.EndDate = input.EndDate
	}
	if input.Rules != nil {
		stack.Rules = buildRules(input.Rules)
	}

	if errs := domain.ValidateStack(stack.Name, stack.Rules); len(errs) > 0 {
		return nil, apperrors.InvalidInput(strings.Join(errs, "; "))
	}

	if stack.StartDate != nil && stack.EndDate != nil && !stack.EndDate.After(*stack.StartDate) {
		return nil, apperrors.InvalidInput("end date must be after start date")
	}

	if err := s.repo.Update(ctx, stack); err != nil {
		return nil, fmt.Errorf("update discount stack: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, stack.ID)
	}

	if err := s.producer.PublishStackUpdated(ctx, stack); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish stack.updated event",
			slog.String("stack_id", stack.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "discount stack updated",
		slog.String("stack_id", stack.ID),
		slog.Int("rule_count", len(stack.Rules)),
	)

	return stack, nil
}

// DeleteStack removes a discount stack.
func (s *DiscountService) DeleteStack(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete discount stack: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}

	s.logger.InfoContext(ctx, "discount stack deleted",
		slog.String("stack_id", id),
	)

	return nil
}

// ActivateStack enables a stack for evaluation.
func (s *DiscountService) ActivateStack(ctx context.Context, id string) error {
	return s.setActive(ctx, id, true)
}

// DeactivateStack disables a stack without deleting it.
func (s *DiscountService) DeactivateStack(ctx context.Context, id string) error {
	return s.setActive(ctx, id, false)
}

func (s *DiscountService) setActive(ctx context.Context, id string, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("set discount stack active state: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}

	s.logger.InfoContext(ctx, "discount stack active state changed",
		slog.String("stack_id", id),
		slog.Bool("is_active", active),
	)

	return nil
}

// ValidateRules runs stack validation against a candidate definition without
// persisting anything. BOGO configurations are normalized first, exactly as
// they would be on create.
func (s *DiscountService) ValidateRules(name string, inputs []RuleInput) []string {
	errs := domain.ValidateStack(name, buildRules(inputs))
	if errs == nil {
		errs = []string{}
	}
	return errs
}

// EvaluateStack loads a stack, checks that it is active and inside its
// validity window, and evaluates it against the given cart context. Each
// successful evaluation increments the stack's usage counter and emits a
// stack.evaluated event.
func (s *DiscountService) EvaluateStack(ctx context.Context, id string, evalCtx engine.EvalContext) (*engine.OrderSummary, error) {
	start := time.Now()

	stack, err := s.GetStack(ctx, id)
	if err != nil {
		metrics.StackEvaluations.WithLabelValues("not_found").Inc()
		return nil, err
	}

	if !stack.IsActive {
		metrics.StackEvaluations.WithLabelValues("inactive").Inc()
		return nil, apperrors.InvalidInput("discount stack is not active")
	}

	if !stack.WithinValidityWindow(time.Now().UTC()) {
		metrics.StackEvaluations.WithLabelValues("outside_window").Inc()
		return nil, apperrors.InvalidInput("discount stack is outside its validity window")
	}

	summary := s.evaluator.Evaluate(stack, evalCtx)

	for _, d := range summary.AppliedDiscounts {
		metrics.RulesApplied.WithLabelValues(d.Type).Inc()
	}
	for _, d := range summary.SkippedDiscounts {
		metrics.RulesSkipped.WithLabelValues(d.Type).Inc()
	}
	metrics.StackEvaluations.WithLabelValues("evaluated").Inc()
	metrics.EvaluationDuration.Observe(time.Since(start).Seconds())

	if err := s.repo.IncrementUsage(ctx, stack.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to increment stack usage count",
			slog.String("stack_id", stack.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishStackEvaluated(ctx, stack, event.StackEvaluatedData{
		StackID:             stack.ID,
		ShopID:              stack.ShopID,
		OriginalPrice:       summary.OriginalPrice,
		FinalTotal:          summary.FinalTotal,
		TotalDiscountAmount: summary.TotalDiscountAmount,
		AppliedRuleCount:    len(summary.AppliedDiscounts),
		SkippedRuleCount:    len(summary.SkippedDiscounts),
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish stack.evaluated event",
			slog.String("stack_id", stack.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "discount stack evaluated",
		slog.String("stack_id", stack.ID),
		slog.Float64("original_price", summary.OriginalPrice),
		slog.Float64("final_total", summary.FinalTotal),
		slog.Int("applied_rules", len(summary.AppliedDiscounts)),
		slog.Int("skipped_rules", len(summary.SkippedDiscounts)),
	)

	return summary, nil
}
