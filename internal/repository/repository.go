package repository

import (
	"context"

	"github.com/promostack/discount-engine/internal/domain"
)

// StackFilter defines filter criteria for listing discount stacks.
type StackFilter struct {
	ShopID   *string
	IsActive *bool
	Page     int
	PerPage  int
}

// StackRepository defines the interface for discount-stack persistence
// operations.
type StackRepository interface {
	// Create inserts a new discount stack into the store.
	Create(ctx context.Context, stack *domain.DiscountStack) error

	// GetByID retrieves a discount stack by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.DiscountStack, error)

	// List returns stacks matching the given filter along with the total count.
	List(ctx context.Context, filter StackFilter) ([]domain.DiscountStack, int, error)

	// Update modifies an existing discount stack in the store.
	Update(ctx context.Context, stack *domain.DiscountStack) error

	// Delete removes a discount stack by its ID.
	Delete(ctx context.Context, id string) error

	// SetActive flips the is_active flag of a stack.
	SetActive(ctx context.Context, id string, active bool) error

	// IncrementUsage atomically increments the current_usage_count of a stack.
	IncrementUsage(ctx context.Context, id string) error
}
