package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/promostack/discount-engine/internal/domain"
	"github.com/promostack/discount-engine/internal/repository"
	"github.com/promostack/discount-engine/pkg/database"
	apperrors "github.com/promostack/discount-engine/pkg/errors"
)

// StackRepository implements repository.StackRepository using PostgreSQL.
// Rules are stored as a JSONB document alongside the stack row, so a stack
// and its rules are always read and written atomically.
type StackRepository struct {
	db database.DBTX
}

// NewStackRepository creates a new PostgreSQL-backed stack repository.
func NewStackRepository(db database.DBTX) *StackRepository {
	return &StackRepository{db: db}
}

// Create inserts a new discount stack into the database.
func (r *StackRepository) Create(ctx context.Context, s *domain.DiscountStack) error {
	rulesJSON, err := json.Marshal(s.Rules)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}

	query := `
		INSERT INTO discount_stacks (
			id, shop_id, name, description, is_active, stop_on_first_failure,
			start_date, end_date, rules, current_usage_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	ctx, end := database.TraceQuery(ctx, "CreateStack", query)
	_, err = r.db.Exec(ctx, query,
		s.ID,
		s.ShopID,
		s.Name,
		s.Description,
		s.IsActive,
		s.StopOnFirstFailure,
		s.StartDate,
		s.EndDate,
		rulesJSON,
		s.CurrentUsageCount,
		s.CreatedAt,
		s.UpdatedAt,
	)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("discount stack", "name", s.Name)
		}
		return fmt.Errorf("insert discount stack: %w", err)
	}

	return nil
}

// GetByID retrieves a discount stack by its ID.
func (r *StackRepository) GetByID(ctx context.Context, id string) (*domain.DiscountStack, error) {
	query := `
		SELECT id, shop_id, name, description, is_active, stop_on_first_failure,
			   start_date, end_date, rules, current_usage_count, created_at, updated_at
		FROM discount_stacks
		WHERE id = $1`

	var (
		s         domain.DiscountStack
		rulesJSON []byte
	)

	ctx, end := database.TraceQuery(ctx, "GetStack", query)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.ShopID,
		&s.Name,
		&s.Description,
		&s.IsActive,
		&s.StopOnFirstFailure,
		&s.StartDate,
		&s.EndDate,
		&rulesJSON,
		&s.CurrentUsageCount,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan discount stack: %w", err)
	}

	if rulesJSON != nil {
		if err := json.Unmarshal(rulesJSON, &s.Rules); err != nil {
			return nil, fmt.Errorf("unmarshal rules: %w", err)
		}
	}
	if s.Rules == nil {
		s.Rules = []domain.DiscountRule{}
	}

	return &s, nil
}

// List returns discount stacks matching the given filter with the total count.
func (r *StackRepository) List(ctx context.Context, filter repository.StackFilter) ([]domain.DiscountStack, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.ShopID != nil {
		conditions = append(conditions, fmt.Sprintf("shop_id = $%d", argIndex))
		args = append(args, *filter.ShopID)
		argIndex++
	}

	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, *filter.IsActive)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, shop_id, name, description, is_active, stop_on_first_failure,
			   start_date, end_date, rules, current_usage_count, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM discount_stacks
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "ListStacks", query)
	rows, err := r.db.Query(ctx, query, args...)
	end(err)
	if err != nil {
		return nil, 0, fmt.Errorf("list discount stacks: %w", err)
	}
	defer rows.Close()

	var (
		stacks     []domain.DiscountStack
		totalCount int
	)

	for rows.Next() {
		var (
			s         domain.DiscountStack
			rulesJSON []byte
		)

		if err := rows.Scan(
			&s.ID,
			&s.ShopID,
			&s.Name,
			&s.Description,
			&s.IsActive,
			&s.StopOnFirstFailure,
			&s.StartDate,
			&s.EndDate,
			&rulesJSON,
			&s.CurrentUsageCount,
			&s.CreatedAt,
			&s.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan discount stack row: %w", err)
		}

		if rulesJSON != nil {
			if err := json.Unmarshal(rulesJSON, &s.Rules); err != nil {
				return nil, 0, fmt.Errorf("unmarshal rules: %w", err)
			}
		}
		if s.Rules == nil {
			s.Rules = []domain.DiscountRule{}
		}

		stacks = append(stacks, s)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate discount stack rows: %w", err)
	}

	if stacks == nil {
		stacks = []domain.DiscountStack{}
	}

	return stacks, totalCount, nil
}

// Update modifies an existing discount stack in the database.
func (r *StackRepository) Update(ctx context.Context, s *domain.DiscountStack) error {
	rulesJSON, err := json.Marshal(s.Rules)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}

	s.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE discount_stacks
		SET name = $1, description = $2, is_active = $3, stop_on_first_failure = $4,
		    start_date = $5, end_date = $6, rules = $7, updated_at = $8
		WHERE id = $9`

	ctx, end := database.TraceQuery(ctx, "UpdateStack", query)
	ct, err := r.db.Exec(ctx, query,
		s.Name,
		s.Description,
		s.IsActive,
		s.StopOnFirstFailure,
		s.StartDate,
		s.EndDate,
		rulesJSON,
		s.UpdatedAt,
		s.ID,
	)
	end(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("discount stack", "name", s.Name)
		}
		return fmt.Errorf("update discount stack: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("discount stack", s.ID)
	}

	return nil
}

// Delete removes a discount stack by its ID.
func (r *StackRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM discount_stacks WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteStack", query)
	ct, err := r.db.Exec(ctx, query, id)
	end(err)
	if err != nil {
		return fmt.Errorf("delete discount stack: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("discount stack", id)
	}

	return nil
}

// SetActive flips the is_active flag of a stack.
func (r *StackRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `
		UPDATE discount_stacks
		SET is_active = $1, updated_at = NOW()
		WHERE id = $2`

	ctx, end := database.TraceQuery(ctx, "SetStackActive", query)
	ct, err := r.db.Exec(ctx, query, active, id)
	end(err)
	if err != nil {
		return fmt.Errorf("set discount stack active: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("discount stack", id)
	}

	return nil
}

// IncrementUsage atomically increments the current_usage_count of a stack.
func (r *StackRepository) IncrementUsage(ctx context.Context, id string) error {
	query := `
		UPDATE discount_stacks
		SET current_usage_count = current_usage_count + 1, updated_at = NOW()
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "IncrementStackUsage", query)
	ct, err := r.db.Exec(ctx, query, id)
	end(err)
	if err != nil {
		return fmt.Errorf("increment stack usage: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("discount stack", id)
	}

	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
