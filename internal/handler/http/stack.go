package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/promostack/discount-engine/internal/engine"
	"github.com/promostack/discount-engine/internal/repository"
	"github.com/promostack/discount-engine/internal/service"
	"github.com/promostack/discount-engine/pkg/httputil"
	"github.com/promostack/discount-engine/pkg/validator"
)

// StackHandler handles HTTP requests for discount-stack endpoints.
type StackHandler struct {
	service *service.DiscountService
	logger  *slog.Logger
}

// NewStackHandler creates a new discount-stack HTTP handler.
func NewStackHandler(svc *service.DiscountService, logger *slog.Logger) *StackHandler {
	return &StackHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateStackRequest is the JSON request body for creating a discount stack.
// Rule-level constraints are checked by domain validation so their errors
// come back as one aggregated message.
type CreateStackRequest struct {
	ShopID             string              `json:"shop_id" validate:"max=100"`
	Name               string              `json:"name" validate:"required,min=1,max=255"`
	Description        string              `json:"description"`
	IsActive           *bool               `json:"is_active"`
	StopOnFirstFailure bool                `json:"stop_on_first_failure"`
	StartDate          *string             `json:"start_date"`
	EndDate            *string             `json:"end_date"`
	Rules              []service.RuleInput `json:"rules" validate:"required,min=1"`
}

// UpdateStackRequest is the JSON request body for updating a discount stack.
// A non-nil rules array replaces the stack's rule set wholesale.
type UpdateStackRequest struct {
	Name               *string             `json:"name" validate:"omitempty,min=1,max=255"`
	Description        *string             `json:"description"`
	IsActive           *bool               `json:"is_active"`
	StopOnFirstFailure *bool               `json:"stop_on_first_failure"`
	StartDate          *string             `json:"start_date"`
	EndDate            *string             `json:"end_date"`
	Rules              []service.RuleInput `json:"rules"`
}

// CartItemRequest is one cart line in an evaluation request.
type CartItemRequest struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// EvaluateStackRequest is the JSON request body for evaluating a stack
// against a cart snapshot.
type EvaluateStackRequest struct {
	Quantity        float64           `json:"quantity" validate:"gte=0"`
	OriginalPrice   float64           `json:"original_price" validate:"gte=0"`
	CartItems       []CartItemRequest `json:"cart_items"`
	ProductIDs      []string          `json:"product_ids"`
	CollectionIDs   []string          `json:"collection_ids"`
	CustomerSegment string            `json:"customer_segment"`
	ShippingCost    float64           `json:"shipping_cost" validate:"gte=0"`
	TaxRate         float64           `json:"tax_rate" validate:"gte=0,lte=1"`
}

// ValidateStackRequest is the JSON request body for dry-run validation.
type ValidateStackRequest struct {
	Name  string              `json:"name"`
	Rules []service.RuleInput `json:"rules"`
}

// ValidateStackResult is the response payload of dry-run validation.
type ValidateStackResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// --- Handlers ---

// CreateStack handles POST /api/v1/stacks
func (h *StackHandler) CreateStack(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req CreateStackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.CreateStackInput{
		ShopID:             req.ShopID,
		Name:               req.Name,
		Description:        req.Description,
		IsActive:           req.IsActive,
		StopOnFirstFailure: req.StopOnFirstFailure,
		Rules:              req.Rules,
	}

	if req.StartDate != nil {
		startDate, err := time.Parse(time.RFC3339, *req.StartDate)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "start_date must be in RFC3339 format"},
			})
			return
		}
		input.StartDate = &startDate
	}

	if req.EndDate != nil {
		endDate, err := time.Parse(time.RFC3339, *req.EndDate)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "end_date must be in RFC3339 format"},
			})
			return
		}
		input.EndDate = &endDate
	}

	stack, err := h.service.CreateStack(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: stack})
}

// ListStacks handles GET /api/v1/stacks
func (h *StackHandler) ListStacks(w http.ResponseWriter, r *http.Request) {
	filter := repository.StackFilter{
		Page:    1,
		PerPage: 20,
	}

	if v := r.URL.Query().Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if perPage, err := strconv.Atoi(v); err == nil && perPage > 0 && perPage <= 100 {
			filter.PerPage = perPage
		}
	}
	if v := r.URL.Query().Get("shop_id"); v != "" {
		filter.ShopID = &v
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		if active, err := strconv.ParseBool(v); err == nil {
			filter.IsActive = &active
		}
	}

	stacks, total, err := h.service.ListStacks(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(stacks, total, filter.Page, filter.PerPage))
}

// GetStack handles GET /api/v1/stacks/{id}
func (h *StackHandler) GetStack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "stack id is required"},
		})
		return
	}

	stack, err := h.service.GetStack(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stack})
}

// UpdateStack handles PUT /api/v1/stacks/{id}
func (h *StackHandler) UpdateStack(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "stack id is required"},
		})
		return
	}

	var req UpdateStackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.UpdateStackInput{
		Name:               req.Name,
		Description:        req.Description,
		IsActive:           req.IsActive,
		StopOnFirstFailure: req.StopOnFirstFailure,
		Rules:              req.Rules,
	}

	if req.StartDate != nil {
		startDate, err := time.Parse(time.RFC3339, *req.StartDate)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "start_date must be in RFC3339 format"},
			})
			return
		}
		input.StartDate = &startDate
	}

	if req.EndDate != nil {
		endDate, err := time.Parse(time.RFC3339, *req.EndDate)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "end_date must be in RFC3339 format"},
			})
			return
		}
		input.EndDate = &endDate
	}

	stack, err := h.service.UpdateStack(r.Context(), id, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stack})
}

// DeleteStack handles DELETE /api/v1/stacks/{id}
func (h *StackHandler) DeleteStack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "stack id is required"},
		})
		return
	}

	if err := h.service.DeleteStack(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// ActivateStack handles POST /api/v1/stacks/{id}/activate
func (h *StackHandler) ActivateStack(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// DeactivateStack handles POST /api/v1/stacks/{id}/deactivate
func (h *StackHandler) DeactivateStack(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *StackHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "stack id is required"},
		})
		return
	}

	var err error
	if active {
		err = h.service.ActivateStack(r.Context(), id)
	} else {
		err = h.service.DeactivateStack(r.Context(), id)
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// EvaluateStack handles POST /api/v1/stacks/{id}/evaluate
func (h *StackHandler) EvaluateStack(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "stack id is required"},
		})
		return
	}

	var req EvaluateStackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	summary, err := h.service.EvaluateStack(r.Context(), id, buildEvalContext(&req))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}

// ValidateStack handles POST /api/v1/stacks/validate
func (h *StackHandler) ValidateStack(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req ValidateStackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	errs := h.service.ValidateRules(req.Name, req.Rules)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ValidateStackResult{
		Valid:  len(errs) == 0,
		Errors: errs,
	}})
}

// buildEvalContext converts an evaluation request into an engine context.
// Aggregate quantity, price, and product IDs are derived from the cart lines
// when the caller did not provide them explicitly.
func buildEvalContext(req *EvaluateStackRequest) engine.EvalContext {
	ctx := engine.EvalContext{
		Quantity:        req.Quantity,
		OriginalPrice:   req.OriginalPrice,
		ProductIDs:      req.ProductIDs,
		CollectionIDs:   req.CollectionIDs,
		CustomerSegment: req.CustomerSegment,
		ShippingCost:    req.ShippingCost,
		TaxRate:         req.TaxRate,
	}

	if len(req.CartItems) > 0 {
		items := make([]engine.CartItem, 0, len(req.CartItems))
		var qty, total float64
		var ids []string
		for _, it := range req.CartItems {
			items = append(items, engine.CartItem{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			})
			qty += it.Quantity
			total += it.Quantity * it.UnitPrice
			ids = append(ids, it.ProductID)
		}
		ctx.CartItems = items

		if ctx.Quantity == 0 {
			ctx.Quantity = qty
		}
		if ctx.OriginalPrice == 0 {
			ctx.OriginalPrice = total
		}
		if len(ctx.ProductIDs) == 0 {
			ctx.ProductIDs = ids
		}
	}

	return ctx
}
