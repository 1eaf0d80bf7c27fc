package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/stockd-erp/stockd/internal/platform/httpx"
	"github.com/stockd-erp/stockd/internal/shared"
)

// Handler exposes the ledger over HTTP.
type Handler struct {
	logger       *slog.Logger
	engine       *Engine
	reservations *Reservations
	queries      *QueryService
	validate     *validator.Validate
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, engine *Engine, reservations *Reservations, queries *QueryService) *Handler {
	return &Handler{
		logger:       logger,
		engine:       engine,
		reservations: reservations,
		queries:      queries,
		validate:     validator.New(),
	}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/movements", h.createMovement)
	r.Get("/movements", h.movementHistory)
	r.Post("/movements/{id}/confirm", h.confirmMovement)
	r.Post("/movements/{id}/cancel", h.cancelMovement)
	r.Patch("/movements/{id}", h.updateDraft)
	r.Delete("/movements/{id}", h.deleteDraft)
	r.Post("/transfers", h.createTransfer)
	r.Post("/adjustments", h.createAdjustment)
	r.Post("/receipts", h.createReceipt)
	r.Post("/issues", h.createIssue)
	r.Post("/reservations", h.reserve)
	r.Post("/reservations/release", h.release)
	r.Get("/stock/available", h.availableQuantity)
	r.Get("/stock/projected", h.projectedQuantity)
	r.Get("/batches", h.batchAggregate)
}

type movementRequest struct {
	ItemID            int64           `json:"item_id" validate:"required,gt=0"`
	SourceWarehouseID int64           `json:"source_warehouse_id" validate:"required,gt=0"`
	DestWarehouseID   int64           `json:"dest_warehouse_id" validate:"omitempty,gt=0"`
	BatchID           int64           `json:"batch_id" validate:"omitempty,gt=0"`
	Kind              string          `json:"kind" validate:"required"`
	Quantity          decimal.Decimal `json:"quantity" validate:"required"`
	Outbound          bool            `json:"outbound"`
	EffectiveDate     time.Time       `json:"effective_date"`
	ReferenceDocument string          `json:"reference_document" validate:"omitempty,max=64"`
	ReferenceNumber   string          `json:"reference_number" validate:"omitempty,max=64"`
	OriginNote        string          `json:"origin_note" validate:"omitempty,max=500"`
	CreatedBy         int64           `json:"created_by"`
}

func (h *Handler) createMovement(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := h.engine.CreateMovement(r.Context(), MovementSpec{
		ItemID:            req.ItemID,
		SourceWarehouseID: req.SourceWarehouseID,
		DestWarehouseID:   req.DestWarehouseID,
		BatchID:           req.BatchID,
		Kind:              MovementKind(req.Kind),
		Quantity:          req.Quantity,
		Outbound:          req.Outbound,
		EffectiveDate:     req.EffectiveDate,
		ReferenceDocument: req.ReferenceDocument,
		ReferenceNumber:   req.ReferenceNumber,
		OriginNote:        req.OriginNote,
		CreatedBy:         req.CreatedBy,
		IdempotencyKey:    r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) confirmMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	m, err := h.engine.Confirm(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) cancelMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	m, err := h.engine.Cancel(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

type draftUpdateRequest struct {
	EffectiveDate     *time.Time `json:"effective_date"`
	ReferenceDocument *string    `json:"reference_document" validate:"omitempty,max=64"`
	ReferenceNumber   *string    `json:"reference_number" validate:"omitempty,max=64"`
	OriginNote        *string    `json:"origin_note" validate:"omitempty,max=500"`
}

func (h *Handler) updateDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req draftUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := h.engine.UpdateDraft(r.Context(), id, DraftUpdate{
		EffectiveDate:     req.EffectiveDate,
		ReferenceDocument: req.ReferenceDocument,
		ReferenceNumber:   req.ReferenceNumber,
		OriginNote:        req.OriginNote,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) deleteDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.engine.DeleteDraft(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transferRequest struct {
	ItemID            int64           `json:"item_id" validate:"required,gt=0"`
	FromWarehouseID   int64           `json:"from_warehouse_id" validate:"required,gt=0"`
	ToWarehouseID     int64           `json:"to_warehouse_id" validate:"required,gt=0,nefield=FromWarehouseID"`
	Quantity          decimal.Decimal `json:"quantity" validate:"required"`
	BatchID           int64           `json:"batch_id" validate:"omitempty,gt=0"`
	EffectiveDate     time.Time       `json:"effective_date"`
	ReferenceDocument string          `json:"reference_document" validate:"omitempty,max=64"`
	ReferenceNumber   string          `json:"reference_number" validate:"omitempty,max=64"`
	OriginNote        string          `json:"origin_note" validate:"omitempty,max=500"`
	CreatedBy         int64           `json:"created_by"`
	AutoConfirm       bool            `json:"auto_confirm"`
}

func (h *Handler) createTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := h.engine.Transfer(r.Context(), TransferInput{
		ItemID:            req.ItemID,
		FromWarehouseID:   req.FromWarehouseID,
		ToWarehouseID:     req.ToWarehouseID,
		Quantity:          req.Quantity,
		BatchID:           req.BatchID,
		EffectiveDate:     req.EffectiveDate,
		ReferenceDocument: req.ReferenceDocument,
		ReferenceNumber:   req.ReferenceNumber,
		OriginNote:        req.OriginNote,
		CreatedBy:         req.CreatedBy,
		AutoConfirm:       req.AutoConfirm,
		IdempotencyKey:    r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

type adjustmentRequest struct {
	ItemID         int64           `json:"item_id" validate:"required,gt=0"`
	WarehouseID    int64           `json:"warehouse_id" validate:"required,gt=0"`
	TargetQuantity decimal.Decimal `json:"target_quantity"`
	Reason         string          `json:"reason" validate:"omitempty,max=500"`
	EffectiveDate  time.Time       `json:"effective_date"`
	CreatedBy      int64           `json:"created_by"`
	AutoConfirm    bool            `json:"auto_confirm"`
}

func (h *Handler) createAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, created, err := h.engine.AdjustTo(r.Context(), AdjustInput{
		ItemID:         req.ItemID,
		WarehouseID:    req.WarehouseID,
		TargetQuantity: req.TargetQuantity,
		Reason:         req.Reason,
		EffectiveDate:  req.EffectiveDate,
		CreatedBy:      req.CreatedBy,
		AutoConfirm:    req.AutoConfirm,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	if !created {
		httpx.JSON(w, http.StatusOK, map[string]any{"created": false})
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

type changeRequest struct {
	ItemID            int64           `json:"item_id" validate:"required,gt=0"`
	WarehouseID       int64           `json:"warehouse_id" validate:"required,gt=0"`
	Quantity          decimal.Decimal `json:"quantity" validate:"required"`
	Kind              string          `json:"kind"`
	BatchID           int64           `json:"batch_id" validate:"omitempty,gt=0"`
	EffectiveDate     time.Time       `json:"effective_date"`
	ReferenceDocument string          `json:"reference_document" validate:"omitempty,max=64"`
	ReferenceNumber   string          `json:"reference_number" validate:"omitempty,max=64"`
	OriginNote        string          `json:"origin_note" validate:"omitempty,max=500"`
	CreatedBy         int64           `json:"created_by"`
	AutoConfirm       bool            `json:"auto_confirm"`
	AllowNegative     bool            `json:"allow_negative"`
}

func (h *Handler) createReceipt(w http.ResponseWriter, r *http.Request) {
	var req changeRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := h.engine.Increase(r.Context(), h.changeInput(r, req))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) createIssue(w http.ResponseWriter, r *http.Request) {
	var req changeRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := h.engine.Decrease(r.Context(), h.changeInput(r, req))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) changeInput(r *http.Request, req changeRequest) ChangeInput {
	return ChangeInput{
		ItemID:            req.ItemID,
		WarehouseID:       req.WarehouseID,
		Quantity:          req.Quantity,
		Kind:              MovementKind(req.Kind),
		BatchID:           req.BatchID,
		EffectiveDate:     req.EffectiveDate,
		ReferenceDocument: req.ReferenceDocument,
		ReferenceNumber:   req.ReferenceNumber,
		OriginNote:        req.OriginNote,
		CreatedBy:         req.CreatedBy,
		AutoConfirm:       req.AutoConfirm,
		AllowNegative:     req.AllowNegative,
		IdempotencyKey:    r.Header.Get("Idempotency-Key"),
	}
}

type reservationRequest struct {
	ItemID      int64           `json:"item_id" validate:"required,gt=0"`
	WarehouseID int64           `json:"warehouse_id" validate:"required,gt=0"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	Reference   string          `json:"reference" validate:"omitempty,max=64"`
	ActorID     int64           `json:"actor_id"`
}

func (h *Handler) reserve(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if !h.decode(w, r, &req) {
		return
	}
	pos, err := h.reservations.Reserve(r.Context(), ReservationInput{
		ItemID:      req.ItemID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		Reference:   req.Reference,
		ActorID:     req.ActorID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pos)
}

func (h *Handler) release(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if !h.decode(w, r, &req) {
		return
	}
	pos, err := h.reservations.Release(r.Context(), ReservationInput{
		ItemID:      req.ItemID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		Reference:   req.Reference,
		ActorID:     req.ActorID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pos)
}

func (h *Handler) availableQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, warehouseID, ok := h.stockQueryParams(w, r)
	if !ok {
		return
	}
	available, err := h.queries.AvailableQuantity(r.Context(), itemID, warehouseID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"item_id":            itemID,
		"warehouse_id":       warehouseID,
		"available_quantity": available,
	})
}

func (h *Handler) projectedQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, warehouseID, ok := h.stockQueryParams(w, r)
	if !ok {
		return
	}
	projection, err := h.queries.ProjectedQuantity(r.Context(), itemID, warehouseID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, projection)
}

func (h *Handler) movementHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := int(parseIntParam(query.Get("page")))
	if page <= 0 {
		page = 1
	}
	perPage := int(parseIntParam(query.Get("per_page")))
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}
	filter := MovementFilter{
		ItemID:      parseIntParam(query.Get("item_id")),
		WarehouseID: parseIntParam(query.Get("warehouse_id")),
		Limit:       perPage,
		Offset:      (page - 1) * perPage,
	}
	if raw := query.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid from timestamp")
			return
		}
		filter.From = t
	}
	if raw := query.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid to timestamp")
			return
		}
		filter.To = t
	}
	entries, total, err := h.queries.MovementHistory(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"movements":  entries,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) batchAggregate(w http.ResponseWriter, r *http.Request) {
	itemID, warehouseID, ok := h.stockQueryParams(w, r)
	if !ok {
		return
	}
	stocks, err := h.queries.BatchAggregate(r.Context(), itemID, warehouseID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"batches": stocks})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON payload")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid movement id")
		return 0, false
	}
	return id, true
}

func (h *Handler) stockQueryParams(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	itemID := parseIntParam(r.URL.Query().Get("item_id"))
	warehouseID := parseIntParam(r.URL.Query().Get("warehouse_id"))
	if itemID <= 0 || warehouseID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "item_id and warehouse_id are required")
		return 0, 0, false
	}
	return itemID, warehouseID, true
}

func parseIntParam(raw string) int64 {
	v, _ := strconv.ParseInt(raw, 10, 64)
	return v
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var (
		validation   *ValidationError
		notFound     *NotFoundError
		invalidState *InvalidStateError
		insufficient *InsufficientStockError
		invalidReq   *InvalidRequestError
	)
	switch {
	case errors.As(err, &validation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validation.Reason)
	case errors.As(err, &notFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", notFound.Error())
	case errors.As(err, &invalidState):
		httpx.Problem(w, http.StatusConflict, "Invalid State", invalidState.Error())
	case errors.As(err, &insufficient):
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock",
			fmt.Sprintf("available %s, requested %s", insufficient.Available, insufficient.Requested))
	case errors.As(err, &invalidReq):
		httpx.Problem(w, http.StatusConflict, "Invalid Request", invalidReq.Reason)
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "request with this idempotency key was already processed")
	default:
		h.logger.Error("ledger request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
