package product

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/mlopezr/catalog-api/app/observability/metrics"
	"github.com/mlopezr/catalog-api/internal/api"
)

type Handler struct {
	logger  *slog.Logger
	service ProductService
	metrics *metrics.AppMetrics
}

func NewProductHandler(service ProductService, m *metrics.AppMetrics, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		metrics: m,
	}
}

// List handles GET /products with the full filter/sort/pagination surface.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProductHandler").Start(r.Context(), "List")
	defer span.End()

	l := h.logger.With(slog.String("method", "List"))

	filters := ParseListFilters(r.URL.Query())

	result, err := h.service.List(ctx, filters)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list products", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Listing failed")
		api.ServerErrorResponse(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ProductListRequestsTotal.Add(ctx, 1)
	}

	api.WriteJSONResponse(w, r, http.StatusOK, ListResponse{
		Success:    true,
		Data:       result.Items,
		Message:    result.Message,
		Pagination: result.Pagination,
	})
}

// Get handles GET /products/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProductHandler").Start(r.Context(), "Get")
	defer span.End()

	id := chi.URLParam(r, "id")

	p, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, fmt.Sprintf("Product with id %q not found", id))
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Lookup failed")
		api.ServerErrorResponse(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, api.Response{
		Success: true,
		Data:    p,
	})
}

// Create handles POST /products (admin only).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProductHandler").Start(r.Context(), "Create")
	defer span.End()

	l := h.logger.With(slog.String("method", "Create"))

	var req CreateProductRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid create payload", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	h.createFromRequest(w, r, req)
}

// createFromRequest finishes creation for both the JSON and the upload
// paths, once any uploaded image URL has been injected into the request.
func (h *Handler) createFromRequest(w http.ResponseWriter, r *http.Request, req CreateProductRequest) {
	ctx := r.Context()

	if msgs := api.ValidateStruct(req); len(msgs) > 0 {
		api.ValidationErrorResponse(w, r, msgs)
		return
	}

	created, err := h.service.Create(ctx, req)
	if err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, api.Response{
		Success: true,
		Message: "Product created successfully",
		Data:    created,
	})
}

// Update handles PUT and PATCH /products/{id} (admin only).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProductHandler").Start(r.Context(), "Update")
	defer span.End()

	l := h.logger.With(slog.String("method", "Update"))

	var req UpdateProductRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid update payload", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	h.updateFromRequest(w, r, req)
}

func (h *Handler) updateFromRequest(w http.ResponseWriter, r *http.Request, req UpdateProductRequest) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if req.IsEmpty() {
		api.ValidationErrorResponse(w, r, []string{"at least one field must be provided"})
		return
	}
	if msgs := api.ValidateStruct(req); len(msgs) > 0 {
		api.ValidationErrorResponse(w, r, msgs)
		return
	}

	updated, err := h.service.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, fmt.Sprintf("Product with id %q not found", id))
			return
		}
		api.ServerErrorResponse(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, api.Response{
		Success: true,
		Message: "Product updated successfully",
		Data:    updated,
	})
}

// Delete handles DELETE /products/{id} (admin only).
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProductHandler").Start(r.Context(), "Delete")
	defer span.End()

	id := chi.URLParam(r, "id")

	result, err := h.service.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, fmt.Sprintf("Product with id %q not found", id))
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Deletion failed")
		api.ServerErrorResponse(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, api.Response{
		Success: true,
		Message: fmt.Sprintf("Product with id %q deleted", result.ID),
		Data:    result,
	})
}
