package http

import (
	"context"
	"net/http"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/catalog"
	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/session"
	"github.com/go-chi/chi/v5"
)

type CatalogService interface {
	ListProducts(ctx context.Context, f catalog.Filter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducerProducts(ctx context.Context, producerID string) ([]domain.Product, error)
	CreateProduct(ctx context.Context, producerID string, in domain.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, producerID, id string, in domain.ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, producerID, id string) error
	ToggleAvailability(ctx context.Context, producerID, id string) (*domain.Product, error)
	ListProducerOrderItems(ctx context.Context, producerID string) ([]domain.OrderItem, error)
}

type ProductHandler struct {
	catalog CatalogService
	timeout time.Duration
}

func NewProductHandler(catalog CatalogService, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type ProductListResponseDTO struct {
	Products []domain.Product `json:"products"`
}

type OrderItemListResponseDTO struct {
	Items []domain.OrderItem `json:"items"`
}

// GET /api/v1/products?category=&search=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	products, err := h.catalog.ListProducts(ctx, catalog.Filter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respondJSON(w, r, http.StatusOK, ProductListResponseDTO{Products: products})
}

// GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, product)
}

// producerID is the signed-in user; the dashboard guard has already made
// sure there is one.
func producerID(r *http.Request) string {
	snap := session.SnapshotFromContext(r.Context())
	if snap.Identity == nil {
		return ""
	}
	return snap.Identity.ID
}

// GET /api/v1/dashboard/products
func (h *ProductHandler) ListOwnProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListProducerProducts(ctx, producerID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respondJSON(w, r, http.StatusOK, ProductListResponseDTO{Products: products})
}

// POST /api/v1/dashboard/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var in domain.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	product, err := h.catalog.CreateProduct(ctx, producerID(r), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, product)
}

// PUT /api/v1/dashboard/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var in domain.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	product, err := h.catalog.UpdateProduct(ctx, producerID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, product)
}

// DELETE /api/v1/dashboard/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.catalog.DeleteProduct(ctx, producerID(r), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	respondOK(w, r, "product deleted")
}

// POST /api/v1/dashboard/products/{id}/toggle
func (h *ProductHandler) ToggleAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.ToggleAvailability(ctx, producerID(r), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, product)
}

// GET /api/v1/dashboard/orders
func (h *ProductHandler) ListOwnOrderItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.catalog.ListProducerOrderItems(ctx, producerID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.OrderItem{}
	}
	respondJSON(w, r, http.StatusOK, OrderItemListResponseDTO{Items: items})
}
