package http

import (
	"context"
	"net/http"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const maxLineQuantity = 99

type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddToCart(ctx context.Context, userID, productID string, quantity int) error
	SetQuantity(ctx context.Context, userID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID string) error

	GetGuestCart(ctx context.Context, guestID string) (*domain.Cart, error)
	AddToGuestCart(ctx context.Context, guestID, productID string, quantity int) error
	SetGuestQuantity(ctx context.Context, guestID, productID string, quantity int) error
	RemoveGuestItem(ctx context.Context, guestID, productID string) error
	ResolveGuestCart(ctx context.Context, cart *domain.Cart) *domain.Cart
}

type CartHandler struct {
	cart    CartService
	timeout time.Duration
}

func NewCartHandler(cart CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    cart,
		timeout: timeout,
	}
}

// AddItemRequestDTO adds one unit when quantity is omitted.
type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Lines     []domain.CartLine `json:"lines"`
	Total     decimal.Decimal   `json:"total"`
	ItemCount int               `json:"item_count"`
	Guest     bool              `json:"guest"`
}

func cartResponse(c *domain.Cart) CartResponseDTO {
	lines := c.Lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return CartResponseDTO{
		Lines:     lines,
		Total:     c.Total(),
		ItemCount: c.ItemCount(),
		Guest:     c.UserID == "",
	}
}

// userID is empty for anonymous visitors, who use the guest cart.
func userID(r *http.Request) string {
	snap := session.SnapshotFromContext(r.Context())
	if snap.Identity == nil {
		return ""
	}
	return snap.Identity.ID
}

func (h *CartHandler) load(ctx context.Context, r *http.Request) (*domain.Cart, error) {
	if uid := userID(r); uid != "" {
		return h.cart.GetCart(ctx, uid)
	}
	c, err := h.cart.GetGuestCart(ctx, guestIDFromContext(r.Context()))
	if err != nil {
		return nil, err
	}
	return h.cart.ResolveGuestCart(ctx, c), nil
}

func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, r *http.Request, status int) {
	c, err := h.load(ctx, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, status, cartResponse(c))
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.respondCart(ctx, w, r, http.StatusOK)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 || req.Quantity > maxLineQuantity {
		respondError(w, r, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	var err error
	if uid := userID(r); uid != "" {
		err = h.cart.AddToCart(ctx, uid, req.ProductID, req.Quantity)
	} else {
		err = h.cart.AddToGuestCart(ctx, guestIDFromContext(r.Context()), req.ProductID, req.Quantity)
	}
	if err != nil {
		handleError(w, r, err)
		return
	}
	h.respondCart(ctx, w, r, http.StatusCreated)
}

// PUT /api/v1/cart/items/{id}
//
// The id is the cart item id for signed-in users and the product id for
// guests. A quantity of zero or less removes the line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity > maxLineQuantity {
		respondError(w, r, http.StatusBadRequest, "invalid_quantity", "quantity must be at most 99")
		return
	}

	var err error
	if uid := userID(r); uid != "" {
		err = h.cart.SetQuantity(ctx, uid, id, req.Quantity)
	} else {
		err = h.cart.SetGuestQuantity(ctx, guestIDFromContext(r.Context()), id, req.Quantity)
	}
	if err != nil {
		handleError(w, r, err)
		return
	}
	h.respondCart(ctx, w, r, http.StatusOK)
}

// DELETE /api/v1/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	var err error
	if uid := userID(r); uid != "" {
		err = h.cart.RemoveItem(ctx, uid, id)
	} else {
		err = h.cart.RemoveGuestItem(ctx, guestIDFromContext(r.Context()), id)
	}
	if err != nil {
		handleError(w, r, err)
		return
	}
	h.respondCart(ctx, w, r, http.StatusOK)
}
