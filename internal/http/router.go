// Package http exposes the storefront over a JSON API.
package http

import (
	"net/http"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/guard"
	"github.com/IGSolution/carehappyfarmsdemo/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Sessions is satisfied by *session.Registry.
type Sessions interface {
	Acquirer
	SessionRegistry
}

type Deps struct {
	Logger   *logrus.Logger
	Metrics  *metrics.Metrics
	Tokens   TokenParser
	Sessions Sessions

	Catalog     CatalogService
	Cart        CartService
	Checkout    CheckoutService
	Invitations InvitationService
	Contact     ContactService

	// Limiter guards the sign-in, sign-up, contact and invitation routes.
	Limiter *RateLimiter

	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	SecureCookies      bool
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Limiter == nil {
		d.Limiter = NewRateLimiter(5, 10)
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	if d.MaxRequestBodySize <= 0 {
		d.MaxRequestBodySize = 1 << 20 // 1MB
	}

	auth := NewAuthHandler(d.Sessions, d.Tokens, d.RequestTimeout)
	products := NewProductHandler(d.Catalog, d.RequestTimeout)
	carts := NewCartHandler(d.Cart, d.RequestTimeout)
	checkouts := NewCheckoutHandler(d.Checkout, d.Cart, d.RequestTimeout)
	invitations := NewInvitationHandler(d.Invitations, auth, d.RequestTimeout)
	contacts := NewContactHandler(d.Contact, d.RequestTimeout)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(d.Logger))
	r.Use(d.Metrics.Instrument)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(middleware.RequestSize(d.MaxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Authenticate(d.Tokens, d.Sessions))
		r.Use(GuestID(d.SecureCookies))

		r.Route("/auth", func(r chi.Router) {
			r.With(d.Limiter.Handler).Post("/signup", auth.SignUp)
			r.With(d.Limiter.Handler).Post("/signin", auth.SignIn)
			r.With(d.Limiter.Handler).Post("/verify", auth.VerifyEmail)
			r.With(d.Limiter.Handler).Post("/resend", auth.ResendConfirmation)
			r.Post("/signout", auth.SignOut)
			r.Get("/me", auth.Me)
			r.Get("/landing", auth.Landing)
			r.Patch("/profile", auth.UpdateProfile)
			r.Post("/profile/refresh", auth.RefreshProfile)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.ListProducts)
			r.Get("/{id}", products.GetProduct)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", carts.GetCart)
			r.Post("/items", carts.AddItem)
			r.Put("/items/{id}", carts.UpdateQuantity)
			r.Delete("/items/{id}", carts.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(guard.Middleware(guard.Checkout))
			r.Post("/", checkouts.InitiateCheckout)
			r.Post("/verify", checkouts.VerifyPayment)
			r.Get("/{attempt_id}", checkouts.GetAttempt)
			r.Post("/{attempt_id}/cancel", checkouts.CancelAttempt)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(guard.Middleware(guard.Dashboard))
			r.Get("/products", products.ListOwnProducts)
			r.Post("/products", products.CreateProduct)
			r.Put("/products/{id}", products.UpdateProduct)
			r.Delete("/products/{id}", products.DeleteProduct)
			r.Post("/products/{id}/toggle", products.ToggleAvailability)
			r.Get("/orders", products.ListOwnOrderItems)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(guard.Middleware(guard.Admin))
			r.Get("/invitations", invitations.List)
			r.With(d.Limiter.Handler).Post("/invitations", invitations.Send)
			r.Delete("/invitations/{id}", invitations.Delete)
		})

		r.Route("/invitations/{token}", func(r chi.Router) {
			r.Use(d.Limiter.Handler)
			r.Get("/", invitations.Validate)
			r.Post("/accept", invitations.Accept)
		})

		r.With(d.Limiter.Handler).Post("/contact", contacts.Send)
		r.With(d.Limiter.Handler).Post("/contact/donation", contacts.Donation)
		r.With(d.Limiter.Handler).Post("/contact/investor", contacts.Investor)
	})

	return r
}
