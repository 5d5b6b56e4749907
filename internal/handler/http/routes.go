package http

import (
	"net/http"

	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(h.withRealIP)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(middleware.Recoverer)
	router.Use(h.withMetrics)
	if len(h.app.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.app.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", traceIDHeader},
			ExposedHeaders:   []string{"Authorization", traceIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	router.Use(middleware.Compress(5))
	if h.server.RequestTimeout > 0 {
		router.Use(middleware.Timeout(h.server.RequestTimeout))
	}

	router.NotFound(notFound)
	router.MethodNotAllowed(methodNotAllowed)

	// platform
	router.Get("/api/version", h.getServerVersion)
	router.Get("/api/health", h.health)
	if h.metrics != nil {
		router.Handle("/metrics", h.metrics.Handler())
	}
	if h.mediaDir != "" {
		router.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(h.mediaDir))))
	}

	router.Route("/api/auth", func(r chi.Router) {
		r.With(h.withRateLimit).Post("/register", h.register)
		r.With(h.withRateLimit).Post("/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(h.auth)
			r.Post("/logout", h.logout)
			r.Get("/me", h.me)
			r.With(h.withRateLimit).Put("/password", h.changePassword)
			r.Post("/otp/setup", h.setupOTP)
			r.With(h.withRateLimit).Post("/otp/enable", h.enableOTP)
			r.With(h.withRateLimit).Post("/otp/disable", h.disableOTP)
		})
	})

	router.Route("/api/users", func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/me", h.getProfile)
		r.Put("/me", h.updateProfile)
	})

	router.Route("/api/guides", func(r chi.Router) {
		r.Get("/", h.searchGuides)

		r.Group(func(r chi.Router) {
			r.Use(h.auth, requireRole(models.RoleGuide))
			r.Put("/me", h.updateGuideProfile)
			r.Get("/me/bookings", h.listBookings)
			r.Get("/me/stats", h.guideStats)
		})

		r.Get("/{id}", h.getGuide)
		r.With(h.optionalAuth).Get("/{id}/tours", h.guideTours)
		r.Get("/{id}/reviews", h.guideReviews)
	})

	router.Route("/api/tours", func(r chi.Router) {
		r.Get("/", h.searchTours)
		r.With(h.optionalAuth).Get("/{id}", h.getTour)
		r.Get("/{id}/reviews", h.tourReviews)

		r.Group(func(r chi.Router) {
			r.Use(h.auth, requireRole(models.RoleGuide, models.RoleAdmin))
			r.Post("/", h.createTour)
			r.Put("/{id}", h.updateTour)
			r.Delete("/{id}", h.deactivateTour)
			r.Post("/{id}/images", h.uploadTourImage)
		})
	})

	router.Route("/api/bookings", func(r chi.Router) {
		r.Use(h.auth)
		r.Post("/", h.createBooking)
		r.Get("/", h.listBookings)
		r.Get("/{id}", h.getBooking)
		r.Patch("/{id}/status", h.updateBookingStatus)
		r.Post("/{id}/review", h.createReview)
	})

	router.Route("/api/payments", func(r chi.Router) {
		// the gateway authenticates webhooks with a body signature
		r.Post("/webhook", h.paymentWebhook)

		r.Group(func(r chi.Router) {
			r.Use(h.auth)
			r.Post("/orders", h.createOrder)
			r.Post("/verify", h.verifyPayment)
			r.Get("/", h.listTransactions)
		})
	})

	router.Route("/api/admin", func(r chi.Router) {
		r.Use(h.auth, requireRole(models.RoleAdmin))
		r.Get("/dashboard", h.dashboard)
		r.Get("/revenue", h.revenue)
		r.Get("/top-guides", h.topGuides)
		r.Get("/users", h.listUsers)
		r.Patch("/users/{id}/status", h.setUserStatus)
		r.Patch("/guides/{id}/verify", h.verifyGuide)
		r.Get("/bookings", h.listBookings)
		r.Delete("/reviews/{id}", h.deleteReview)
		r.Delete("/tours/{id}", h.deactivateTour)
	})

	return router
}
