package service

import (
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/adapter"
	"github.com/MKhiriev/go-tour-guide/internal/config"
	"github.com/MKhiriev/go-tour-guide/internal/events"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/metrics"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/internal/validators"
)

// Dependencies are the external systems the services talk to.
type Dependencies struct {
	Gateway   adapter.PaymentGateway
	Mailer    adapter.Mailer
	Publisher events.Publisher
	Metrics   *metrics.Metrics
}

type Services struct {
	AuthService         AuthService
	UserService         UserService
	GuideService        GuideService
	TourService         TourService
	BookingService      BookingService
	PaymentService      PaymentService
	ReviewService       ReviewService
	AdminService        AdminService
	NotificationService NotificationService
	AppInfoService      AppInfoService
}

func NewServices(storages *store.Storages, deps Dependencies, cfg *config.StructuredConfig, logger *logger.Logger) (*Services, error) {
	ids := utils.NewUUIDGenerator()
	sanitizer := validators.NewSanitizer()

	appInfoService, err := NewAppInfoService(cfg.App, storages, logger)
	if err != nil {
		return nil, err
	}

	paymentService := NewPaymentService(storages.Payments, storages.Bookings, deps.Gateway, deps.Publisher, ids, deps.Metrics, logger)
	bookingService := NewBookingValidationService(validators.NewRequestValidator(time.Now)).Wrap(
		NewBookingService(storages.Bookings, storages.Tours, paymentService, deps.Publisher, ids, deps.Metrics, logger),
	)

	return &Services{
		AuthService:         NewAuthService(storages.Users, storages.Revocations, ids, cfg.App, logger),
		UserService:         NewUserService(storages.Users, sanitizer, logger),
		GuideService:        NewGuideService(storages.Guides, storages.Bookings, sanitizer, logger),
		TourService:         NewTourService(storages.Tours, sanitizer, ids, cfg.Adapter.Payment.Currency, logger),
		BookingService:      bookingService,
		PaymentService:      paymentService,
		ReviewService:       NewReviewService(storages.Reviews, storages.Bookings, storages.Guides, sanitizer, ids, logger),
		AdminService:        NewAdminService(storages.Reports, logger),
		NotificationService: NewNotificationService(storages.Users, storages.Tours, deps.Mailer, deps.Metrics, logger),
		AppInfoService:      appInfoService,
	}, nil
}
