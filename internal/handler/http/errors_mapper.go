package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-tour-guide/internal/adapter"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/service"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/internal/validators"
)

var errorStatusMap = map[error]int{
	ErrMissingToken:               http.StatusUnauthorized,
	ErrInvalidAuthorizationHeader: http.StatusUnauthorized,
	ErrEmptyToken:                 http.StatusUnauthorized,
	ErrNotAuthenticated:           http.StatusUnauthorized,
	ErrInvalidQuery:               http.StatusBadRequest,
	ErrMissingImage:               http.StatusBadRequest,
	ErrTooManyRequests:            http.StatusTooManyRequests,
	ErrMethodNotAllowed:           http.StatusMethodNotAllowed,
	ErrRouteNotFound:              http.StatusNotFound,
	utils.ErrInvalidJSON:          http.StatusBadRequest,

	validators.ErrNonPositivePrice:  http.StatusBadRequest,
	validators.ErrNegativeRate:      http.StatusBadRequest,
	validators.ErrTooPrecise:        http.StatusBadRequest,
	validators.ErrEmptyTourDate:     http.StatusBadRequest,
	validators.ErrTourDateInPast:    http.StatusBadRequest,
	validators.ErrInvalidRange:      http.StatusBadRequest,
	validators.ErrInvalidSort:       http.StatusBadRequest,
	validators.ErrInvalidStatus:     http.StatusBadRequest,
	validators.ErrNoFieldsToUpdate:  http.StatusBadRequest,
	validators.ErrInvalidRole:       http.StatusBadRequest,
	validators.ErrInvalidMonthRange: http.StatusBadRequest,

	service.ErrInvalidCredentials:      http.StatusUnauthorized,
	service.ErrWrongPassword:           http.StatusBadRequest,
	service.ErrPasswordTooLong:         http.StatusBadRequest,
	service.ErrUserBlocked:             http.StatusForbidden,
	service.ErrOTPRequired:             http.StatusUnauthorized,
	service.ErrInvalidOTP:              http.StatusUnauthorized,
	service.ErrOTPNotConfigured:        http.StatusConflict,
	service.ErrOTPAlreadyEnabled:       http.StatusConflict,
	service.ErrTokenIsExpiredOrInvalid: http.StatusUnauthorized,
	service.ErrTokenRevoked:            http.StatusUnauthorized,
	service.ErrTokenCreationFailed:     http.StatusInternalServerError,
	service.ErrForbidden:               http.StatusForbidden,
	service.ErrNotGuide:                http.StatusForbidden,
	service.ErrNotTraveler:             http.StatusForbidden,
	service.ErrCannotBlockSelf:         http.StatusBadRequest,
	service.ErrInvalidTransition:       http.StatusConflict,
	service.ErrTourInactive:            http.StatusConflict,
	service.ErrBookingNotPayable:       http.StatusConflict,
	service.ErrBookingNotCompleted:     http.StatusConflict,
	service.ErrInvalidSignature:        http.StatusBadRequest,
	service.ErrUnknownOrder:            http.StatusNotFound,
	service.ErrUnsupportedImageType:    http.StatusUnsupportedMediaType,
	service.ErrImageTooLarge:           http.StatusRequestEntityTooLarge,

	store.ErrEmailAlreadyExists:  http.StatusConflict,
	store.ErrUserNotFound:        http.StatusNotFound,
	store.ErrGuideNotFound:       http.StatusNotFound,
	store.ErrTourNotFound:        http.StatusNotFound,
	store.ErrBookingNotFound:     http.StatusNotFound,
	store.ErrCapacityExceeded:    http.StatusConflict,
	store.ErrStatusConflict:      http.StatusConflict,
	store.ErrTransactionNotFound: http.StatusNotFound,
	store.ErrOrderAlreadyExists:  http.StatusConflict,
	store.ErrReviewExists:        http.StatusConflict,
	store.ErrReviewNotFound:      http.StatusNotFound,
	store.ErrMediaNotFound:       http.StatusNotFound,

	adapter.ErrGatewayDisabled:     http.StatusServiceUnavailable,
	adapter.ErrBadRequest:          http.StatusBadGateway,
	adapter.ErrUnauthorized:        http.StatusBadGateway,
	adapter.ErrForbidden:           http.StatusBadGateway,
	adapter.ErrNotFound:            http.StatusBadGateway,
	adapter.ErrConflict:            http.StatusBadGateway,
	adapter.ErrBadGateway:          http.StatusBadGateway,
	adapter.ErrInternalServerError: http.StatusBadGateway,
}

// detailedErrors are reported with the full error text because the wrapped
// part names the offending field.
var detailedErrors = []error{ErrInvalidQuery, utils.ErrInvalidJSON}

func statusFromError(err error) int {
	status, _ := classifyError(err)
	return status
}

// classifyError returns the status code and the client facing message of
// err. Server errors never expose the error text.
func classifyError(err error) (int, string) {
	var validationErr *validators.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, validationErr.Error()
	}

	for target, status := range errorStatusMap {
		if !errors.Is(err, target) {
			continue
		}
		if status >= http.StatusInternalServerError {
			return status, http.StatusText(status)
		}
		for _, detailed := range detailedErrors {
			if target == detailed {
				return status, err.Error()
			}
		}
		return status, target.Error()
	}

	if errors.Is(err, validators.ErrValidation) {
		return http.StatusBadRequest, validators.ErrValidation.Error()
	}

	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// writeError logs err and writes the mapped JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log := logger.FromRequest(r)

	status, message := classifyError(err)
	if status >= http.StatusInternalServerError {
		log.Err(err).Int("status", status).Msg(msg)
	} else {
		log.Debug().Err(err).Int("status", status).Msg(msg)
	}

	utils.WriteError(w, message, status)
}
