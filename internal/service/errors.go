package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWrongPassword      = errors.New("wrong password")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes long")
	ErrUserBlocked        = errors.New("user is blocked")
	ErrOTPRequired        = errors.New("one-time code is required")
	ErrInvalidOTP         = errors.New("invalid one-time code")
	ErrOTPNotConfigured   = errors.New("two-factor authentication is not set up")
	ErrOTPAlreadyEnabled  = errors.New("two-factor authentication is already enabled")

	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
	ErrTokenRevoked            = errors.New("token was revoked")
	ErrTokenCreationFailed     = errors.New("token creation failed")

	ErrForbidden            = errors.New("operation is not permitted")
	ErrNotGuide             = errors.New("only guides can perform this operation")
	ErrNotTraveler          = errors.New("only travelers can perform this operation")
	ErrCannotBlockSelf      = errors.New("administrators cannot block themselves")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrTourInactive         = errors.New("tour is not active")
	ErrBookingNotPayable    = errors.New("booking cannot be paid")
	ErrBookingNotCompleted  = errors.New("only completed bookings can be reviewed")
	ErrInvalidSignature     = errors.New("invalid payment signature")
	ErrUnknownOrder         = errors.New("unknown payment order")
	ErrUnsupportedImageType = errors.New("image must be png, jpeg or webp")
	ErrImageTooLarge        = errors.New("image exceeds the size limit")

	ErrVersionIsNotSpecified = errors.New("app version is not specified")
)
