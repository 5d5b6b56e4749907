package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/config"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

// authService is the concrete implementation of AuthService.
// It hashes passwords with bcrypt, issues HS256 access tokens and keeps
// revoked token ids in a TokenRevocationStore until they expire.
type authService struct {
	// userRepository is the data-access layer used to create and look up users.
	userRepository store.UserRepository

	// revocations remembers the ids of logged out tokens.
	revocations store.TokenRevocationStore

	ids utils.IDGenerator
	now func() time.Time

	// tokenSignKey is the HMAC secret used to sign and verify JWT tokens.
	tokenSignKey string

	// tokenIssuer is the "iss" claim embedded in every issued JWT.
	// Tokens whose issuer does not match this value are rejected during parsing.
	// It also names the account in authenticator apps.
	tokenIssuer string

	// tokenDuration controls how long a newly issued JWT remains valid.
	tokenDuration time.Duration

	bcryptCost int

	// dummyHash is compared against when the email is unknown so that a
	// login takes the same time whether or not the account exists.
	dummyHash []byte

	// logger is the structured logger used for diagnostic and error output.
	logger *logger.Logger
}

// NewAuthService constructs a new AuthService wired to the given repositories
// and populated with security parameters from cfg.
//
// The returned service is safe for concurrent use; all state is read-only after
// construction.
func NewAuthService(userRepository store.UserRepository, revocations store.TokenRevocationStore, ids utils.IDGenerator, cfg config.App, logger *logger.Logger) AuthService {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	dummyHash, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)

	return &authService{
		userRepository: userRepository,
		revocations:    revocations,
		ids:            ids,
		now:            time.Now,
		tokenSignKey:   cfg.TokenSignKey,
		tokenIssuer:    cfg.TokenIssuer,
		tokenDuration:  cfg.TokenDuration,
		bcryptCost:     cost,
		dummyHash:      dummyHash,
		logger:         logger,
	}
}

// Register creates a new account. Guides get an empty guide profile in the
// same transaction.
//
// Returns the persisted user with a token or:
//   - store.ErrEmailAlreadyExists if the email is taken.
//   - ErrTokenCreationFailed if the token cannot be signed.
func (a *authService) Register(ctx context.Context, req models.RegisterRequest) (models.User, models.Token, error) {
	log := logger.FromContext(ctx)

	role := req.Role
	if role == "" {
		role = models.RoleTraveler
	}
	if role == models.RoleAdmin {
		return models.User{}, models.Token{}, ErrForbidden
	}

	user, err := a.newUser(req.Name, req.Email, req.Password, role)
	if err != nil {
		return models.User{}, models.Token{}, err
	}
	user.Phone = req.Phone

	var profile *models.GuideProfile
	if role == models.RoleGuide {
		p := models.NewGuideProfile(user.ID, user.CreatedAt)
		profile = &p
	}

	registeredUser, err := a.userRepository.CreateUser(ctx, user, profile)
	if err != nil {
		log.Err(err).Str("email", user.Email).Msg("user creation ended with error")
		return models.User{}, models.Token{}, fmt.Errorf("user creation ended with error: %w", err)
	}

	token, err := a.createToken(registeredUser)
	if err != nil {
		return models.User{}, models.Token{}, err
	}

	return registeredUser, token, nil
}

// Login authenticates an existing user.
//
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
// Blocked accounts yield ErrUserBlocked. Accounts with two-factor
// authentication additionally require a valid code (ErrOTPRequired,
// ErrInvalidOTP).
func (a *authService) Login(ctx context.Context, req models.LoginRequest) (models.User, models.Token, error) {
	log := logger.FromContext(ctx)

	user, err := a.userRepository.GetUserByEmail(ctx, models.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(req.Password))
			return models.User{}, models.Token{}, ErrInvalidCredentials
		}
		log.Err(err).Msg("user search by email failed")
		return models.User{}, models.Token{}, fmt.Errorf("user search by email failed: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn().Str("user_id", user.ID).Msg("wrong password")
		return models.User{}, models.Token{}, ErrInvalidCredentials
	}

	if !user.Active {
		return models.User{}, models.Token{}, ErrUserBlocked
	}

	if user.TOTPEnabled {
		if req.OTPCode == "" {
			return models.User{}, models.Token{}, ErrOTPRequired
		}
		if !a.validOTP(req.OTPCode, user.TOTPSecret) {
			log.Warn().Str("user_id", user.ID).Msg("wrong one-time code")
			return models.User{}, models.Token{}, ErrInvalidOTP
		}
	}

	token, err := a.createToken(user)
	if err != nil {
		return models.User{}, models.Token{}, err
	}

	return user, token, nil
}

// Logout revokes the token id until the token would expire anyway.
func (a *authService) Logout(ctx context.Context, token models.Token) error {
	if err := a.revocations.Revoke(ctx, token.Claims.ID, token.ExpiresAt()); err != nil {
		logger.FromContext(ctx).Err(err).Str("user_id", token.Claims.Subject).Msg("token revocation failed")
		return fmt.Errorf("token revocation failed: %w", err)
	}
	return nil
}

// Authenticate validates and parses a raw JWT string.
//
// Any validation failure (expired, wrong issuer, malformed, unknown user) is
// normalised to ErrTokenIsExpiredOrInvalid so that callers do not need to
// inspect low-level JWT errors. Revoked tokens yield ErrTokenRevoked and
// blocked users ErrUserBlocked.
func (a *authService) Authenticate(ctx context.Context, rawToken string) (models.User, models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(rawToken, a.tokenSignKey, a.tokenIssuer)
	if err != nil {
		return models.User{}, models.Token{}, ErrTokenIsExpiredOrInvalid
	}

	revoked, err := a.revocations.IsRevoked(ctx, token.Claims.ID)
	if err != nil {
		logger.FromContext(ctx).Err(err).Msg("revocation lookup failed")
		return models.User{}, models.Token{}, fmt.Errorf("revocation lookup failed: %w", err)
	}
	if revoked {
		return models.User{}, models.Token{}, ErrTokenRevoked
	}

	user, err := a.userRepository.GetUserByID(ctx, token.Claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return models.User{}, models.Token{}, ErrTokenIsExpiredOrInvalid
		}
		return models.User{}, models.Token{}, fmt.Errorf("user lookup failed: %w", err)
	}
	if !user.Active {
		return models.User{}, models.Token{}, ErrUserBlocked
	}

	return user, token, nil
}

// ChangePassword replaces the password after checking the old one.
func (a *authService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	user, err := a.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := a.hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	_, err = a.userRepository.UpdateUser(ctx, userID, models.UserChanges{
		PasswordHash:   &hash,
		IfPasswordHash: &user.PasswordHash,
		UpdatedAt:      a.now().UTC(),
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("user_id", userID).Msg("password update failed")
		return fmt.Errorf("password update failed: %w", err)
	}
	return nil
}

// SetupOTP generates a new authenticator secret. It is stored right away but
// only takes effect after EnableOTP confirmed a code generated from it.
func (a *authService) SetupOTP(ctx context.Context, userID string) (models.OTPSetup, error) {
	user, err := a.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return models.OTPSetup{}, err
	}
	if user.TOTPEnabled {
		return models.OTPSetup{}, ErrOTPAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      a.tokenIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		return models.OTPSetup{}, fmt.Errorf("generating totp secret: %w", err)
	}

	secret, disabled := key.Secret(), false
	_, err = a.userRepository.UpdateUser(ctx, userID, models.UserChanges{
		TOTPSecret:    &secret,
		IfTOTPEnabled: &disabled,
		UpdatedAt:     a.now().UTC(),
	})
	if errors.Is(err, store.ErrStatusConflict) {
		return models.OTPSetup{}, ErrOTPAlreadyEnabled
	}
	if err != nil {
		return models.OTPSetup{}, fmt.Errorf("storing totp secret: %w", err)
	}

	return models.OTPSetup{Secret: key.Secret(), URL: key.URL()}, nil
}

// EnableOTP turns two-factor authentication on once code matches the secret
// created by SetupOTP.
func (a *authService) EnableOTP(ctx context.Context, userID, code string) error {
	user, err := a.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TOTPEnabled {
		return ErrOTPAlreadyEnabled
	}
	if user.TOTPSecret == "" {
		return ErrOTPNotConfigured
	}
	if !a.validOTP(code, user.TOTPSecret) {
		return ErrInvalidOTP
	}

	enabled, disabled := true, false
	_, err = a.userRepository.UpdateUser(ctx, userID, models.UserChanges{
		TOTPEnabled:   &enabled,
		IfTOTPSecret:  &user.TOTPSecret,
		IfTOTPEnabled: &disabled,
		UpdatedAt:     a.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("enabling totp: %w", err)
	}
	return nil
}

// DisableOTP turns two-factor authentication off. A current code is
// required.
func (a *authService) DisableOTP(ctx context.Context, userID, code string) error {
	user, err := a.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TOTPEnabled {
		return ErrOTPNotConfigured
	}
	if !a.validOTP(code, user.TOTPSecret) {
		return ErrInvalidOTP
	}

	disabled, cleared := false, ""
	_, err = a.userRepository.UpdateUser(ctx, userID, models.UserChanges{
		TOTPEnabled:  &disabled,
		TOTPSecret:   &cleared,
		IfTOTPSecret: &user.TOTPSecret,
		UpdatedAt:    a.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("disabling totp: %w", err)
	}
	return nil
}

// CreateAdmin creates an active administrator account.
func (a *authService) CreateAdmin(ctx context.Context, name, email, password string) (models.User, error) {
	user, err := a.newUser(name, email, password, models.RoleAdmin)
	if err != nil {
		return models.User{}, err
	}

	created, err := a.userRepository.CreateUser(ctx, user, nil)
	if err != nil {
		return models.User{}, fmt.Errorf("admin creation ended with error: %w", err)
	}

	a.logger.Info().Str("user_id", created.ID).Str("email", created.Email).Msg("administrator created")
	return created, nil
}

func (a *authService) newUser(name, email, password string, role models.Role) (models.User, error) {
	hash, err := a.hashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	now := a.now().UTC()
	return models.User{
		ID:           a.ids.Generate(),
		Name:         name,
		Email:        models.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// createToken issues a signed JWT for the given user with a fresh token id.
func (a *authService) createToken(user models.User) (models.Token, error) {
	principal := user.Principal()
	principal.TokenID = a.ids.Generate()

	token, err := utils.GenerateJWTToken(a.tokenIssuer, principal, a.tokenDuration, a.tokenSignKey)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	return token, nil
}

func (a *authService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

func (a *authService) validOTP(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, a.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
