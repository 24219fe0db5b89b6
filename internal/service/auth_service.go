package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/talent-auth/internal/auth"
	"github.com/spec-kit/talent-auth/internal/config"
	"github.com/spec-kit/talent-auth/internal/domain"
	"github.com/spec-kit/talent-auth/internal/events"
	"github.com/spec-kit/talent-auth/internal/notify"
	"github.com/spec-kit/talent-auth/internal/repository"
	"github.com/spec-kit/talent-auth/internal/verification"
)

const minPasswordLength = 8

var (
	ErrNotFound           = errors.New("account not found")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTooManyAttempts    = errors.New("too many failed attempts")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// AttemptLimiter throttles guesses at verification codes and reset tokens.
// Allow must count the attempt and decide in one atomic step.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// SignUpInput is the typed sign-up request.
type SignUpInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber *string
	Password    string
	Role        string
}

// ChallengeResult reports a persisted challenge and whether its delivery was
// confirmed. Delivered=false is a degraded success: the code is stored and a
// resend can still succeed.
type ChallengeResult struct {
	Account   domain.AccountView
	Delivered bool
}

// SignInResult carries the sanitized account and its access token.
type SignInResult struct {
	Account domain.AccountView
	Session domain.SessionToken
}

// AuthService coordinates registration, verification, sign-in and reset flows.
type AuthService struct {
	accounts        repository.AccountRepository
	gateway         notify.Gateway
	limiter         AttemptLimiter
	dispatcher      events.Dispatcher
	machine         *verification.Machine
	tokenMgr        *auth.TokenManager
	logger          *zap.Logger
	bcryptCost      int
	deliveryTimeout time.Duration
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	Accounts   repository.AccountRepository
	Gateway    notify.Gateway
	Limiter    AttemptLimiter
	Dispatcher events.Dispatcher
	Machine    *verification.Machine
	Logger     *zap.Logger
}

// NewAuthService builds the service. A nil Machine is built from cfg; nil
// Limiter and Dispatcher disable throttling and events.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	machine := deps.Machine
	if machine == nil {
		machine = verification.NewMachine(
			verification.WithResetTTL(cfg.Auth.ResetTTL()),
			verification.WithCodeTTL(cfg.Auth.CodeTTL()),
		)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		accounts:        deps.Accounts,
		gateway:         deps.Gateway,
		limiter:         deps.Limiter,
		dispatcher:      deps.Dispatcher,
		machine:         machine,
		tokenMgr:        auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		logger:          logger,
		bcryptCost:      cfg.Auth.BcryptCost,
		deliveryTimeout: cfg.Notification.DeliveryTimeout(),
	}
}

// SignUp creates an unverified account and sends the email challenge.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*ChallengeResult, error) {
	if _, err := verification.ResolveRole(in.Role); err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	if _, err := s.accounts.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	account, err := s.machine.NewAccount(verification.Registration{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
		Role:         in.Role,
	})
	if err != nil {
		return nil, err
	}
	code := *account.EmailVerificationCode

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	s.publish(ctx, events.NewEvent(events.EventAccountRegistered, account.ID, nil))

	delivered := s.deliver(ctx, account, domain.ChannelEmail, notify.PurposeEmailVerification, code)
	return &ChallengeResult{Account: account.View(), Delivered: delivered}, nil
}

// VerifyEmail consumes the email challenge.
func (s *AuthService) VerifyEmail(ctx context.Context, accountID, code string) (domain.AccountView, error) {
	return s.consumeChallenge(ctx, accountID, domain.ChannelEmail, code)
}

// VerifyPhone consumes the phone challenge. Email must already be verified.
func (s *AuthService) VerifyPhone(ctx context.Context, accountID, code string) (domain.AccountView, error) {
	return s.consumeChallenge(ctx, accountID, domain.ChannelPhone, code)
}

// ResendEmailChallenge replaces the outstanding email code and sends it.
func (s *AuthService) ResendEmailChallenge(ctx context.Context, accountID string) (*ChallengeResult, error) {
	return s.issueChallenge(ctx, accountID, domain.ChannelEmail)
}

// RequestPhoneChallenge issues (or reissues) the phone code and sends it by SMS.
func (s *AuthService) RequestPhoneChallenge(ctx context.Context, accountID string) (*ChallengeResult, error) {
	return s.issueChallenge(ctx, accountID, domain.ChannelPhone)
}

// SignIn authenticates by email and password.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	session, err := s.tokenMgr.GenerateToken(account)
	if err != nil {
		return nil, err
	}
	return &SignInResult{Account: account.View(), Session: session}, nil
}

// RequestPasswordReset issues a reset token when the email is registered.
// Unknown emails return nil so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := s.machine.IssueResetToken(account)
	if err != nil {
		return err
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		return err
	}
	s.publish(ctx, events.NewEvent(events.EventPasswordResetRequested, account.ID, nil))

	s.deliver(ctx, account, domain.ChannelEmail, notify.PurposePasswordReset, token)
	return nil
}

// VerifyResetToken checks a reset token without consuming it.
func (s *AuthService) VerifyResetToken(ctx context.Context, email, token string) error {
	_, err := s.lookupResetAccount(ctx, email, token)
	return err
}

// ResetPassword consumes the reset token and replaces the password.
func (s *AuthService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}
	account, err := s.lookupResetAccount(ctx, email, token)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.machine.ConsumeResetToken(account, token, hash); err != nil {
		return err
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		return err
	}

	s.publish(ctx, events.NewEvent(events.EventPasswordResetCompleted, account.ID, nil))
	return nil
}

// CurrentAccount returns the sanitized account for an authenticated caller.
func (s *AuthService) CurrentAccount(ctx context.Context, accountID string) (domain.AccountView, error) {
	account, err := s.load(ctx, accountID)
	if err != nil {
		return domain.AccountView{}, err
	}
	return account.View(), nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issueChallenge(ctx context.Context, accountID string, ch domain.Channel) (*ChallengeResult, error) {
	account, err := s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}

	code, err := s.machine.IssueChallenge(ch, account)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewEvent(events.EventChallengeIssued, account.ID, events.ChannelPayload{Channel: ch}))

	delivered := s.deliver(ctx, account, ch, purposeFor(ch), code)
	return &ChallengeResult{Account: account.View(), Delivered: delivered}, nil
}

func (s *AuthService) consumeChallenge(ctx context.Context, accountID string, ch domain.Channel, code string) (domain.AccountView, error) {
	account, err := s.load(ctx, accountID)
	if err != nil {
		return domain.AccountView{}, err
	}

	key := challengeAttemptKey(ch, account.ID)
	if !s.allowAttempt(ctx, key) {
		return domain.AccountView{}, ErrTooManyAttempts
	}

	if err := s.machine.ConsumeChallenge(ch, account, code); err != nil {
		return domain.AccountView{}, err
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		return domain.AccountView{}, err
	}

	s.resetAttempts(ctx, key)
	s.publish(ctx, events.NewEvent(events.EventChannelVerified, account.ID, events.ChannelPayload{Channel: ch}))
	return account.View(), nil
}

func (s *AuthService) lookupResetAccount(ctx context.Context, email, token string) (*domain.Account, error) {
	key := resetAttemptKey(email)
	if !s.allowAttempt(ctx, key) {
		return nil, ErrTooManyAttempts
	}

	account, err := s.accounts.GetByResetToken(ctx, email, token, s.machine.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, verification.ErrInvalidOrExpiredToken
		}
		return nil, err
	}
	if err := s.machine.CheckResetToken(account, token); err != nil {
		return nil, err
	}
	s.resetAttempts(ctx, key)
	return account, nil
}

func (s *AuthService) load(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

// deliver runs after the code is persisted. Failures and timeouts are logged
// and reported as false rather than failing the operation.
func (s *AuthService) deliver(ctx context.Context, account *domain.Account, ch domain.Channel, purpose notify.Purpose, code string) bool {
	if s.gateway == nil {
		return false
	}

	address := account.Email
	if ch == domain.ChannelPhone && account.PhoneNumber != nil {
		address = *account.PhoneNumber
	}

	deliverCtx, cancel := context.WithTimeout(ctx, s.deliveryTimeout)
	defer cancel()

	err := s.gateway.Deliver(deliverCtx, notify.Destination{Channel: ch, Address: address}, notify.Message{Purpose: purpose, Code: code})
	if err == nil {
		return true
	}

	s.logger.Warn("notification delivery failed",
		zap.String("account_id", account.ID),
		zap.String("channel", string(ch)),
		zap.String("purpose", string(purpose)),
		zap.Error(err))
	s.publish(ctx, events.NewEvent(events.EventDeliveryFailed, account.ID, events.DeliveryFailedPayload{
		Channel: ch,
		Reason:  err.Error(),
	}))
	return false
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// allowAttempt counts every comparison; a success resets the counter. Limiter
// errors fail open.
func (s *AuthService) allowAttempt(ctx context.Context, key string) bool {
	if s.limiter == nil {
		return true
	}
	allowed, err := s.limiter.Allow(ctx, key)
	if err != nil {
		s.logger.Warn("attempt limiter unavailable", zap.Error(err))
		return true
	}
	return allowed
}

func (s *AuthService) resetAttempts(ctx context.Context, key string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Reset(ctx, key); err != nil {
		s.logger.Warn("attempt limiter unavailable", zap.Error(err))
	}
}

func purposeFor(ch domain.Channel) notify.Purpose {
	if ch == domain.ChannelPhone {
		return notify.PurposePhoneVerification
	}
	return notify.PurposeEmailVerification
}

func challengeAttemptKey(ch domain.Channel, accountID string) string {
	return "challenge:" + string(ch) + ":" + accountID
}

func resetAttemptKey(email string) string {
	return "reset:" + domain.NormalizeEmail(email)
}
