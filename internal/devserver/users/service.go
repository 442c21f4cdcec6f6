// Package users implements account registration, email verification by
// one-time code and login for the dev server.
package users

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/eventsplatform/internal/common"
	"github.com/dmitrijs2005/eventsplatform/internal/devserver/auth"
	"github.com/dmitrijs2005/eventsplatform/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// OTPLength is the number of digits in a verification code.
const OTPLength = 6

// Failures reported to the caller. Their messages end up in response bodies.
var (
	ErrEmailTaken         = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("user is not verified")
	ErrAlreadyVerified    = errors.New("user is already verified")
	ErrInvalidEmailOrOTP  = errors.New("invalid email or otp")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrOTPExpired         = errors.New("otp has expired")
	ErrNoSuchUser         = errors.New("no user found with this email")
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Role         string
}

type Service struct {
	repo     Repository
	issuer   *auth.Issuer
	otpTTL   time.Duration
	logger   logging.Logger
	now      func() time.Time
	newOTP   func() (string, error)
	hashCost int

	// serializes read-modify-write of a user record
	mu sync.Mutex
}

type Option func(*Service)

// WithOTPGenerator replaces the random code generator.
func WithOTPGenerator(fn func() (string, error)) Option {
	return func(s *Service) { s.newOTP = fn }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

func NewService(repo Repository, issuer *auth.Issuer, otpTTL time.Duration, logger logging.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		issuer:   issuer,
		otpTTL:   otpTTL,
		logger:   logger,
		now:      time.Now,
		newOTP:   func() (string, error) { return common.RandomDigits(OTPLength) },
		hashCost: bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Signup creates an unverified user and issues the first code.
func (s *Service) Signup(ctx context.Context, email, password, role string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	code, err := s.newOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	now := s.now()
	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		OTP:          code,
		OTPIssuedAt:  now,
		CreatedAt:    now,
	}

	user, err = s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "otp issued", "email", email, "otp", code)
	return user, nil
}

// VerifyEmail marks the user verified when code matches and is still fresh.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidEmailOrOTP
		}
		return err
	}

	if user.Verified {
		return ErrAlreadyVerified
	}
	if user.OTP == "" || user.OTP != code {
		return ErrInvalidOTP
	}
	if s.now().Sub(user.OTPIssuedAt) > s.otpTTL {
		return ErrOTPExpired
	}

	user.Verified = true
	user.OTP = ""
	return s.repo.Update(ctx, user)
}

// ResendOTP replaces the code of an unverified user and restarts its window.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNoSuchUser
		}
		return err
	}
	if user.Verified {
		return ErrAlreadyVerified
	}

	code, err := s.newOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	user.OTP = code
	user.OTPIssuedAt = s.now()
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	s.logger.Info(ctx, "otp issued", "email", email, "otp", code)
	return nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Verified {
		return nil, ErrNotVerified
	}

	access, refresh, err := s.issuer.Pair(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, Role: user.Role}, nil
}
