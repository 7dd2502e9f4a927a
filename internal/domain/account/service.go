package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medlink/medlink/internal/platform/auth"
	"github.com/medlink/medlink/internal/platform/validation"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrUsernameTaken      = errors.New("Username already exists")
	ErrMissingCredentials = errors.New("Must include username and password")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrAccountDisabled    = errors.New("User account is disabled")
	ErrRefreshRequired    = errors.New("Refresh token is required")
	ErrInvalidRefresh     = errors.New("Invalid token")
)

// Tokens is the part of auth.TokenIssuer the service needs.
type Tokens interface {
	IssuePair(userID uuid.UUID, username string) (auth.TokenPair, error)
	Parse(ctx context.Context, token string, want auth.TokenType) (*auth.Claims, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Revoke(ctx context.Context, claims *auth.Claims) error
}

type Service struct {
	repo   UserRepository
	tokens Tokens
	logger zerolog.Logger
}

func NewService(repo UserRepository, tokens Tokens, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		logger: logger.With().Str("component", "account").Logger(),
	}
}

// NewUser carries what CreateUser stores. Password is plain text.
type NewUser struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// CreateUser hashes the password and inserts an active user. Callers apply
// their own password policy first.
func (s *Service) CreateUser(ctx context.Context, nu NewUser) (*User, error) {
	hash, err := auth.HashPassword(nu.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		Username:     strings.TrimSpace(nu.Username),
		Email:        strings.TrimSpace(nu.Email),
		FirstName:    strings.TrimSpace(nu.FirstName),
		LastName:     strings.TrimSpace(nu.LastName),
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", u.ID.String()).Str("username", u.Username).Msg("user created")
	return u, nil
}

// Register validates the request against the full password policy, creates
// the user and issues a token pair.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, auth.TokenPair, error) {
	errs := req.Validate()
	if !errs.Has("username") {
		exists, err := s.repo.UsernameExists(ctx, req.Username)
		if err != nil {
			return nil, auth.TokenPair{}, fmt.Errorf("check username: %w", err)
		}
		if exists {
			errs.Add("username", ErrUsernameTaken.Error())
		}
	}
	if err := errs.Err(); err != nil {
		return nil, auth.TokenPair{}, err
	}

	u, err := s.CreateUser(ctx, NewUser{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if errors.Is(err, ErrUsernameTaken) {
		return nil, auth.TokenPair{}, validation.Field("username", ErrUsernameTaken.Error())
	}
	if err != nil {
		return nil, auth.TokenPair{}, err
	}

	pair, err := s.tokens.IssuePair(u.ID, u.Username)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	return u, pair, nil
}

// Authenticate checks credentials without issuing tokens.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	u, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		s.logger.Warn().Str("username", username).Msg("login failed: unknown user")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		s.logger.Warn().Str("username", username).Msg("login failed: bad password")
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		s.logger.Warn().Str("username", username).Msg("login failed: account disabled")
		return nil, ErrAccountDisabled
	}
	return u, nil
}

// Login authenticates, records the login time and issues a token pair.
func (s *Service) Login(ctx context.Context, username, password string) (*User, auth.TokenPair, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	return u, pair, nil
}

// IssueTokens records a login for u and returns a fresh token pair.
func (s *Service) IssueTokens(ctx context.Context, u *User) (auth.TokenPair, error) {
	if err := s.repo.TouchLastLogin(ctx, u.ID); err != nil {
		s.logger.Error().Err(err).Str("user_id", u.ID.String()).Msg("update last_login")
	}
	return s.tokens.IssuePair(u.ID, u.Username)
}

// Logout blacklists the caller's refresh token.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	if refreshToken == "" {
		return ErrRefreshRequired
	}
	claims, err := s.tokens.Parse(ctx, refreshToken, auth.RefreshToken)
	if err != nil {
		return ErrInvalidRefresh
	}
	if claims.Subject != userID.String() {
		return ErrInvalidRefresh
	}
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	s.logger.Info().Str("user_id", userID.String()).Str("jti", claims.ID).Msg("refresh token blacklisted")
	return nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return s.tokens.Refresh(ctx, refreshToken)
}

func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByID returns any user by id; other packages use it to resolve usernames.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.repo.UsernameExists(ctx, username)
}

// Deactivate disables a user by username. Tokens already issued stay valid
// until they expire; new logins are refused.
func (s *Service) Deactivate(ctx context.Context, username string) error {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, u.ID, false); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", u.ID.String()).Msg("user deactivated")
	return nil
}
