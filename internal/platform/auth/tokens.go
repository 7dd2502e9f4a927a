package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var (
	ErrInvalidToken     = errors.New("Token is invalid or expired")
	ErrWrongTokenType   = errors.New("Token has wrong type")
	ErrTokenBlacklisted = errors.New("Token is blacklisted")
)

// Claims carried by both access and refresh tokens. The jti (RegisteredClaims.ID)
// is what the blacklist keys on.
type Claims struct {
	jwt.RegisteredClaims
	Username  string    `json:"username"`
	TokenType TokenType `json:"token_type"`
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenPair is returned on registration and login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type TokenConfig struct {
	SigningKey []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenIssuer signs and verifies HS256 tokens and consults the blacklist.
type TokenIssuer struct {
	cfg       TokenConfig
	blacklist Blacklist
	now       func() time.Time
}

func NewTokenIssuer(cfg TokenConfig, blacklist Blacklist) *TokenIssuer {
	return &TokenIssuer{cfg: cfg, blacklist: blacklist, now: time.Now}
}

// IssuePair mints a fresh access/refresh pair for the user.
func (i *TokenIssuer) IssuePair(userID uuid.UUID, username string) (TokenPair, error) {
	access, err := i.issue(userID, username, AccessToken, i.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.issue(userID, username, RefreshToken, i.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (i *TokenIssuer) issue(userID uuid.UUID, username string, typ TokenType, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username:  username,
		TokenType: typ,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Parse verifies signature, issuer, expiry, token type and blacklist status.
func (i *TokenIssuer) Parse(ctx context.Context, tokenStr string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return i.cfg.SigningKey, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != want {
		return nil, ErrWrongTokenType
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}

	if i.blacklist != nil {
		revoked, err := i.blacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check blacklist: %w", err)
		}
		if revoked {
			return nil, ErrTokenBlacklisted
		}
	}
	return claims, nil
}

// Refresh exchanges a valid, non-blacklisted refresh token for a new access token.
func (i *TokenIssuer) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := i.Parse(ctx, refreshToken, RefreshToken)
	if err != nil {
		return "", err
	}
	userID, err := claims.UserID()
	if err != nil {
		return "", ErrInvalidToken
	}
	return i.issue(userID, claims.Username, AccessToken, i.cfg.AccessTTL)
}

// Revoke blacklists the token described by claims until its natural expiry.
func (i *TokenIssuer) Revoke(ctx context.Context, claims *Claims) error {
	if i.blacklist == nil {
		return fmt.Errorf("no token blacklist configured")
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return i.blacklist.Revoke(ctx, claims.ID, claims.Subject, expiresAt)
}
