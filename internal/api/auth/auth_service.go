package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mlopezr/catalog-api/config"
	"github.com/mlopezr/catalog-api/internal/api"
)

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	GetProfile(ctx context.Context, userID string) (*User, error)
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	jwtCfg config.JWTConfig
}

func NewAuthService(repo AuthRepo, cfg *config.Config, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		jwtCfg: cfg.JWT,
	}
}

// Register creates a new account after a best-effort email uniqueness check
// and returns the sanitized user with a fresh token.
func (s *AuthServiceImpl) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	l := s.logger.With(slog.String("method", "Register"))

	_, err := s.repo.FindByEmail(ctx, req.Email)
	if err == nil {
		l.WarnContext(ctx, "Registration attempted with existing email")
		return nil, fmt.Errorf("email already in use: %w", api.ErrConflict)
	}
	if !errors.Is(err, api.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = RoleUser
	}

	user := User{
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      role,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.generateToken(created)
	if err != nil {
		return nil, err
	}

	l.InfoContext(ctx, "User registered", slog.String("user_id", created.ID), slog.String("role", created.Role))
	return &AuthResponse{User: created, Token: token}, nil
}

// Login authenticates with email and password. Unknown email and wrong
// password both map to api.ErrUnauthenticated so the response shape never
// reveals which one failed.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	l := s.logger.With(slog.String("method", "Login"))

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			l.WarnContext(ctx, "Login failed: user not found")
			return nil, api.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.Password == "" {
		l.WarnContext(ctx, "Login failed: account has no stored credential")
		return nil, api.ErrUnauthenticated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		l.WarnContext(ctx, "Login failed: password mismatch")
		return nil, api.ErrUnauthenticated
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthServiceImpl) GetProfile(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, api.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return user, nil
}

func (s *AuthServiceImpl) generateToken(user *User) (string, error) {
	now := time.Now()
	ttl := s.jwtCfg.AccessTokenTTL
	if ttl == 0 {
		ttl = time.Hour
	}

	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwtCfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtCfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}
