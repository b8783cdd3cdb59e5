package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/desertcandleworks/backend-store/internal/common"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour

	// RoleAdmin unlocks the /admin surface.
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// Querier captures the database methods the auth service needs.
type Querier interface {
	CreateUser(ctx context.Context, arg dbgen.CreateUserParams) (dbgen.User, error)
	GetUserByEmail(ctx context.Context, email string) (dbgen.User, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (dbgen.User, error)
	InsertRefreshToken(ctx context.Context, arg dbgen.InsertRefreshTokenParams) error
	GetRefreshToken(ctx context.Context, tokenHash string) (dbgen.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeRefreshTokensForUser(ctx context.Context, userID pgtype.UUID) error
	CountCompletedOrdersByUser(ctx context.Context, userID pgtype.UUID) (int64, error)
	SumLifetimeSpendByUser(ctx context.Context, userID pgtype.UUID) (int64, error)
}

// Service handles registration, login and token lifecycle.
type Service struct {
	queries    Querier
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	signer     jwa.SignatureAlgorithm
	validator  TokenValidator
	issuer     string
	audience   string
}

// Config configures the auth service.
type Config struct {
	Queries         Querier
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
	Audience        string
	ClockSkew       time.Duration
}

// User is the safe subset of the user model returned to clients.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile augments the user with purchase history aggregates.
type Profile struct {
	User
	CompletedOrders    int64 `json:"completedOrders"`
	LifetimeSpendCents int64 `json:"lifetimeSpendCents"`
}

// TokenPair bundles a signed access token with its rotating refresh token.
type TokenPair struct {
	AccessToken   string    `json:"accessToken"`
	AccessExpiry  time.Time `json:"accessExpiresAt"`
	RefreshToken  string    `json:"refreshToken"`
	RefreshExpiry time.Time `json:"refreshExpiresAt"`
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	User User `json:"user"`
	TokenPair
}

// NewService constructs a Service with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("auth: queries is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-store"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "storefront"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}
	return &Service{
		queries:    cfg.Queries,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
		signer:     jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:   issuer,
		audience: audience,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Register creates a customer account.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	if strings.TrimSpace(name) == "" {
		return User{}, common.NewAppError("VALIDATION_ERROR", "name is required", http.StatusBadRequest, nil)
	}
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	if normalizedEmail == "" {
		return User{}, common.NewAppError("VALIDATION_ERROR", "email is required", http.StatusBadRequest, nil)
	}
	if len(password) < 8 {
		return User{}, common.NewAppError("VALIDATION_ERROR", "password must be at least 8 characters", http.StatusBadRequest, nil)
	}
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.queries.CreateUser(ctx, dbgen.CreateUserParams{
		Email:        normalizedEmail,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Role:         RoleCustomer,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, common.NewAppError("EMAIL_ALREADY_USED", "email is already registered", http.StatusConflict, err)
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return toUser(created), nil
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	if normalizedEmail == "" || password == "" {
		return LoginResult{}, invalidCredentials(nil)
	}
	user, err := s.queries.GetUserByEmail(ctx, normalizedEmail)
	if err != nil {
		return LoginResult{}, invalidCredentials(err)
	}
	ok, err := argon2id.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, invalidCredentials(err)
	}
	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: toUser(user), TokenPair: pair}, nil
}

// Refresh rotates the refresh token and issues a fresh access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return TokenPair{}, unauthorized(nil)
	}
	hashed := hashToken(token)
	stored, err := s.queries.GetRefreshToken(ctx, hashed)
	if err != nil {
		return TokenPair{}, unauthorized(err)
	}
	if stored.RevokedAt.Valid || !stored.ExpiresAt.Valid || s.now().After(stored.ExpiresAt.Time) {
		return TokenPair{}, unauthorized(nil)
	}
	user, err := s.queries.GetUserByID(ctx, stored.UserID)
	if err != nil {
		return TokenPair{}, unauthorized(err)
	}
	if err := s.queries.RevokeRefreshToken(ctx, hashed); err != nil {
		return TokenPair{}, fmt.Errorf("revoke refresh token: %w", err)
	}
	return s.issueTokens(ctx, user)
}

// Logout revokes the presented refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return nil
	}
	return s.queries.RevokeRefreshToken(ctx, hashToken(token))
}

// GetProfile returns the user plus order-history aggregates.
func (s *Service) GetProfile(ctx context.Context, userID string) (Profile, error) {
	id, err := parseUUID(userID)
	if err != nil {
		return Profile{}, unauthorized(err)
	}
	user, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return Profile{}, unauthorized(err)
	}
	orders, err := s.queries.CountCompletedOrdersByUser(ctx, id)
	if err != nil {
		return Profile{}, fmt.Errorf("count orders: %w", err)
	}
	spend, err := s.queries.SumLifetimeSpendByUser(ctx, id)
	if err != nil {
		return Profile{}, fmt.Errorf("sum lifetime spend: %w", err)
	}
	return Profile{User: toUser(user), CompletedOrders: orders, LifetimeSpendCents: spend}, nil
}

// ParseAccessToken validates the token and returns the subject and role claim.
func (s *Service) ParseAccessToken(token string) (userID, role string, err error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", "", unauthorized(nil)
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", "", unauthorized(err)
	}
	claims, err := s.validator.Validate(parsed, s.now())
	if err != nil {
		return "", "", unauthorized(err)
	}
	return claims.Subject, claims.Role, nil
}

func (s *Service) issueTokens(ctx context.Context, user dbgen.User) (TokenPair, error) {
	userID := uuidString(user.ID)
	if userID == "" {
		return TokenPair{}, errors.New("auth: invalid user identifier")
	}
	access, accessExpiry, err := s.signAccessToken(userID, user.Role)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExpiry, err := s.newRefreshToken(ctx, user.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return TokenPair{
		AccessToken:   access,
		AccessExpiry:  accessExpiry,
		RefreshToken:  refresh,
		RefreshExpiry: refreshExpiry,
	}, nil
}

func (s *Service) signAccessToken(userID, role string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	token, err := jwt.NewBuilder().
		Subject(userID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		Expiration(expiresAt).
		Claim(roleClaim, role).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func (s *Service) newRefreshToken(ctx context.Context, userID pgtype.UUID) (string, time.Time, error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, err
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	expiresAt := s.now().Add(s.refreshTTL)
	if err := s.queries.InsertRefreshToken(ctx, dbgen.InsertRefreshTokenParams{
		UserID:    userID,
		TokenHash: hashToken(token),
		ExpiresAt: pgtype.Timestamptz{Time: expiresAt, Valid: true},
	}); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func invalidCredentials(err error) error {
	return common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, err)
}

func unauthorized(err error) error {
	return common.NewAppError("UNAUTHORIZED", "missing or invalid token", http.StatusUnauthorized, err)
}

func toUser(u dbgen.User) User {
	return User{
		ID:        uuidString(u.ID),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.Time,
	}
}

func parseUUID(value string) (pgtype.UUID, error) {
	var id pgtype.UUID
	if err := id.Scan(value); err != nil {
		return pgtype.UUID{}, err
	}
	return id, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	u, err := uuid.FromBytes(id.Bytes[:])
	if err != nil {
		return ""
	}
	return u.String()
}
