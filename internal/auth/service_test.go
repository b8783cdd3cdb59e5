package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/desertcandleworks/backend-store/internal/common"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
)

type stubQuerier struct {
	users    map[string]dbgen.User
	byID     map[pgtype.UUID]dbgen.User
	tokens   map[string]dbgen.RefreshToken
	orders   int64
	spend    int64
	createErr error
}

func newStubQuerier() *stubQuerier {
	return &stubQuerier{
		users:  map[string]dbgen.User{},
		byID:   map[pgtype.UUID]dbgen.User{},
		tokens: map[string]dbgen.RefreshToken{},
	}
}

func (s *stubQuerier) CreateUser(_ context.Context, arg dbgen.CreateUserParams) (dbgen.User, error) {
	if s.createErr != nil {
		return dbgen.User{}, s.createErr
	}
	if _, exists := s.users[arg.Email]; exists {
		return dbgen.User{}, &pgconn.PgError{Code: "23505"}
	}
	var id pgtype.UUID
	if err := id.Scan(uuid.NewString()); err != nil {
		return dbgen.User{}, err
	}
	user := dbgen.User{
		ID:           id,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		Name:         arg.Name,
		Role:         arg.Role,
		CreatedAt:    pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	s.users[arg.Email] = user
	s.byID[id] = user
	return user, nil
}

func (s *stubQuerier) GetUserByEmail(_ context.Context, email string) (dbgen.User, error) {
	user, ok := s.users[email]
	if !ok {
		return dbgen.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (s *stubQuerier) GetUserByID(_ context.Context, id pgtype.UUID) (dbgen.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return dbgen.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (s *stubQuerier) InsertRefreshToken(_ context.Context, arg dbgen.InsertRefreshTokenParams) error {
	s.tokens[arg.TokenHash] = dbgen.RefreshToken{
		UserID:    arg.UserID,
		TokenHash: arg.TokenHash,
		ExpiresAt: arg.ExpiresAt,
	}
	return nil
}

func (s *stubQuerier) GetRefreshToken(_ context.Context, tokenHash string) (dbgen.RefreshToken, error) {
	token, ok := s.tokens[tokenHash]
	if !ok {
		return dbgen.RefreshToken{}, pgx.ErrNoRows
	}
	return token, nil
}

func (s *stubQuerier) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	if token, ok := s.tokens[tokenHash]; ok {
		token.RevokedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
		s.tokens[tokenHash] = token
	}
	return nil
}

func (s *stubQuerier) RevokeRefreshTokensForUser(context.Context, pgtype.UUID) error { return nil }

func (s *stubQuerier) CountCompletedOrdersByUser(context.Context, pgtype.UUID) (int64, error) {
	return s.orders, nil
}

func (s *stubQuerier) SumLifetimeSpendByUser(context.Context, pgtype.UUID) (int64, error) {
	return s.spend, nil
}

func newTestService(t *testing.T, q Querier) *Service {
	t.Helper()
	svc, err := NewService(Config{Queries: q, Secret: "test-secret-test-secret"})
	require.NoError(t, err)
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	q := newStubQuerier()
	svc := newTestService(t, q)

	user, err := svc.Register(context.Background(), "Joss", "joss@example.com", "hunter2hunter2")
	require.NoError(t, err)
	require.Equal(t, RoleCustomer, user.Role)

	result, err := svc.Login(context.Background(), "JOSS@example.com", "hunter2hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)

	userID, role, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)
	require.Equal(t, RoleCustomer, role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	q := newStubQuerier()
	svc := newTestService(t, q)

	_, err := svc.Register(context.Background(), "Joss", "joss@example.com", "hunter2hunter2")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "Other", "joss@example.com", "hunter2hunter2")
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "EMAIL_ALREADY_USED", appErr.Code)
	require.Equal(t, 409, appErr.HTTPStatus)
}

func TestLoginWrongPassword(t *testing.T) {
	q := newStubQuerier()
	svc := newTestService(t, q)

	_, err := svc.Register(context.Background(), "Joss", "joss@example.com", "hunter2hunter2")
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), "joss@example.com", "wrong-password")
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	q := newStubQuerier()
	svc := newTestService(t, q)

	_, err := svc.Register(context.Background(), "Joss", "joss@example.com", "hunter2hunter2")
	require.NoError(t, err)
	result, err := svc.Login(context.Background(), "joss@example.com", "hunter2hunter2")
	require.NoError(t, err)

	pair, err := svc.Refresh(context.Background(), result.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, result.RefreshToken, pair.RefreshToken)

	// The old token is revoked and cannot be replayed.
	_, err = svc.Refresh(context.Background(), result.RefreshToken)
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestRefreshExpiredToken(t *testing.T) {
	q := newStubQuerier()
	svc := newTestService(t, q)

	_, err := svc.Register(context.Background(), "Joss", "joss@example.com", "hunter2hunter2")
	require.NoError(t, err)
	result, err := svc.Login(context.Background(), "joss@example.com", "hunter2hunter2")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return time.Now().Add(31 * 24 * time.Hour) })
	_, err = svc.Refresh(context.Background(), result.RefreshToken)
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	q := newStubQuerier()
	svc := newTestService(t, q)

	_, err := svc.Register(context.Background(), "Joss", "joss@example.com", "hunter2hunter2")
	require.NoError(t, err)
	result, err := svc.Login(context.Background(), "joss@example.com", "hunter2hunter2")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return time.Now().Add(time.Hour) })
	_, _, err = svc.ParseAccessToken(result.AccessToken)
	require.Error(t, err)
}

func TestGetProfileIncludesOrderAggregates(t *testing.T) {
	q := newStubQuerier()
	q.orders = 4
	q.spend = 21500
	svc := newTestService(t, q)

	user, err := svc.Register(context.Background(), "Joss", "joss@example.com", "hunter2hunter2")
	require.NoError(t, err)

	profile, err := svc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(4), profile.CompletedOrders)
	require.Equal(t, int64(21500), profile.LifetimeSpendCents)
}
