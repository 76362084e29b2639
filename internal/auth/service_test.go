package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-subshop/internal/common"
)

type stubStore struct {
	byEmail map[string]UserModel
	byID    map[uuid.UUID]UserModel
	created []UserModel
}

func newStubStore() *stubStore {
	return &stubStore{
		byEmail: map[string]UserModel{},
		byID:    map[uuid.UUID]UserModel{},
	}
}

func (s *stubStore) add(u UserModel) {
	s.byEmail[u.Email] = u
	s.byID[u.ID] = u
}

func (s *stubStore) CreateUser(_ context.Context, name, email, passwordHash, role string) (UserModel, error) {
	u := UserModel{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.add(u)
	s.created = append(s.created, u)
	return u, nil
}

func (s *stubStore) GetUserByEmail(_ context.Context, email string) (UserModel, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return UserModel{}, context.Canceled
	}
	return u, nil
}

func (s *stubStore) GetUserByID(_ context.Context, id uuid.UUID) (UserModel, error) {
	u, ok := s.byID[id]
	if !ok {
		return UserModel{}, context.Canceled
	}
	return u, nil
}

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Store:          store,
		Secret:         "test-secret-that-is-long-enough",
		AccessTokenTTL: time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func TestRegisterNormalizesEmailAndAssignsCustomerRole(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)

	user, err := svc.Register(context.Background(), "  Jo  ", "  Jo@Example.COM ", "hunter2secret")
	require.NoError(t, err)

	assert.Equal(t, "jo@example.com", user.Email)
	assert.Equal(t, RoleCustomer, user.Role)
	require.Len(t, store.created, 1)
	assert.NotEqual(t, "hunter2secret", store.created[0].PasswordHash)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newTestService(t, newStubStore())

	_, err := svc.Register(context.Background(), "Jo", "jo@example.com", "short")
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestLoginIssuesTokenThatRoundTrips(t *testing.T) {
	store := newStubStore()
	hash, err := argon2id.CreateHash("correct horse battery", argon2id.DefaultParams)
	require.NoError(t, err)
	admin := UserModel{
		ID:           uuid.New(),
		Name:         "Root",
		Email:        "root@example.com",
		PasswordHash: hash,
		Role:         RoleAdmin,
	}
	store.add(admin)

	svc := newTestService(t, store)

	result, err := svc.Login(context.Background(), "Root@Example.com", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, RoleAdmin, result.User.Role)

	claims, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, admin.ID.String(), claims.UserID)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	store := newStubStore()
	hash, err := argon2id.CreateHash("correct horse battery", argon2id.DefaultParams)
	require.NoError(t, err)
	store.add(UserModel{ID: uuid.New(), Email: "root@example.com", PasswordHash: hash, Role: RoleAdmin})

	svc := newTestService(t, store)

	_, err = svc.Login(context.Background(), "root@example.com", "wrong")
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
	assert.Equal(t, 401, appErr.HTTPStatus)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	svc := newTestService(t, newStubStore())

	past := time.Now().Add(-time.Hour)
	svc.WithNow(func() time.Time { return past })
	token, _, err := svc.signAccessToken(uuid.NewString(), RoleCustomer)
	require.NoError(t, err)

	svc.WithNow(time.Now)
	_, err = svc.ParseAccessToken(token)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	svc := newTestService(t, newStubStore())

	_, err := svc.ParseAccessToken("not-a-token")
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}
