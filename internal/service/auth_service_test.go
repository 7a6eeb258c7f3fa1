package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"BookshelfAuth/internal/apperrors"
	"BookshelfAuth/internal/model"
	"BookshelfAuth/internal/security"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) CreateTokenPair(userID uuid.UUID) (*model.TokensPair, *model.RefreshToken, error) {
	args := m.Called(userID)
	pair, _ := args.Get(0).(*model.TokensPair)
	record, _ := args.Get(1).(*model.RefreshToken)
	return pair, record, args.Error(2)
}

func (m *MockTokenService) VerifyAndDecode(token string) (*security.TokenClaims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(*security.TokenClaims)
	return claims, args.Error(1)
}

func (m *MockTokenService) TokenHash(token string) string {
	return m.Called(token).String(0)
}

func (m *MockTokenService) CreateResetToken(email string) (string, error) {
	args := m.Called(email)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) DecodeResetToken(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Save(ctx context.Context, token *model.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockRefreshTokenRepository) FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	token, _ := args.Get(0).(*model.RefreshToken)
	return token, args.Error(1)
}

func (m *MockRefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}

func (m *MockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(password string, digest string) bool {
	return m.Called(password, digest).Bool(0)
}

func refreshClaims(userID uuid.UUID) *security.TokenClaims {
	return &security.TokenClaims{
		TokenType: security.TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

// 1
func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	mockTokenService := new(MockTokenService)
	mockRepo := new(MockRefreshTokenRepository)
	mockUsers := new(MockUserRepository)
	mockHasher := new(MockPasswordHasher)

	authService := NewAuthService(mockTokenService, mockRepo, mockUsers, mockHasher, "")

	userID := uuid.New()
	user := &model.User{ID: userID, Username: "reader", Password: "digest", IsActive: true}

	mockUsers.On("GetByUsername", ctx, "reader").Return(user, nil)
	mockHasher.On("Verify", "StrongPass1", "digest").Return(true)
	mockTokenService.On("CreateTokenPair", userID).Return(
		&model.TokensPair{AccessToken: "access", RefreshToken: "refresh"},
		&model.RefreshToken{ID: uuid.New(), UserID: userID},
		nil,
	)
	mockRepo.On("Save", ctx, mock.Anything).Return(nil)

	pair, err := authService.Login(ctx, "reader", "StrongPass1")
	require.NoError(t, err)
	assert.Equal(t, "access", pair.AccessToken)
	assert.Equal(t, "refresh", pair.RefreshToken)
	mockRepo.AssertCalled(t, "Save", ctx, mock.Anything)
}

// 2
func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	mockUsers := new(MockUserRepository)
	mockHasher := new(MockPasswordHasher)

	authService := NewAuthService(new(MockTokenService), new(MockRefreshTokenRepository), mockUsers, mockHasher, "")

	user := &model.User{ID: uuid.New(), Username: "reader", Password: "digest", IsActive: true}
	mockUsers.On("GetByUsername", ctx, "reader").Return(user, nil)
	mockHasher.On("Verify", "wrong", "digest").Return(false)

	_, err := authService.Login(ctx, "reader", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)
}

// 3
func TestLogin_UserNotFound(t *testing.T) {
	ctx := context.Background()
	mockUsers := new(MockUserRepository)

	authService := NewAuthService(new(MockTokenService), new(MockRefreshTokenRepository), mockUsers, new(MockPasswordHasher), "")

	mockUsers.On("GetByUsername", ctx, "ghost").Return(nil, apperrors.ErrObjectNotFound)

	_, err := authService.Login(ctx, "ghost", "any")
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)
}

// 4
func TestLogin_InactiveUser(t *testing.T) {
	ctx := context.Background()
	mockUsers := new(MockUserRepository)
	mockHasher := new(MockPasswordHasher)

	authService := NewAuthService(new(MockTokenService), new(MockRefreshTokenRepository), mockUsers, mockHasher, "")

	user := &model.User{ID: uuid.New(), Username: "reader", Password: "digest", IsActive: false}
	mockUsers.On("GetByUsername", ctx, "reader").Return(user, nil)
	mockHasher.On("Verify", "StrongPass1", "digest").Return(true)

	_, err := authService.Login(ctx, "reader", "StrongPass1")
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)
}

// 5
func TestRefresh_Success(t *testing.T) {
	ctx := context.Background()
	mockTokenService := new(MockTokenService)
	mockRepo := new(MockRefreshTokenRepository)

	authService := NewAuthService(mockTokenService, mockRepo, new(MockUserRepository), new(MockPasswordHasher), "")

	userID := uuid.New()
	mockTokenService.On("VerifyAndDecode", "old-refresh").Return(refreshClaims(userID), nil)
	mockTokenService.On("TokenHash", "old-refresh").Return("old-hash")

	storedToken := &model.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: "old-hash",
		Revoked:   false,
		ExpireAt:  time.Now().Add(time.Hour),
	}
	mockRepo.On("FindByHash", ctx, "old-hash").Return(storedToken, nil)
	mockRepo.On("Revoke", ctx, "old-hash").Return(nil)

	mockTokenService.On("CreateTokenPair", userID).Return(
		&model.TokensPair{AccessToken: "new-access", RefreshToken: "new-refresh"},
		&model.RefreshToken{ID: uuid.New(), UserID: userID, TokenHash: "new-hash"},
		nil,
	)
	mockRepo.On("Save", ctx, mock.Anything).Return(nil)

	pair, err := authService.Refresh(ctx, "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-access", pair.AccessToken)
	assert.Equal(t, "new-refresh", pair.RefreshToken)
	mockRepo.AssertCalled(t, "Revoke", ctx, "old-hash")
}

// 6
func TestRefresh_AccessTokenRejected(t *testing.T) {
	ctx := context.Background()
	mockTokenService := new(MockTokenService)
	mockRepo := new(MockRefreshTokenRepository)

	authService := NewAuthService(mockTokenService, mockRepo, new(MockUserRepository), new(MockPasswordHasher), "")

	claims := &security.TokenClaims{
		TokenType:        security.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.New().String()},
	}
	mockTokenService.On("VerifyAndDecode", "access-token").Return(claims, nil)

	_, err := authService.Refresh(ctx, "access-token")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	mockRepo.AssertNotCalled(t, "FindByHash", mock.Anything, mock.Anything)
}

// 7
func TestRefresh_TokenNotFound(t *testing.T) {
	ctx := context.Background()
	mockTokenService := new(MockTokenService)
	mockRepo := new(MockRefreshTokenRepository)

	authService := NewAuthService(mockTokenService, mockRepo, new(MockUserRepository), new(MockPasswordHasher), "")

	mockTokenService.On("VerifyAndDecode", "unknown").Return(refreshClaims(uuid.New()), nil)
	mockTokenService.On("TokenHash", "unknown").Return("unknown-hash")
	mockRepo.On("FindByHash", ctx, "unknown-hash").Return(nil, apperrors.ErrObjectNotFound)

	_, err := authService.Refresh(ctx, "unknown")
	assert.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)
}

// 8
func TestRefresh_AlreadyRevoked(t *testing.T) {
	ctx := context.Background()
	mockTokenService := new(MockTokenService)
	mockRepo := new(MockRefreshTokenRepository)

	authService := NewAuthService(mockTokenService, mockRepo, new(MockUserRepository), new(MockPasswordHasher), "")

	userID := uuid.New()
	mockTokenService.On("VerifyAndDecode", "used-refresh").Return(refreshClaims(userID), nil)
	mockTokenService.On("TokenHash", "used-refresh").Return("used-hash")

	storedToken := &model.RefreshToken{
		UserID:    userID,
		TokenHash: "used-hash",
		Revoked:   true,
		ExpireAt:  time.Now().Add(time.Hour),
	}
	mockRepo.On("FindByHash", ctx, "used-hash").Return(storedToken, nil)

	_, err := authService.Refresh(ctx, "used-refresh")
	assert.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)
	mockRepo.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
}

// 9
func TestRefresh_RevokeLostRace(t *testing.T) {
	ctx := context.Background()
	mockTokenService := new(MockTokenService)
	mockRepo := new(MockRefreshTokenRepository)

	authService := NewAuthService(mockTokenService, mockRepo, new(MockUserRepository), new(MockPasswordHasher), "")

	userID := uuid.New()
	mockTokenService.On("VerifyAndDecode", "raced-refresh").Return(refreshClaims(userID), nil)
	mockTokenService.On("TokenHash", "raced-refresh").Return("raced-hash")

	storedToken := &model.RefreshToken{
		UserID:    userID,
		TokenHash: "raced-hash",
		Revoked:   false,
		ExpireAt:  time.Now().Add(time.Hour),
	}
	mockRepo.On("FindByHash", ctx, "raced-hash").Return(storedToken, nil)
	// конкурентный запрос успел отозвать токен между чтением и UPDATE
	mockRepo.On("Revoke", ctx, "raced-hash").Return(apperrors.ErrObjectNotFound)

	_, err := authService.Refresh(ctx, "raced-refresh")
	assert.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)
	mockTokenService.AssertNotCalled(t, "CreateTokenPair", mock.Anything)
}

// 10
func TestRefresh_StoredTokenExpired(t *testing.T) {
	ctx := context.Background()
	mockTokenService := new(MockTokenService)
	mockRepo := new(MockRefreshTokenRepository)

	authService := NewAuthService(mockTokenService, mockRepo, new(MockUserRepository), new(MockPasswordHasher), "")

	userID := uuid.New()
	mockTokenService.On("VerifyAndDecode", "stale-refresh").Return(refreshClaims(userID), nil)
	mockTokenService.On("TokenHash", "stale-refresh").Return("stale-hash")

	storedToken := &model.RefreshToken{
		UserID:    userID,
		TokenHash: "stale-hash",
		Revoked:   false,
		ExpireAt:  time.Now().Add(-time.Hour),
	}
	mockRepo.On("FindByHash", ctx, "stale-hash").Return(storedToken, nil)

	_, err := authService.Refresh(ctx, "stale-refresh")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

// 11
func TestLogout_RevokesAllUserTokens(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockRefreshTokenRepository)

	authService := NewAuthService(new(MockTokenService), mockRepo, new(MockUserRepository), new(MockPasswordHasher), "")

	userID := uuid.New()
	mockRepo.On("RevokeAllForUser", ctx, userID).Return(nil)

	err := authService.Logout(ctx, userID)
	require.NoError(t, err)
	mockRepo.AssertCalled(t, "RevokeAllForUser", ctx, userID)
}

// 12
func TestUserByAccessToken_RefreshTokenRejected(t *testing.T) {
	ctx := context.Background()
	mockTokenService := new(MockTokenService)
	mockUsers := new(MockUserRepository)

	authService := NewAuthService(mockTokenService, new(MockRefreshTokenRepository), mockUsers, new(MockPasswordHasher), "")

	mockTokenService.On("VerifyAndDecode", "refresh-token").Return(refreshClaims(uuid.New()), nil)

	_, err := authService.UserByAccessToken(ctx, "refresh-token")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	mockUsers.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

// fakeRefreshTokenStore — хранилище в памяти с атомарным условным отзывом,
// для сквозных сценариев ротации с настоящим JWTService.
type fakeRefreshTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*model.RefreshToken
}

func newFakeRefreshTokenStore() *fakeRefreshTokenStore {
	return &fakeRefreshTokenStore{tokens: make(map[string]*model.RefreshToken)}
}

func (store *fakeRefreshTokenStore) Save(ctx context.Context, token *model.RefreshToken) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	copied := *token
	store.tokens[token.TokenHash] = &copied
	return nil
}

func (store *fakeRefreshTokenStore) FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	token, ok := store.tokens[tokenHash]
	if ok == false {
		return nil, apperrors.ErrObjectNotFound
	}
	copied := *token
	return &copied, nil
}

func (store *fakeRefreshTokenStore) Revoke(ctx context.Context, tokenHash string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	token, ok := store.tokens[tokenHash]
	if ok == false || token.Revoked {
		return apperrors.ErrObjectNotFound
	}
	token.Revoked = true
	return nil
}

func (store *fakeRefreshTokenStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, token := range store.tokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

// 13: сквозной сценарий ротации — каждый refresh токен обменивается ровно один раз
func TestRefresh_RotationSingleUse(t *testing.T) {
	ctx := context.Background()
	jwtService := security.NewJWTService([]byte("test-secret"), 30*time.Minute, 24*time.Hour, 10*time.Minute)
	store := newFakeRefreshTokenStore()

	authService := NewAuthService(jwtService, store, new(MockUserRepository), new(MockPasswordHasher), "")

	userID := uuid.New()
	pair, record, err := jwtService.CreateTokenPair(userID)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, record))

	newPair, err := authService.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	// повторный обмен того же токена отклоняется
	_, err = authService.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)

	// новый токен из выданной пары работает
	_, err = authService.Refresh(ctx, newPair.RefreshToken)
	require.NoError(t, err)
}

// 14: после logout все ранее выданные refresh токены пользователя отклоняются
func TestLogout_InvalidatesIssuedTokens(t *testing.T) {
	ctx := context.Background()
	jwtService := security.NewJWTService([]byte("test-secret"), 30*time.Minute, 24*time.Hour, 10*time.Minute)
	store := newFakeRefreshTokenStore()

	authService := NewAuthService(jwtService, store, new(MockUserRepository), new(MockPasswordHasher), "")

	userID := uuid.New()
	pair1, record1, err := jwtService.CreateTokenPair(userID)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, record1))

	pair2, record2, err := jwtService.CreateTokenPair(userID)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, record2))

	require.NoError(t, authService.Logout(ctx, userID))

	_, err = authService.Refresh(ctx, pair1.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)
	_, err = authService.Refresh(ctx, pair2.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)
}
