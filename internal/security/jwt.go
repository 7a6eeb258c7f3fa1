package security

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"BookshelfAuth/internal/apperrors"
	"BookshelfAuth/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	tokenTypeReset   = "reset"
)

// TokenClaims — полезная нагрузка подписанного токена.
// Subject содержит идентификатор пользователя (для reset токена — email).
type TokenClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// UserID разбирает Subject как UUID пользователя.
func (claims *TokenClaims) UserID() (uuid.UUID, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: некорректный идентификатор пользователя", apperrors.ErrInvalidToken)
	}
	return userID, nil
}

// JWTService подписывает и проверяет JWT токены. Секрет и время жизни
// передаются явно при создании, сервис не читает глобальное состояние.
type JWTService struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
}

func NewJWTService(secretKey []byte, accessTTL, refreshTTL, resetTTL time.Duration) *JWTService {
	return &JWTService{
		secretKey:  secretKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
	}
}

// CreateTokenPair выпускает пару access/refresh токенов для пользователя
// и возвращает вместе с ней запись refresh токена для сохранения в БД.
// access всегда истекает строго раньше refresh.
func (service *JWTService) CreateTokenPair(userID uuid.UUID) (*model.TokensPair, *model.RefreshToken, error) {
	now := time.Now()

	accessToken, err := service.signToken(userID.String(), TokenTypeAccess, now, now.Add(service.accessTTL))
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка подписи access токена: %w", err)
	}

	refreshExpireAt := now.Add(service.refreshTTL)
	refreshToken, err := service.signToken(userID.String(), TokenTypeRefresh, now, refreshExpireAt)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка подписи refresh токена: %w", err)
	}

	record := &model.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: service.TokenHash(refreshToken),
		Revoked:   false,
		IssuedAt:  now,
		ExpireAt:  refreshExpireAt,
	}

	pair := &model.TokensPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	return pair, record, nil
}

// VerifyAndDecode проверяет подпись и срок действия токена.
// Любая проблема (подпись, структура, истечение, неизвестный тип)
// возвращается как apperrors.ErrInvalidToken.
func (service *JWTService) VerifyAndDecode(tokenStr string) (*TokenClaims, error) {
	claims, err := service.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess && claims.TokenType != TokenTypeRefresh {
		return nil, fmt.Errorf("%w: неизвестный тип токена '%s'", apperrors.ErrInvalidToken, claims.TokenType)
	}
	return claims, nil
}

// TokenHash возвращает детерминированный односторонний sha256-хеш токена.
// Используется как ключ хранения, восстановить исходный токен по нему нельзя.
func (service *JWTService) TokenHash(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}

// CreateResetToken выпускает отдельный stateless токен для смены пароля,
// в котором зашит email пользователя. На сервере он нигде не сохраняется.
func (service *JWTService) CreateResetToken(email string) (string, error) {
	now := time.Now()
	resetToken, err := service.signToken(email, tokenTypeReset, now, now.Add(service.resetTTL))
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена для сброса пароля: %w", err)
	}
	return resetToken, nil
}

// DecodeResetToken возвращает email из токена для смены пароля.
func (service *JWTService) DecodeResetToken(tokenStr string) (string, error) {
	claims, err := service.parse(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.TokenType != tokenTypeReset {
		return "", fmt.Errorf("%w: ожидался токен для сброса пароля, получен '%s'", apperrors.ErrInvalidToken, claims.TokenType)
	}
	return claims.Subject, nil
}

func (service *JWTService) signToken(subject string, tokenType string, issuedAt, expireAt time.Time) (string, error) {
	claims := TokenClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti делает каждый токен уникальным: без него два токена одного
			// типа, выпущенные пользователю в одну секунду, совпали бы байт
			// в байт вместе со своим sha256-хешем
			ID:        uuid.New().String(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expireAt),
		},
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return jwtToken.SignedString(service.secretKey)
}

func (service *JWTService) parse(tokenStr string) (*TokenClaims, error) {
	var claims = &TokenClaims{}

	jwtToken, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Header["alg"] != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", token.Header["alg"])
		}
		return service.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}
	if jwtToken.Valid == false {
		return nil, apperrors.ErrInvalidToken
	}

	return claims, nil
}
