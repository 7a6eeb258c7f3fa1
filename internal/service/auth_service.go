package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"BookshelfAuth/internal/apperrors"
	"BookshelfAuth/internal/model"
	"BookshelfAuth/internal/notifier"
	"BookshelfAuth/internal/ports"
	"BookshelfAuth/internal/security"
	"github.com/google/uuid"
)

// AuthService управляет жизненным циклом сессий: выдача пары токенов при входе,
// одноразовая ротация refresh токена и отзыв токенов при выходе.
type AuthService struct {
	TokenService     ports.TokenServiceInterface
	RefreshTokenRepo ports.RefreshTokenRepositoryInterface
	UserRepository   ports.UserRepositoryInterface
	PasswordHasher   ports.PasswordHasherInterface
	WebhookURL       string
}

func NewAuthService(
	tokenService ports.TokenServiceInterface,
	refreshTokenRepo ports.RefreshTokenRepositoryInterface,
	userRepository ports.UserRepositoryInterface,
	passwordHasher ports.PasswordHasherInterface,
	webhookURL string,
) *AuthService {
	return &AuthService{
		TokenService:     tokenService,
		RefreshTokenRepo: refreshTokenRepo,
		UserRepository:   userRepository,
		PasswordHasher:   passwordHasher,
		WebhookURL:       webhookURL,
	}
}

// Login проверяет учетные данные и выдает новую пару токенов.
// Неверный логин, неверный пароль и деактивированный аккаунт возвращают
// одинаковый apperrors.ErrAuthorization.
func (service *AuthService) Login(ctx context.Context, username string, password string) (*model.TokensPair, error) {
	user, err := service.UserRepository.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: неверный логин или пароль", apperrors.ErrAuthorization)
		}
		return nil, fmt.Errorf("не удалось найти пользователя: %w", err)
	}

	if service.PasswordHasher.Verify(password, user.Password) == false {
		return nil, fmt.Errorf("%w: неверный логин или пароль", apperrors.ErrAuthorization)
	}
	if user.IsActive == false {
		return nil, fmt.Errorf("%w: пользователь деактивирован", apperrors.ErrAuthorization)
	}

	pair, record, err := service.TokenService.CreateTokenPair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации токенов: %w", err)
	}

	if err := service.RefreshTokenRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("не удалось сохранить refresh токен: %w", err)
	}

	return pair, nil
}

// Refresh обменивает refresh токен на новую пару и отзывает использованный.
// Каждый выданный refresh токен можно обменять ровно один раз: использованный
// сначала отзывается условным UPDATE и только потом выпускается новая пара,
// поэтому при конкурентных запросах выигрывает не более одного.
func (service *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokensPair, error) {
	claims, err := service.TokenService.VerifyAndDecode(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != security.TokenTypeRefresh {
		return nil, fmt.Errorf("%w: ожидался refresh токен, получен '%s'", apperrors.ErrInvalidToken, claims.TokenType)
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	tokenHash := service.TokenService.TokenHash(refreshToken)
	storedToken, err := service.RefreshTokenRepo.FindByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, apperrors.ErrObjectNotFound) {
			return nil, apperrors.ErrRefreshTokenRevoked
		}
		return nil, fmt.Errorf("не удалось найти refresh токен: %w", err)
	}

	if storedToken.Revoked == true {
		service.notifyReplay(storedToken.UserID)
		return nil, apperrors.ErrRefreshTokenRevoked
	}
	if time.Now().After(storedToken.ExpireAt) {
		return nil, fmt.Errorf("%w: токен просрочен", apperrors.ErrInvalidToken)
	}

	if err := service.RefreshTokenRepo.Revoke(ctx, tokenHash); err != nil {
		if errors.Is(err, apperrors.ErrObjectNotFound) {
			// конкурентный запрос успел использовать токен первым
			service.notifyReplay(storedToken.UserID)
			return nil, apperrors.ErrRefreshTokenRevoked
		}
		return nil, fmt.Errorf("не удалось использовать токен: %w", err)
	}

	pair, record, err := service.TokenService.CreateTokenPair(userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации токенов: %w", err)
	}

	if err := service.RefreshTokenRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("не удалось сохранить refresh токен: %w", err)
	}

	return pair, nil
}

// Logout отзывает все активные refresh токены пользователя.
func (service *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := service.RefreshTokenRepo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("не удалось выполнить выход: %w", err)
	}
	return nil
}

// UserByAccessToken возвращает пользователя по access токену.
func (service *AuthService) UserByAccessToken(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := service.TokenService.VerifyAndDecode(accessToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != security.TokenTypeAccess {
		return nil, fmt.Errorf("%w: ожидался access токен, получен '%s'", apperrors.ErrInvalidToken, claims.TokenType)
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := service.UserRepository.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: пользователь не найден", apperrors.ErrInvalidToken)
		}
		return nil, fmt.Errorf("не удалось найти пользователя: %w", err)
	}

	return user, nil
}

// RegisterUser создает новую учетную запись с захешированным паролем.
func (service *AuthService) RegisterUser(ctx context.Context, username, email, password string) (*model.User, error) {
	passwordHash, err := service.PasswordHasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	user := &model.User{
		ID:       uuid.New(),
		Username: username,
		Email:    email,
		Password: passwordHash,
		IsActive: true,
	}

	if err := service.UserRepository.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("не удалось создать пользователя: %w", err)
	}

	return user, nil
}

func (service *AuthService) notifyReplay(userID uuid.UUID) {
	if service.WebhookURL == "" {
		return
	}
	log.Printf("обнаружено повторное использование отозванного refresh токена, отправка webhook")
	go func() {
		if err := notifier.NotifyWebhook(service.WebhookURL, userID.String()); err != nil {
			log.Printf("ошибка отправки webhook: %v", err)
		}
	}()
}
