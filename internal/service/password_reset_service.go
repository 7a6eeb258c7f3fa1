package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BookshelfAuth/internal/apperrors"
	"BookshelfAuth/internal/model"
	"BookshelfAuth/internal/ports"
)

// SendResetPasswordEmailTask — имя фоновой задачи отправки письма для смены пароля.
const SendResetPasswordEmailTask = "send_reset_password_email"

// PasswordResetService — независимый от access/refresh схемы поток смены пароля
// через stateless подписанный токен, в котором зашит email пользователя.
type PasswordResetService struct {
	TokenService    ports.TokenServiceInterface
	UserRepository  ports.UserRepositoryInterface
	PasswordHasher  ports.PasswordHasherInterface
	CaptchaVerifier ports.CaptchaVerifierInterface
	TaskRunner      ports.TaskRunnerInterface
	Cooldown        time.Duration
}

func NewPasswordResetService(
	tokenService ports.TokenServiceInterface,
	userRepository ports.UserRepositoryInterface,
	passwordHasher ports.PasswordHasherInterface,
	captchaVerifier ports.CaptchaVerifierInterface,
	taskRunner ports.TaskRunnerInterface,
	cooldown time.Duration,
) *PasswordResetService {
	return &PasswordResetService{
		TokenService:    tokenService,
		UserRepository:  userRepository,
		PasswordHasher:  passwordHasher,
		CaptchaVerifier: captchaVerifier,
		TaskRunner:      taskRunner,
		Cooldown:        cooldown,
	}
}

// RequestReset ставит отметку времени запроса и запускает фоновую отправку
// письма со ссылкой для смены пароля. Повторный запрос раньше, чем через
// Cooldown, отклоняется. Ошибка самой отправки письма не влияет на результат.
func (service *PasswordResetService) RequestReset(ctx context.Context, email string, captchaToken string, remoteIP string) error {
	user, err := service.UserRepository.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrObjectNotFound) {
			return fmt.Errorf("%w: пользователь с таким email не найден", apperrors.ErrNotFound)
		}
		return fmt.Errorf("не удалось найти пользователя: %w", err)
	}

	if user.LastResetRequestAt != nil && time.Since(*user.LastResetRequestAt) < service.Cooldown {
		return &apperrors.RateLimitError{RetryAfter: service.Cooldown - time.Since(*user.LastResetRequestAt)}
	}

	passed, err := service.CaptchaVerifier.Verify(ctx, captchaToken, remoteIP)
	if err != nil || passed == false {
		return fmt.Errorf("%w: проверка капчи не пройдена", apperrors.ErrValidation)
	}

	now := time.Now()
	user.LastResetRequestAt = &now
	if err := service.UserRepository.Update(ctx, user); err != nil {
		return fmt.Errorf("не удалось обновить пользователя: %w", err)
	}

	service.TaskRunner.RunTask(SendResetPasswordEmailTask, user.Email)
	return nil
}

// ResolveToken возвращает пользователя, которому принадлежит токен смены пароля.
func (service *PasswordResetService) ResolveToken(ctx context.Context, resetToken string) (*model.User, error) {
	email, err := service.TokenService.DecodeResetToken(resetToken)
	if err != nil {
		return nil, err
	}

	user, err := service.UserRepository.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: пользователь с таким email не найден", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("не удалось найти пользователя: %w", err)
	}

	return user, nil
}

// Consume меняет пароль пользователя по токену смены пароля.
// Совпадение паролей проверяется до любых обращений к хранилищу.
func (service *PasswordResetService) Consume(ctx context.Context, resetToken string, password1 string, password2 string) error {
	if password1 != password2 {
		return fmt.Errorf("%w: пароли не совпадают", apperrors.ErrValidation)
	}

	user, err := service.ResolveToken(ctx, resetToken)
	if err != nil {
		return err
	}

	passwordHash, err := service.PasswordHasher.Hash(password1)
	if err != nil {
		return fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	user.Password = passwordHash
	if err := service.UserRepository.Update(ctx, user); err != nil {
		return fmt.Errorf("не удалось обновить пользователя: %w", err)
	}

	return nil
}
