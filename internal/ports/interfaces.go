package ports

import (
	"context"

	"BookshelfAuth/internal/model"
	"BookshelfAuth/internal/security"
	"github.com/google/uuid"
)

type TokenServiceInterface interface {
	CreateTokenPair(userID uuid.UUID) (*model.TokensPair, *model.RefreshToken, error)
	VerifyAndDecode(token string) (*security.TokenClaims, error)
	TokenHash(token string) string
	CreateResetToken(email string) (string, error)
	DecodeResetToken(token string) (string, error)
}

type RefreshTokenRepositoryInterface interface {
	Save(ctx context.Context, token *model.RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	// Revoke выполняет атомарный переход revoked: false -> true.
	// Если запись не найдена или уже отозвана — apperrors.ErrObjectNotFound.
	Revoke(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

type UserRepositoryInterface interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type PasswordHasherInterface interface {
	Hash(password string) (string, error)
	Verify(password string, digest string) bool
}

// TaskRunnerInterface — fire-and-forget запуск фоновой задачи по имени.
// Ошибки выполнения логируются и не возвращаются вызывающему.
type TaskRunnerInterface interface {
	RunTask(name string, args ...string)
}

type CaptchaVerifierInterface interface {
	Verify(ctx context.Context, captchaToken string, remoteIP string) (bool, error)
}
