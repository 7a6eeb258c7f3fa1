package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"BookshelfAuth/internal"
	"BookshelfAuth/internal/apperrors"
	"BookshelfAuth/internal/model"
	"github.com/google/uuid"
)

type RefreshTokenRepository struct {
	*internal.Database
}

func NewRefreshTokenRepository(database *internal.Database) *RefreshTokenRepository {
	return &RefreshTokenRepository{database}
}

func (repository *RefreshTokenRepository) Save(ctx context.Context, token *model.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (id, user_id, token_hash, revoked, issued_at, expire_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repository.DB.ExecContext(ctx, query,
		token.ID, token.UserID, token.TokenHash, token.Revoked, token.IssuedAt, token.ExpireAt)

	if err != nil {
		return fmt.Errorf("ошибка вставки данных в БД: %w", err)
	}

	return nil
}

func (repository *RefreshTokenRepository) FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	var token model.RefreshToken

	query := `SELECT id, user_id, token_hash, revoked, issued_at, expire_at
			  FROM refresh_tokens WHERE token_hash = $1`
	err := repository.DB.GetContext(ctx, &token, query, tokenHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrObjectNotFound
		}
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	return &token, nil
}

// Revoke отзывает токен одним условным UPDATE. Проверка revoked = FALSE
// выполняется в самом запросе, чтобы два конкурентных запроса с одним и тем же
// токеном не смогли оба завершиться успешно.
func (repository *RefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE token_hash = $1 AND revoked = FALSE`

	result, err := repository.DB.ExecContext(ctx, query, tokenHash)
	if err != nil {
		return fmt.Errorf("не удалось отозвать refresh токен: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("не удалось проверить, отозван ли токен: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrObjectNotFound
	}

	return nil
}

func (repository *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND revoked = FALSE`

	_, err := repository.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("не удалось отозвать refresh токены пользователя: %w", err)
	}

	return nil
}
