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

type UserRepository struct {
	*internal.Database
}

func NewUserRepository(database *internal.Database) *UserRepository {
	return &UserRepository{database}
}

func (repository *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, username, email, password, is_active, is_superuser)
			  VALUES (:id, :username, :email, :password, :is_active, :is_superuser)`

	_, err := repository.DB.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("ошибка вставки пользователя: %w", err)
	}

	return nil
}

func (repository *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT * FROM users WHERE id = $1`
	return repository.getOne(ctx, query, id)
}

func (repository *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT * FROM users WHERE username = $1`
	return repository.getOne(ctx, query, username)
}

func (repository *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT * FROM users WHERE email = $1`
	return repository.getOne(ctx, query, email)
}

// Update сохраняет изменяемые ядром поля: хеш пароля и отметку времени
// последнего запроса на смену пароля.
func (repository *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users
			  SET password = :password, last_reset_request_at = :last_reset_request_at
			  WHERE id = :id`

	_, err := repository.DB.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("ошибка обновления пользователя: %w", err)
	}

	return nil
}

func (repository *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var user model.User

	err := repository.DB.GetContext(ctx, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrObjectNotFound
		}
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	return &user, nil
}
