package model

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken — серверная запись о выданном refresh токене.
// В БД хранится только sha256-хеш «сырого» токена, сам токен остается у клиента.
// Запись никогда не удаляется: истечение определяется по ExpireAt,
// отзыв — по флагу Revoked (переход false -> true выполняется ровно один раз).
type RefreshToken struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	Revoked   bool      `db:"revoked"`
	IssuedAt  time.Time `db:"issued_at"`
	ExpireAt  time.Time `db:"expire_at"`
}

// TokensPair содержит пару access и refresh токенов
// swagger:model
type TokensPair struct {
	// Access токен (JWT)
	// example: eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9...
	AccessToken string `json:"accessToken"`

	// Refresh токен (для получения новой пары)
	// example: eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9...
	RefreshToken string `json:"refreshToken"`
}
