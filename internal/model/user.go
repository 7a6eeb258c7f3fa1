package model

import (
	"time"

	"github.com/google/uuid"
)

// User — учетная запись пользователя. Password содержит bcrypt-хеш,
// открытый пароль нигде не сохраняется и не логируется.
// LastResetRequestAt используется для ограничения частоты запросов
// на смену пароля (может быть NULL, если запросов еще не было).
type User struct {
	ID                 uuid.UUID  `db:"id"`
	Username           string     `db:"username"`
	Email              string     `db:"email"`
	Password           string     `db:"password"`
	IsActive           bool       `db:"is_active"`
	IsSuperuser        bool       `db:"is_superuser"`
	LastResetRequestAt *time.Time `db:"last_reset_request_at"`
}
