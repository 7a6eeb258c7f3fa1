package apperrors

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidToken — токен поврежден, просрочен, имеет неверную подпись или неверный тип.
	ErrInvalidToken = errors.New("невалидный токен")
	// ErrRefreshTokenRevoked — refresh токен не найден или уже был использован.
	// Формулировка намеренно не различает эти два случая.
	ErrRefreshTokenRevoked = errors.New("refresh токен не найден или уже отозван")
	// ErrAuthorization — неверные учетные данные либо деактивированный аккаунт.
	ErrAuthorization = errors.New("ошибка авторизации")
	// ErrValidation — данные запроса не прошли проверку.
	ErrValidation = errors.New("ошибка валидации данных")
	// ErrRateLimitExceeded — слишком частые запросы на отправку письма для смены пароля.
	ErrRateLimitExceeded = errors.New("превышен лимит запросов")
	// ErrNotFound — пользователь не найден.
	ErrNotFound = errors.New("пользователь не найден")
	// ErrObjectNotFound — объект отсутствует в репозитории.
	ErrObjectNotFound = errors.New("объект не найден")
)

// RateLimitError дополняет ErrRateLimitExceeded временем, оставшимся до
// следующей разрешенной попытки. errors.Is(err, ErrRateLimitExceeded)
// для него возвращает true.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (err *RateLimitError) Error() string {
	return fmt.Sprintf("%v: повторите через %s", ErrRateLimitExceeded, err.RetryAfter.Round(time.Second))
}

func (err *RateLimitError) Unwrap() error {
	return ErrRateLimitExceeded
}
