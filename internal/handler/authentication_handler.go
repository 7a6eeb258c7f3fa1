package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"BookshelfAuth/internal/apperrors"
	"BookshelfAuth/internal/model"
	"BookshelfAuth/internal/ports"
	"BookshelfAuth/internal/security"
	"BookshelfAuth/internal/service"
	"github.com/go-chi/chi/v5"
)

type AuthenticationHandler struct {
	AuthService          *service.AuthService
	PasswordResetService *service.PasswordResetService
	CaptchaVerifier      ports.CaptchaVerifierInterface
	ResetCooldown        time.Duration
}

// CredentialsRequest содержит учетные данные пользователя
// swagger:model
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest содержит данные для регистрации
// swagger:model
type RegisterRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// RefreshTokenRequest содержит refresh токен в json формате
// swagger:model
type RefreshTokenRequest struct {
	// Refresh токен
	// example: eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9...
	RefreshToken string `json:"refreshToken"`
}

// ForgotPasswordRequest содержит email и токен капчи
// swagger:model
type ForgotPasswordRequest struct {
	Email          string `json:"email"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// ForgotPasswordResponse содержит результат запроса на смену пароля
// swagger:model
type ForgotPasswordResponse struct {
	Detail  string `json:"detail"`
	Success bool   `json:"success"`
}

// ResetPasswordRequest содержит токен смены пароля и новый пароль с подтверждением
// swagger:model
type ResetPasswordRequest struct {
	Token     string `json:"token"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

// UserResponse содержит публичные данные пользователя
// swagger:model
type UserResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsActive    bool   `json:"isActive"`
	IsSuperuser bool   `json:"isSuperuser"`
}

// LogoutResponse содержит строку с сообщением
// swagger:model
type LogoutResponse struct {
	// Сообщение о результате операции
	// example: выполнен выход из аккаунта
	Message string `json:"message"`
}

func NewAuthenticationHandler(
	authService *service.AuthService,
	passwordResetService *service.PasswordResetService,
	captchaVerifier ports.CaptchaVerifierInterface,
	resetCooldown time.Duration,
) *AuthenticationHandler {
	return &AuthenticationHandler{
		AuthService:          authService,
		PasswordResetService: passwordResetService,
		CaptchaVerifier:      captchaVerifier,
		ResetCooldown:        resetCooldown,
	}
}

// RegisterUser регистрирует нового пользователя
// @Summary Регистрация
// @Description Создает учетную запись после проверки капчи. Пример запроса: POST /api-auth/users с телом {"username": "...", "email": "...", "password": "...", "recaptchaToken": "..."}
// @Tags Authentication
// @Accept json
// @Produce json
// @Success 200 {object} UserResponse "созданный пользователь"
// @Failure 400 {string} string "неверный json"
// @Failure 422 {string} string "проверка капчи не пройдена"
// @Router /users [post]
func (handler *AuthenticationHandler) RegisterUser(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), 10*time.Second)
	defer cancel()

	var registerRequest RegisterRequest
	if err := json.NewDecoder(request.Body).Decode(&registerRequest); err != nil {
		http.Error(writer, "неверный json", http.StatusBadRequest)
		return
	}

	passed, err := handler.CaptchaVerifier.Verify(ctx, registerRequest.RecaptchaToken, request.RemoteAddr)
	if err != nil || passed == false {
		http.Error(writer, "вы не прошли проверку для регистрации", http.StatusUnprocessableEntity)
		return
	}

	user, err := handler.AuthService.RegisterUser(ctx, registerRequest.Username, registerRequest.Email, registerRequest.Password)
	if err != nil {
		log.Printf("не удалось зарегистрировать пользователя: %v", err)
		http.Error(writer, "не удалось зарегистрировать пользователя", http.StatusBadRequest)
		return
	}

	writeJSON(writer, userResponse(user))
}

// Login выдает пару access/refresh токенов по учетным данным
// @Summary Вход
// @Description Проверяет логин и пароль, выдает пару JWT-токенов и сохраняет refresh-токен в БД. Пример запроса: POST /api-auth/login с телом {"username": "...", "password": "..."}
// @Tags Authentication
// @Accept json
// @Produce json
// @Success 200 {object} model.TokensPair "успешный вход"
// @Failure 400 {string} string "неверный json"
// @Failure 401 {string} string "неверный логин или пароль"
// @Router /login [post]
func (handler *AuthenticationHandler) Login(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), 10*time.Second)
	defer cancel()

	var credentials CredentialsRequest
	if err := json.NewDecoder(request.Body).Decode(&credentials); err != nil {
		http.Error(writer, "неверный json", http.StatusBadRequest)
		return
	}

	tokensPair, err := handler.AuthService.Login(ctx, credentials.Username, credentials.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrAuthorization) {
			http.Error(writer, "неверный логин или пароль", http.StatusUnauthorized)
			return
		}
		log.Printf("ошибка входа: %v", err)
		http.Error(writer, "ошибка входа", http.StatusInternalServerError)
		return
	}

	writeJSON(writer, tokensPair)
}

// RefreshToken обновляет access и refresh токены
// @Summary Обновление токенов
// @Description Обменивает refresh-токен на новую пару, использованный токен отзывается. Пример запроса: POST /api-auth/refresh-token с телом {"refreshToken": "<refresh_token>"}
// @Tags Authentication
// @Accept json
// @Produce json
// @Success 200 {object} model.TokensPair "успешное обновление токенов"
// @Failure 400 {string} string "неверный json"
// @Failure 401 {string} string "невалидный или уже использованный токен"
// @Router /refresh-token [post]
func (handler *AuthenticationHandler) RefreshToken(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), 10*time.Second)
	defer cancel()

	var refreshTokenRequest RefreshTokenRequest
	if err := json.NewDecoder(request.Body).Decode(&refreshTokenRequest); err != nil {
		http.Error(writer, "неверный json", http.StatusBadRequest)
		return
	}

	tokensPair, err := handler.AuthService.Refresh(ctx, refreshTokenRequest.RefreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidToken) || errors.Is(err, apperrors.ErrRefreshTokenRevoked) {
			log.Printf("не удалось обновить токены: %v", err)
			http.Error(writer, "не удалось обновить токены", http.StatusUnauthorized)
			return
		}
		log.Printf("ошибка обновления токенов: %v", err)
		http.Error(writer, "ошибка обновления токенов", http.StatusInternalServerError)
		return
	}

	writeJSON(writer, tokensPair)
}

// Logout отзывает все refresh токены пользователя
// @Summary Выход из аккаунта
// @Description Отзывает все refresh-токены текущего пользователя. Пример запроса: POST /api-auth/logout с заголовком Authorization: Bearer <access_token>
// @Tags Authentication
// @Produce json
// @Success 200 {object} LogoutResponse "успешный выход"
// @Failure 400 {string} string "ошибка запроса"
// @Failure 401 {string} string "не авторизован"
// @Security ApiKeyAuth
// @Router /logout [post]
func (handler *AuthenticationHandler) Logout(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), 10*time.Second)
	defer cancel()

	claims, ok := ctx.Value(security.UserContextKey).(*security.TokenClaims)
	if ok == false || claims == nil {
		http.Error(writer, "не авторизован", http.StatusUnauthorized)
		return
	}

	userID, err := claims.UserID()
	if err != nil {
		http.Error(writer, "не авторизован", http.StatusUnauthorized)
		return
	}

	if err := handler.AuthService.Logout(ctx, userID); err != nil {
		log.Printf("ошибка выхода: %v", err)
		http.Error(writer, "ошибка запроса", http.StatusBadRequest)
		return
	}

	writeJSON(writer, &LogoutResponse{Message: "выполнен выход из аккаунта"})
}

// GetCurrentUser возвращает пользователя по access токену
// @Summary Текущий пользователь
// @Description Проверяет access-токен и возвращает данные пользователя. Пример запроса: GET /api-auth/me с заголовком Authorization: Bearer <access_token>
// @Tags Authentication
// @Produce json
// @Success 200 {object} UserResponse "данные пользователя"
// @Failure 401 {string} string "не авторизован"
// @Security ApiKeyAuth
// @Router /me [get]
func (handler *AuthenticationHandler) GetCurrentUser(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), 10*time.Second)
	defer cancel()

	authorizationHeader := request.Header.Get("Authorization")
	if strings.HasPrefix(authorizationHeader, "Bearer ") == false {
		http.Error(writer, "не авторизован", http.StatusUnauthorized)
		return
	}
	accessToken := strings.TrimPrefix(authorizationHeader, "Bearer ")

	user, err := handler.AuthService.UserByAccessToken(ctx, accessToken)
	if err != nil {
		log.Printf("невалидный токен: %v", err)
		http.Error(writer, "не авторизован", http.StatusUnauthorized)
		return
	}
	if user.IsActive == false {
		http.Error(writer, "пользователь деактивирован", http.StatusUnauthorized)
		return
	}

	writeJSON(writer, userResponse(user))
}

// ForgotPassword запускает отправку письма для смены пароля
// @Summary Запрос на смену пароля
// @Description Проверяет email, лимит повторных запросов и капчу, после чего асинхронно отправляет письмо со ссылкой. Пример запроса: POST /api-auth/forgot-password с телом {"email": "...", "recaptchaToken": "..."}
// @Tags Authentication
// @Accept json
// @Produce json
// @Success 200 {object} ForgotPasswordResponse "результат запроса"
// @Failure 400 {string} string "неверный json"
// @Failure 403 {string} string "превышен лимит запросов"
// @Failure 404 {string} string "пользователь с таким email не найден"
// @Router /forgot-password [post]
func (handler *AuthenticationHandler) ForgotPassword(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), 10*time.Second)
	defer cancel()

	var forgotPasswordRequest ForgotPasswordRequest
	if err := json.NewDecoder(request.Body).Decode(&forgotPasswordRequest); err != nil {
		http.Error(writer, "неверный json", http.StatusBadRequest)
		return
	}

	err := handler.PasswordResetService.RequestReset(ctx, forgotPasswordRequest.Email, forgotPasswordRequest.RecaptchaToken, request.RemoteAddr)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			http.Error(writer, "пользователь с таким email не найден", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrRateLimitExceeded):
			writer.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(err, handler.ResetCooldown)))
			http.Error(writer, "повторную отправку письма можно выполнить позже", http.StatusForbidden)
		case errors.Is(err, apperrors.ErrValidation):
			writeJSON(writer, &ForgotPasswordResponse{
				Detail:  "вы не прошли проверку для отправки письма, попробуйте еще раз",
				Success: false,
			})
		default:
			log.Printf("ошибка запроса на смену пароля: %v", err)
			http.Error(writer, "ошибка запроса", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(writer, &ForgotPasswordResponse{
		Detail:  "письмо отправлено, проверьте указанный вами адрес (также папку Спам)",
		Success: true,
	})
}

// ResetPasswordVerify проверяет токен для сброса пароля
// @Summary Проверка токена смены пароля
// @Description Возвращает пользователя, которому принадлежит токен. Пример запроса: GET /api-auth/reset-password/verify/<token>
// @Tags Authentication
// @Produce json
// @Success 200 {object} UserResponse "владелец токена"
// @Failure 403 {string} string "неверный токен для сброса пароля"
// @Router /reset-password/verify/{token} [get]
func (handler *AuthenticationHandler) ResetPasswordVerify(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), 10*time.Second)
	defer cancel()

	resetToken := chi.URLParam(request, "token")

	user, err := handler.PasswordResetService.ResolveToken(ctx, resetToken)
	if err != nil {
		log.Printf("неверный токен для сброса пароля: %v", err)
		http.Error(writer, "неверный токен для сброса пароля", http.StatusForbidden)
		return
	}

	writeJSON(writer, userResponse(user))
}

// ResetPassword устанавливает новый пароль по токену
// @Summary Сброс пароля
// @Description Проверяет совпадение паролей и токен, сохраняет новый хеш пароля. Пример запроса: POST /api-auth/reset-password с телом {"token": "...", "password1": "...", "password2": "..."}
// @Tags Authentication
// @Accept json
// @Produce json
// @Success 200 {object} LogoutResponse "пароль изменен"
// @Failure 400 {string} string "пароли не совпадают"
// @Failure 403 {string} string "неверный токен для сброса пароля"
// @Router /reset-password [post]
func (handler *AuthenticationHandler) ResetPassword(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), 10*time.Second)
	defer cancel()

	var resetPasswordRequest ResetPasswordRequest
	if err := json.NewDecoder(request.Body).Decode(&resetPasswordRequest); err != nil {
		http.Error(writer, "неверный json", http.StatusBadRequest)
		return
	}

	err := handler.PasswordResetService.Consume(ctx,
		resetPasswordRequest.Token, resetPasswordRequest.Password1, resetPasswordRequest.Password2)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			http.Error(writer, "пароли не совпадают", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrInvalidToken), errors.Is(err, apperrors.ErrNotFound):
			http.Error(writer, "неверный токен для сброса пароля", http.StatusForbidden)
		default:
			log.Printf("ошибка сброса пароля: %v", err)
			http.Error(writer, "ошибка запроса", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(writer, &LogoutResponse{Message: "пароль успешно изменен"})
}

// retryAfterSeconds возвращает оставшееся время ожидания в секундах,
// округленное вверх. Полный интервал cooldown используется как запасное
// значение, если ошибка не несет в себе остаток.
func retryAfterSeconds(err error, cooldown time.Duration) int {
	remaining := cooldown

	var rateLimitErr *apperrors.RateLimitError
	if errors.As(err, &rateLimitErr) {
		remaining = rateLimitErr.RetryAfter
	}
	if remaining < 0 {
		remaining = 0
	}

	return int(math.Ceil(remaining.Seconds()))
}

func userResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:          user.ID.String(),
		Username:    user.Username,
		Email:       user.Email,
		IsActive:    user.IsActive,
		IsSuperuser: user.IsSuperuser,
	}
}

func writeJSON(writer http.ResponseWriter, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	json.NewEncoder(writer).Encode(payload)
}
