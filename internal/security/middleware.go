package security

import (
	"context"
	"log"
	"net/http"
	"strings"
)

type ContextKey string

// UserContextKey — ключ, под которым middleware кладет claims в контекст запроса.
const UserContextKey ContextKey = "user"

// JWTMiddleware проверяет Bearer access токен. Refresh и reset токены
// на защищенных маршрутах отклоняются независимо от валидности подписи.
func JWTMiddleware(tokenService *JWTService) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(handleAuthentication(tokenService, next))
	}
}

func handleAuthentication(tokenService *JWTService, next http.Handler) func(writer http.ResponseWriter, request *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		authorizationHeader := request.Header.Get("Authorization")
		if strings.HasPrefix(authorizationHeader, "Bearer ") == false {
			http.Error(writer, "не авторизован", http.StatusUnauthorized)
			return
		}

		jwtTokenStr := strings.TrimPrefix(authorizationHeader, "Bearer ")

		claims, err := tokenService.VerifyAndDecode(jwtTokenStr)
		if err != nil {
			log.Printf("невалидный токен: %v", err)
			http.Error(writer, "невалидный токен", http.StatusUnauthorized)
			return
		}
		if claims.TokenType != TokenTypeAccess {
			http.Error(writer, "невалидный токен", http.StatusUnauthorized)
			return
		}

		request = request.WithContext(context.WithValue(request.Context(), UserContextKey, claims))
		next.ServeHTTP(writer, request)
	}
}
