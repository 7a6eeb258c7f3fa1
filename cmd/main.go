package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BookshelfAuth/config"
	"BookshelfAuth/config/server"
	"BookshelfAuth/internal/handler"
	"BookshelfAuth/internal/notifier"
	"BookshelfAuth/internal/ports"
	"BookshelfAuth/internal/repository"
	"BookshelfAuth/internal/security"
	"BookshelfAuth/internal/service"
	"BookshelfAuth/internal/tasks"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("не удалось загрузить конфигурацию: %v", err)
	}

	database, err := server.SetupDatabase(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("не удалось подключиться к БД: %v", err)
	}
	defer database.Close()

	httpServer, router := server.SetupServer(&cfg.Server)

	jwtService := security.NewJWTService(
		[]byte(cfg.JWT.SecretKey),
		cfg.JWT.AccessTokenTTL(),
		cfg.JWT.RefreshTokenTTL(),
		cfg.Reset.LinkTTL(),
	)
	passwordHasher := security.NewBcryptHasher()

	refreshTokenRepository := repository.NewRefreshTokenRepository(database)
	userRepository := repository.NewUserRepository(database)

	var captchaVerifier ports.CaptchaVerifierInterface = notifier.DisabledVerifier{}
	if cfg.Captcha.Enabled {
		captchaVerifier = notifier.NewRecaptchaVerifier(cfg.Captcha.SecretKey, cfg.Captcha.VerifyURL)
	}

	mailer := notifier.NewSMTPMailer(
		cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Password,
		cfg.Reset.LinkBaseURL, cfg.Reset.LinkTTL(),
	)
	taskRunner := tasks.NewRunner()
	taskRunner.Register(service.SendResetPasswordEmailTask, func(args ...string) error {
		if len(args) == 0 {
			return fmt.Errorf("не указан email получателя")
		}
		resetToken, err := jwtService.CreateResetToken(args[0])
		if err != nil {
			return err
		}
		return mailer.SendResetPasswordEmail(args[0], resetToken)
	})

	authenticationService := service.NewAuthService(
		jwtService, refreshTokenRepository, userRepository, passwordHasher, cfg.Webhook.URL)
	passwordResetService := service.NewPasswordResetService(
		jwtService, userRepository, passwordHasher, captchaVerifier, taskRunner, cfg.Reset.Cooldown())
	authenticationHandler := handler.NewAuthenticationHandler(
		authenticationService, passwordResetService, captchaVerifier, cfg.Reset.Cooldown())

	router.Route(cfg.Server.BasePath, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(security.JWTMiddleware(jwtService))
			r.Post("/logout", authenticationHandler.Logout)
		})
		r.Group(func(r chi.Router) {
			r.Post("/users", authenticationHandler.RegisterUser)
			r.Post("/login", authenticationHandler.Login)
			r.Post("/refresh-token", authenticationHandler.RefreshToken)
			r.Get("/me", authenticationHandler.GetCurrentUser)
			r.Post("/forgot-password", authenticationHandler.ForgotPassword)
			r.Get("/reset-password/verify/{token}", authenticationHandler.ResetPasswordVerify)
			r.Post("/reset-password", authenticationHandler.ResetPassword)
		})
	})

	runServer(ctx, httpServer)
}

func runServer(ctx context.Context, server *http.Server) {
	serverErrors := make(chan error, 1)
	go func() {
		log.Println("сервер запущен на " + server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Fatalf("ошибка работы сервера: %v", err)
		}
	case sig := <-signalChannel:
		log.Printf("получен сигнал %v остановки работы сервера ", sig)
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		log.Printf("ошибка при остановке сервера: %v", err)
	} else {
		log.Println("Сервер успешно остановлен")
	}
}
