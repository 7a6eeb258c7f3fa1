package server

import (
	"context"
	"fmt"
	"net/http"

	"BookshelfAuth/config"
	"BookshelfAuth/internal"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func init() {
	// .env не обязателен, переменные окружения могут приходить извне
	_ = godotenv.Load()
}

func SetupDatabase(ctx context.Context, cfg *config.DatabaseConfig) (*internal.Database, error) {
	database, err := internal.NewDatabaseConnection(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения: %w", err)
	}

	if err := database.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	return database, nil
}

func SetupServer(cfg *config.ServerConfig) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:    cfg.Address,
		Handler: router,
	}

	return server, router
}
