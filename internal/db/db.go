package db

import (
	"context"
	"time"

	"ludo_arena/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect открывает пул соединений и проверяет доступность базы
func Connect(databaseURL string) *pgxpool.Pool {
	if databaseURL == "" {
		logger.Fatal("db: DATABASE_URL не задан")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Fatal("db: не удалось создать пул", "error", err)
	}

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("db: база недоступна", "error", err)
	}

	logger.Info("db: подключение установлено")
	return pool
}
