package handlers

import (
	"ludo_arena/internal/repository"
	"ludo_arena/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler держит зависимости HTTP-слоя
type Handler struct {
	DB              *pgxpool.Pool
	UserRepo        *repository.UserRepository
	MatchRepo       *repository.MatchRepository
	TransactionRepo *repository.TransactionRepository
	RevenueRepo     *repository.RevenueRepository
	Identity        *service.IdentityService
}

func NewHandler(db *pgxpool.Pool, botToken string) *Handler {
	users := repository.NewUserRepository(db)
	return &Handler{
		DB:              db,
		UserRepo:        users,
		MatchRepo:       repository.NewMatchRepository(db),
		TransactionRepo: repository.NewTransactionRepository(db),
		RevenueRepo:     repository.NewRevenueRepository(db),
		Identity:        service.NewIdentityService(users, botToken),
	}
}

// getUserID извлекает id пользователя, установленный auth middleware
func getUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
