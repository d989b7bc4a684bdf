package repository

import (
	"equipviz/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type AuthRepository interface {
	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	UsernameTaken(username string) (bool, error)
}

type authRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewAuthRepository(db *sqlx.DB, log *zap.Logger) AuthRepository {
	return &authRepository{db: db, log: log}
}

func (r *authRepository) CreateUser(user *models.User) error {
	query := `INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id, created_at`
	return r.db.QueryRowx(query, user.Username, user.Email, user.PasswordHash).StructScan(user)
}

func (r *authRepository) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	query := `SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1`
	err := r.db.Get(&user, query, username)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *authRepository) UsernameTaken(username string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM users WHERE username = $1`
	err := r.db.Get(&count, query, username)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
