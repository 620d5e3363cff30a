package repository

import (
	"database/sql"
	"fmt"

	"github.com/mpwrightt/Game-Release/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.QueryRow(`
		INSERT INTO users (id, username, email, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.IsAdmin,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	return r.getOne(`
		SELECT id, username, email, password_hash, is_admin, created_at, updated_at
		FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	return r.getOne(`
		SELECT id, username, email, password_hash, is_admin, created_at, updated_at
		FROM users WHERE username = $1`, username)
}

func (r *UserRepository) CountAdmins() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users WHERE is_admin = TRUE`).Scan(&n)
	return n, err
}

func (r *UserRepository) getOne(query string, arg interface{}) (*models.User, error) {
	u := &models.User{}
	err := r.db.QueryRow(query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return u, nil
}
