package repository

import (
	"database/sql"

	"github.com/mpwrightt/Game-Release/internal/models"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(s *models.Session) error {
	_, err := r.db.Exec(`
		INSERT INTO sessions (token, user_id, is_admin, expires_at)
		VALUES ($1, $2, $3, $4)`,
		s.Token, s.UserID, s.IsAdmin, s.ExpiresAt)
	return err
}

func (r *SessionRepository) Get(token string) (*models.Session, error) {
	s := &models.Session{Token: token}
	err := r.db.QueryRow(
		`SELECT user_id, is_admin, expires_at FROM sessions WHERE token = $1`,
		token,
	).Scan(&s.UserID, &s.IsAdmin, &s.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SessionRepository) Delete(token string) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE token = $1`, token)
	return err
}

func (r *SessionRepository) DeleteExpired(now int64) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE expires_at < $1`, now)
	return err
}
