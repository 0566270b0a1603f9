package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/storage"
)

func (s *Store) AddUser(ctx context.Context, user models.User) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, name, partner_id, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		user.ID, user.Name, nullString(user.PartnerID), user.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.ID, err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, partner_id, created_at FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return u, err
}

func (s *Store) GetAllUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, partner_id, created_at FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) PairUsers(ctx context.Context, a, b string) error {
	if a == b {
		return fmt.Errorf("cannot pair user %s with themselves", a)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, pair := range [][2]string{{a, b}, {b, a}} {
		res, err := tx.ExecContext(ctx, `UPDATE users SET partner_id = $1 WHERE id = $2`, pair[1], pair[0])
		if err != nil {
			return fmt.Errorf("failed to pair users: %w", err)
		}
		if err := requireRow(res, "user", pair[0]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func scanUser(row scanner) (models.User, error) {
	var u models.User
	var partner sql.NullString
	if err := row.Scan(&u.ID, &u.Name, &partner, &u.CreatedAt); err != nil {
		return models.User{}, err
	}
	u.PartnerID = stringPtr(partner)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}
