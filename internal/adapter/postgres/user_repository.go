package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"matcha-pos/internal/domain"
	"matcha-pos/internal/interfaces"
)

type userRepository struct {
	db DB
}

func NewUserRepository(db DB) interfaces.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT id, username, role FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Role); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx,
		`SELECT id, username, password, role FROM users WHERE username = $1 LIMIT 1`,
		username,
	).Scan(&u.ID, &u.Username, &u.Password, &u.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

func (r *userRepository) ExistsUsername(ctx context.Context, username string) (bool, error) {
	var id int
	err := r.db.QueryRow(ctx,
		`SELECT id FROM users WHERE LOWER(username) = LOWER($1) LIMIT 1`,
		username,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return true, nil
}

func (r *userRepository) Create(ctx context.Context, username, passwordHash string, role domain.Role) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (username, password, role) VALUES ($1, $2, $3)`,
		username, passwordHash, role,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id int, role domain.Role) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $1 WHERE id = $2`, role, id)
	if err != nil {
		return false, fmt.Errorf("failed to update user role: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return false, fmt.Errorf("failed to update user password: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *userRepository) Delete(ctx context.Context, id int) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *userRepository) UpgradeCredential(ctx context.Context, id int, newHash string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET password = $1 WHERE id = $2`, newHash, id)
	if err != nil {
		return fmt.Errorf("failed to upgrade credential: %w", err)
	}
	return nil
}
