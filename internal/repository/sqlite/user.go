package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/washtrack/washtrack/pkg/models"
	"github.com/washtrack/washtrack/pkg/repository"
)

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("user is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO users (email, full_name, role, password_hash, created, updated) VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, u.FullName, string(u.Role), nullString(u.PasswordHash), ts, ts)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrDuplicateEmail
		}

		return 0, err
	}

	return res.LastInsertId()
}

// CreateFederated provisions the account for a first federated login. The
// account count and the insert share one transaction, so the first-account
// manager assignment cannot be granted twice under concurrent logins.
func (r *SQLiteRepo) CreateFederated(ctx context.Context, email, fullName string) (*models.User, error) {
	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var count int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	role := models.RoleDriver
	if count == 0 {
		role = models.RoleManager
	}

	ts := now()
	res, err := tx.ExecContext(ctx, `INSERT INTO users (email, full_name, role, password_hash, created, updated) VALUES (?, ?, ?, NULL, ?, ?)`,
		email, fullName, string(role), ts, ts)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateEmail
		}

		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.User{ID: id, Email: email, FullName: fullName, Role: role, Created: ts, Updated: ts}, nil
}

func (r *SQLiteRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, email, full_name, role, password_hash, deleted_at, created, updated FROM users WHERE id = ? AND deleted_at IS NULL`, id)
	return scanUser(row)
}

func (r *SQLiteRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, email, full_name, role, password_hash, deleted_at, created, updated FROM users WHERE email = ? AND deleted_at IS NULL`, email)
	return scanUser(row)
}

func (r *SQLiteRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, email, full_name, role, password_hash, deleted_at, created, updated FROM users WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (r *SQLiteRepo) ListDrivers(ctx context.Context) ([]models.User, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, email, full_name, role, password_hash, deleted_at, created, updated FROM users WHERE role = 'driver' AND deleted_at IS NULL ORDER BY full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (r *SQLiteRepo) UpdateUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE users SET email = ?, full_name = ?, role = ?, password_hash = ?, updated = ? WHERE id = ? AND deleted_at IS NULL`,
		u.Email, u.FullName, string(u.Role), nullString(u.PasswordHash), now(), u.ID)
	if err != nil && isUniqueViolation(err) {
		return repository.ErrDuplicateEmail
	}

	return err
}

func (r *SQLiteRepo) SoftDeleteUser(ctx context.Context, id int64) error {
	ts := now()
	_, err := r.conn.Exec(ctx, `UPDATE users SET deleted_at = ?, updated = ? WHERE id = ? AND deleted_at IS NULL`, ts, ts, id)
	return err
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var pw sql.NullString
	var deleted sql.NullInt64
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &pw, &deleted, &u.Created, &u.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if pw.Valid {
		u.PasswordHash = pw.String
	}
	if deleted.Valid {
		v := deleted.Int64
		u.DeletedAt = &v
	}

	return &u, nil
}

func collectUsers(rows *sql.Rows) ([]models.User, error) {
	var out []models.User
	for rows.Next() {
		var u models.User
		var pw sql.NullString
		var deleted sql.NullInt64
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &pw, &deleted, &u.Created, &u.Updated); err != nil {
			return nil, err
		}

		if pw.Valid {
			u.PasswordHash = pw.String
		}
		if deleted.Valid {
			v := deleted.Int64
			u.DeletedAt = &v
		}
		out = append(out, u)
	}

	return out, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}

	return s
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
