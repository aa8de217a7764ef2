package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"tour_booking/internal/model"
	"tour_booking/internal/query"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var (
	ErrDuplicateEmail = errors.New("email already in use")
)

const userColumns = `id, name, email, photo, role, password_hash, password_changed_at, password_reset_token, password_reset_expires, refresh_token_hash, active, created_at`

// userColumnSet drives the list-query pipeline for users. The password hash
// and token material are never selectable.
var userColumnSet = query.NewColumnSet(
	map[string]string{
		"name":      "name",
		"email":     "email",
		"role":      "role",
		"createdAt": "created_at",
	},
	[]string{"id", "name", "email", "photo", "role", "created_at"},
	"created_at DESC",
)

// UserRepository defines operations for account data. Default reads exclude
// deactivated accounts; the AnyStatus variant is the administrative escape
// hatch.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByIDAnyStatus(ctx context.Context, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
	FindByRefreshTokenHash(ctx context.Context, tokenHash string) (*model.User, error)
	FindAll(ctx context.Context, params url.Values) ([]map[string]any, error)
	UpdateProfile(ctx context.Context, id int64, name, email, photo *string) (*model.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error
	SetResetToken(ctx context.Context, id int64, tokenHash *string, expires *time.Time) error
	SetRefreshToken(ctx context.Context, id int64, tokenHash *string) error
	Deactivate(ctx context.Context, id int64) error
	AdminUpdate(ctx context.Context, id int64, req model.AdminUpdateUserRequest) (*model.User, error)
	Delete(ctx context.Context, id int64) error
}

type userRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

func scanUser(row pgx.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Photo, &user.Role,
		&user.PasswordHash, &user.PasswordChangedAt,
		&user.PasswordResetToken, &user.PasswordResetExpires,
		&user.RefreshTokenHash, &user.Active, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found is not an error here, the service layer decides
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

// Create inserts a new account. The email uniqueness constraint surfaces as
// ErrDuplicateEmail.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO users (name, email, role, password_hash, active, created_at)
            VALUES ($1, LOWER($2), $3, $4, $5, $6) RETURNING id, email`
	err := r.db.QueryRow(ctx, sql, user.Name, user.Email, user.Role, user.PasswordHash, user.Active, user.CreatedAt).
		Scan(&user.ID, &user.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByID retrieves an active account by ID
func (r *userRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND active = TRUE`
	return scanUser(r.db.QueryRow(ctx, sql, id))
}

// FindByIDAnyStatus retrieves an account by ID regardless of the active flag
func (r *userRepository) FindByIDAnyStatus(ctx context.Context, id int64) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, sql, id))
}

// FindByEmail retrieves an active account by email, password hash included
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE email = LOWER($1) AND active = TRUE`
	return scanUser(r.db.QueryRow(ctx, sql, email))
}

// FindByResetTokenHash retrieves an active account whose reset token matches
// and has not expired
func (r *userRepository) FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users
            WHERE password_reset_token = $1 AND password_reset_expires > $2 AND active = TRUE`
	return scanUser(r.db.QueryRow(ctx, sql, tokenHash, now))
}

// FindByRefreshTokenHash retrieves an active account holding the given
// refresh token
func (r *userRepository) FindByRefreshTokenHash(ctx context.Context, tokenHash string) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE refresh_token_hash = $1 AND active = TRUE`
	return scanUser(r.db.QueryRow(ctx, sql, tokenHash))
}

// FindAll lists active accounts through the query pipeline
func (r *userRepository) FindAll(ctx context.Context, params url.Values) ([]map[string]any, error) {
	base := psql.Select().From("users").Where("active = TRUE")
	f := query.New(base, params, userColumnSet)
	return queryMaps(ctx, r.db, f.Filter().Sort().LimitFields().Paginate().Builder())
}

// UpdateProfile updates the caller-editable profile fields, leaving anything
// nil untouched
func (r *userRepository) UpdateProfile(ctx context.Context, id int64, name, email, photo *string) (*model.User, error) {
	b := psql.Update("users").Where("id = ? AND active = TRUE", id).Suffix("RETURNING " + userColumns)
	if name != nil {
		b = b.Set("name", *name)
	}
	if email != nil {
		b = b.Set("email", sq.Expr("LOWER(?)", *email))
	}
	if photo != nil {
		b = b.Set("photo", *photo)
	}
	if name == nil && email == nil && photo == nil {
		return r.FindByID(ctx, id)
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build profile update: %w", err)
	}
	user, err := scanUser(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil && isUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	return user, err
}

// UpdatePassword replaces the password hash and bumps the change timestamp
func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error {
	sql := `UPDATE users SET password_hash = $1, password_changed_at = $2 WHERE id = $3`
	tag, err := r.db.Exec(ctx, sql, passwordHash, changedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no user with id %d", id)
	}
	return nil
}

// SetResetToken stores (or, with nils, clears) the reset-token hash and expiry
func (r *userRepository) SetResetToken(ctx context.Context, id int64, tokenHash *string, expires *time.Time) error {
	sql := `UPDATE users SET password_reset_token = $1, password_reset_expires = $2 WHERE id = $3`
	if _, err := r.db.Exec(ctx, sql, tokenHash, expires, id); err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	return nil
}

// SetRefreshToken stores (or, with nil, clears) the refresh-token hash,
// overwriting any prior value
func (r *userRepository) SetRefreshToken(ctx context.Context, id int64, tokenHash *string) error {
	sql := `UPDATE users SET refresh_token_hash = $1 WHERE id = $2`
	if _, err := r.db.Exec(ctx, sql, tokenHash, id); err != nil {
		return fmt.Errorf("failed to set refresh token: %w", err)
	}
	return nil
}

// Deactivate soft-deletes an account; the row is retained
func (r *userRepository) Deactivate(ctx context.Context, id int64) error {
	sql := `UPDATE users SET active = FALSE, refresh_token_hash = NULL WHERE id = $1`
	if _, err := r.db.Exec(ctx, sql, id); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}

// AdminUpdate applies an administrative partial update. Never touches
// passwords.
func (r *userRepository) AdminUpdate(ctx context.Context, id int64, req model.AdminUpdateUserRequest) (*model.User, error) {
	b := psql.Update("users").Where("id = ?", id).Suffix("RETURNING " + userColumns)
	changed := false
	if req.Name != nil {
		b = b.Set("name", *req.Name)
		changed = true
	}
	if req.Email != nil {
		b = b.Set("email", sq.Expr("LOWER(?)", *req.Email))
		changed = true
	}
	if req.Role != nil {
		b = b.Set("role", *req.Role)
		changed = true
	}
	if req.Active != nil {
		b = b.Set("active", *req.Active)
		changed = true
	}
	if !changed {
		return r.FindByIDAnyStatus(ctx, id)
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build admin update: %w", err)
	}
	user, err := scanUser(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil && isUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	return user, err
}

// Delete removes an account permanently
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
