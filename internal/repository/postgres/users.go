package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/social-platform-auth/internal/core/domain"
	"github.com/arklim/social-platform-auth/internal/core/port"
	"github.com/arklim/social-platform-auth/internal/repository"
)

const usersTable = "auth.users"

var userColumns = []string{
	"id",
	"username",
	"email",
	"password_hash",
	"remember_me_token",
	"failed_logins",
	"last_failed_login",
	"active",
	"deleted",
	"suspension_until",
	"password_reset_hash",
	"password_reset_timestamp",
	"session_id",
	"activation_hash",
	"provider_type",
	"account_type",
	"created_at",
	"last_login_at",
}

// CredentialRepository implements port.CredentialStore using PostgreSQL.
// State-mutating operations are single conditional statements; the row is the
// coordination point between concurrent workers.
type CredentialRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewCredentialRepository wires a credential store backed by any executor
// that satisfies pgExecutor (a pool, a connection, or a transaction).
func NewCredentialRepository(exec pgExecutor) *CredentialRepository {
	return &CredentialRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *CredentialRepository) WithTx(tx pgx.Tx) *CredentialRepository {
	if tx == nil {
		return r
	}
	return &CredentialRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new user row.
func (r *CredentialRepository) Create(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Insert(usersTable).
		Columns(userColumns...).
		Values(
			user.ID,
			user.Username,
			user.Email,
			user.PasswordHash,
			user.RememberMeToken,
			user.FailedLogins,
			user.LastFailedLogin,
			user.Active,
			user.Deleted,
			user.SuspensionUntil,
			user.ResetHash,
			user.ResetTimestamp,
			user.SessionID,
			user.ActivationHash,
			user.ProviderType,
			user.AccountType,
			user.CreatedAt,
			user.LastLoginAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// Delete removes a user row. Used to compensate a registration whose
// verification mail could not be sent.
func (r *CredentialRepository) Delete(ctx context.Context, userID string) error {
	stmt, args, err := r.builder.Delete(usersTable).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete user sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetByID retrieves a user by identifier.
func (r *CredentialRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByIdentifier retrieves a DEFAULT-provider user by username or email.
func (r *CredentialRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.And{
		squirrel.Or{
			squirrel.Eq{"username": identifier},
			squirrel.Eq{"email": identifier},
		},
		squirrel.Eq{"provider_type": domain.ProviderDefault},
	})
}

// GetByRememberToken retrieves a DEFAULT-provider user by id and the exact
// remember-me token currently stored for it.
func (r *CredentialRepository) GetByRememberToken(ctx context.Context, userID, token string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{
		"id":                userID,
		"remember_me_token": token,
		"provider_type":     domain.ProviderDefault,
	})
}

func (r *CredentialRepository) getOne(ctx context.Context, pred any) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From(usersTable).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.RememberMeToken,
		&user.FailedLogins,
		&user.LastFailedLogin,
		&user.Active,
		&user.Deleted,
		&user.SuspensionUntil,
		&user.ResetHash,
		&user.ResetTimestamp,
		&user.SessionID,
		&user.ActivationHash,
		&user.ProviderType,
		&user.AccountType,
		&user.CreatedAt,
		&user.LastLoginAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &user, nil
}

// IncrementFailedLogins bumps the failed-login counter and stamps the last
// failure for the matching username or email.
func (r *CredentialRepository) IncrementFailedLogins(ctx context.Context, identifier string, at time.Time) error {
	stmt, args, err := r.builder.Update(usersTable).
		Set("failed_logins", squirrel.Expr("failed_logins + 1")).
		Set("last_failed_login", at).
		Where(squirrel.Or{
			squirrel.Eq{"username": identifier},
			squirrel.Eq{"email": identifier},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build increment failed logins sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("increment failed logins: %w", err)
	}

	return nil
}

// ResetFailedLogins zeroes the counter. Conditional on a non-zero counter so
// the common success path skips the write.
func (r *CredentialRepository) ResetFailedLogins(ctx context.Context, username string) error {
	stmt, args, err := r.builder.Update(usersTable).
		Set("failed_logins", 0).
		Set("last_failed_login", nil).
		Where(squirrel.And{
			squirrel.Eq{"username": username},
			squirrel.NotEq{"failed_logins": 0},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reset failed logins sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("reset failed logins: %w", err)
	}

	return nil
}

// SetLastLogin stamps a real login. Session touches on later requests do not
// update this.
func (r *CredentialRepository) SetLastLogin(ctx context.Context, username string, at time.Time) error {
	stmt, args, err := r.builder.Update(usersTable).
		Set("last_login_at", at).
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set last login sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("set last login: %w", err)
	}

	return nil
}

// SetRememberToken stores a freshly minted remember-me token, replacing any
// prior one so exactly one issued cookie stays valid.
func (r *CredentialRepository) SetRememberToken(ctx context.Context, userID, token string) error {
	return r.writeRememberToken(ctx, userID, token)
}

// ClearRememberToken revokes the remember-me cookie server-side.
func (r *CredentialRepository) ClearRememberToken(ctx context.Context, userID string) error {
	return r.writeRememberToken(ctx, userID, nil)
}

func (r *CredentialRepository) writeRememberToken(ctx context.Context, userID string, token any) error {
	stmt, args, err := r.builder.Update(usersTable).
		Set("remember_me_token", token).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build remember token sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("write remember token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetResetToken writes a new reset token and issue timestamp, overwriting any
// active one. Reports whether a DEFAULT-provider row matched.
func (r *CredentialRepository) SetResetToken(ctx context.Context, username, hash string, issuedAt time.Time) (bool, error) {
	stmt, args, err := r.builder.Update(usersTable).
		Set("password_reset_hash", hash).
		Set("password_reset_timestamp", issuedAt).
		Where(squirrel.Eq{
			"username":      username,
			"provider_type": domain.ProviderDefault,
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build set reset token sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("set reset token: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// GetResetCandidate fetches the user matching the (username, reset hash)
// combination for verification.
func (r *CredentialRepository) GetResetCandidate(ctx context.Context, username, hash string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{
		"username":            username,
		"password_reset_hash": hash,
		"provider_type":       domain.ProviderDefault,
	})
}

// ConsumeResetToken writes the new password hash and clears the reset fields,
// keyed on the token still matching. At most one caller can win the race.
func (r *CredentialRepository) ConsumeResetToken(ctx context.Context, username, hash, passwordHash string) (bool, error) {
	stmt, args, err := r.builder.Update(usersTable).
		Set("password_hash", passwordHash).
		Set("password_reset_hash", nil).
		Set("password_reset_timestamp", nil).
		Where(squirrel.Eq{
			"username":            username,
			"password_reset_hash": hash,
			"provider_type":       domain.ProviderDefault,
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build consume reset token sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("consume reset token: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// SetSessionID records the single currently-valid session identifier for a
// user. Passing nil clears it on logout.
func (r *CredentialRepository) SetSessionID(ctx context.Context, userID string, sessionID *string) error {
	stmt, args, err := r.builder.Update(usersTable).
		Set("session_id", sessionID).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set session id sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set session id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetSessionID reads the stored session identifier for concurrency checks.
func (r *CredentialRepository) GetSessionID(ctx context.Context, userID string) (*string, error) {
	stmt, args, err := r.builder.
		Select("session_id").
		From(usersTable).
		Where(squirrel.Eq{"id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get session id sql: %w", err)
	}

	var sessionID *string
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&sessionID); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan session id: %w", err)
	}

	return sessionID, nil
}

// Activate flips the account to active when the activation hash matches,
// clearing the hash in the same statement.
func (r *CredentialRepository) Activate(ctx context.Context, userID, activationHash string) (bool, error) {
	stmt, args, err := r.builder.Update(usersTable).
		Set("active", true).
		Set("activation_hash", nil).
		Where(squirrel.Eq{
			"id":              userID,
			"activation_hash": activationHash,
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build activate sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("activate user: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// UsernameExists reports whether a row already claims the username.
func (r *CredentialRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"username": username})
}

// EmailExists reports whether a row already claims the email.
func (r *CredentialRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"email": email})
}

func (r *CredentialRepository) exists(ctx context.Context, pred any) (bool, error) {
	stmt, args, err := r.builder.
		Select("1").
		From(usersTable).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists sql: %w", err)
	}

	var one int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&one); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("scan exists: %w", err)
	}

	return true, nil
}

var _ port.CredentialStore = (*CredentialRepository)(nil)
