package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/cassiomorais/courts/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// userUpdateColumns maps each updatable field to its column. Only these
// identifiers ever reach the SET clause; values always go through parameters.
var userUpdateColumns = map[user.Field]string{
	user.FieldName:     "name",
	user.FieldLastName: "last_name",
	user.FieldEmail:    "email",
	user.FieldPassword: "password",
	user.FieldRoleID:   "id_role",
}

const userColumns = `id_user, name, last_name, email, password, id_role`

// UserRepository implements user.Repository using PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func scanUser(s scanner) (*user.User, error) {
	u := &user.User{}
	if err := s.Scan(&u.ID, &u.Name, &u.LastName, &u.Email, &u.PasswordHash, &u.RoleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// mapUserWriteError turns constraint failures on users into domain errors.
func mapUserWriteError(op string, err error) error {
	switch {
	case isUniqueViolation(err, "users_email_key"):
		return domainErrors.ErrEmailTaken
	case isForeignKeyViolation(err, "users_id_role_fkey"):
		return domainErrors.NewValidationError("id_role", "unknown role")
	}
	return classify(op, err)
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	err := r.db(ctx).QueryRow(ctx,
		`INSERT INTO users (name, last_name, email, password, id_role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id_user`,
		u.Name, u.LastName, u.Email, u.PasswordHash, u.RoleID,
	).Scan(&u.ID)
	if err != nil {
		return mapUserWriteError("insert user", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return scanUser(r.db(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id_user = $1`, id))
}

// GetForUpdate also blocks new bookings for the user until the transaction ends.
func (r *UserRepository) GetForUpdate(ctx context.Context, id int64) (*user.User, error) {
	u, err := scanUser(r.db(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id_user = $1 FOR UPDATE`, id))
	if err != nil && !errors.Is(err, domainErrors.ErrUserNotFound) {
		return nil, classify("lock user", err)
	}
	return u, err
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	rows, err := r.db(ctx).Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id_user`)
	if err != nil {
		return nil, classify("list users", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// buildUserUpdate compiles set into one parameterized UPDATE ... RETURNING statement.
func buildUserUpdate(id int64, set *user.UpdateSet) (string, []any, error) {
	assignments := set.Assignments()
	if len(assignments) == 0 {
		return "", nil, domainErrors.ErrNothingToSave
	}

	clauses := make([]string, 0, len(assignments))
	args := make([]any, 0, len(assignments)+1)
	for _, a := range assignments {
		col, ok := userUpdateColumns[a.Field]
		if !ok {
			return "", nil, fmt.Errorf("field %q is not updatable", a.Field)
		}
		args = append(args, a.Value)
		clauses = append(clauses, col+" = $"+strconv.Itoa(len(args)))
	}
	args = append(args, id)

	query := `UPDATE users SET ` + strings.Join(clauses, ", ") +
		` WHERE id_user = $` + strconv.Itoa(len(args)) +
		` RETURNING ` + userColumns
	return query, args, nil
}

func (r *UserRepository) Update(ctx context.Context, id int64, set *user.UpdateSet) (*user.User, error) {
	query, args, err := buildUserUpdate(id, set)
	if err != nil {
		return nil, err
	}

	u, err := scanUser(r.db(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, domainErrors.ErrUserNotFound) {
			return nil, err
		}
		return nil, mapUserWriteError("update user", err)
	}
	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM users WHERE id_user = $1`, id)
	if err != nil {
		return classify("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) AddPhone(ctx context.Context, p *user.Phone) error {
	err := r.db(ctx).QueryRow(ctx,
		`INSERT INTO user_phones (id_user, phone_number) VALUES ($1, $2) RETURNING id_user_phone`,
		p.UserID, p.Number,
	).Scan(&p.ID)
	if err != nil {
		if isForeignKeyViolation(err, "") {
			return domainErrors.ErrUserNotFound
		}
		return classify("insert phone", err)
	}
	return nil
}

func (r *UserRepository) ListPhones(ctx context.Context, userID int64) ([]*user.Phone, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id_user_phone, id_user, phone_number FROM user_phones WHERE id_user = $1 ORDER BY id_user_phone`,
		userID)
	if err != nil {
		return nil, classify("list phones", err)
	}
	phones, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*user.Phone, error) {
		p := &user.Phone{}
		err := row.Scan(&p.ID, &p.UserID, &p.Number)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan phones: %w", err)
	}
	return phones, nil
}
