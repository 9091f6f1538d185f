// internal/db/users.go
package db

import (
	"context"
	"database/sql"
)

const userColumns = `id, name, email, phone, password_hash, role, created_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

type CreateUserParams struct {
	Name         string
	Email        string
	Phone        sql.NullString
	PasswordHash string
	Role         string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	const query = `INSERT INTO users (name, email, phone, password_hash, role) VALUES (?, ?, ?, ?, ?)`
	result, err := q.db.ExecContext(ctx, query, arg.Name, arg.Email, arg.Phone, arg.PasswordHash, arg.Role)
	if err != nil {
		return User{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, id)
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(q.db.QueryRowContext(ctx, query, id))
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUser(q.db.QueryRowContext(ctx, query, email))
}
