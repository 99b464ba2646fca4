package repository

import (
	"context"

	"github.com/google/uuid"
)

const insertUser = `-- name: InsertUser :one
INSERT INTO users (id, name, email, password, is_admin, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING id, name, email, password, is_admin, created_at, updated_at
`

type InsertUserParams struct {
	ID       uuid.UUID
	Name     string
	Email    string
	Password string
	IsAdmin  bool
}

func (q *Queries) InsertUser(c context.Context, arg InsertUserParams) (User, error) {
	row := q.db.QueryRow(c, insertUser, arg.ID, arg.Name, arg.Email, arg.Password, arg.IsAdmin, now())
	var i User
	err := row.Scan(&i.ID, &i.Name, &i.Email, &i.Password, &i.IsAdmin, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const findUserByEmail = `-- name: FindUserByEmail :one
SELECT id, name, email, password, is_admin, created_at, updated_at FROM users WHERE email = $1
`

func (q *Queries) FindUserByEmail(c context.Context, email string) (User, error) {
	row := q.db.QueryRow(c, findUserByEmail, email)
	var i User
	err := row.Scan(&i.ID, &i.Name, &i.Email, &i.Password, &i.IsAdmin, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}
