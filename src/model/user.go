package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrUserNotFound is returned by user lookups that match no row.
var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) HashPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

func (u *User) CreateUser(ctx context.Context, db *sql.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = time.Now().UTC()

	res, err := db.ExecContext(ctx, `INSERT INTO users (email, password, created_at) VALUES (?, ?, ?)`, u.Email, u.Password, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*User, error) {
	return getUser(ctx, db, `SELECT id, email, password, created_at FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

func GetUserByID(ctx context.Context, db *sql.DB, id int64) (*User, error) {
	return getUser(ctx, db, `SELECT id, email, password, created_at FROM users WHERE id = ?`, id)
}

func getUser(ctx context.Context, db *sql.DB, query string, arg any) (*User, error) {
	u := &User{}
	err := db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Password, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}
