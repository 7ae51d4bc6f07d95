package model

import (
	"time"

	"retreat/shared/model"
)

const (
	TableName  = "accounts"
	EntityName = "account"

	FieldID           = "id"
	FieldEmail        = "email"
	FieldPasswordHash = "password_hash"
	FieldRole         = "role"
	FieldActive       = "active"
	FieldLastLoginAt  = "last_login_at"
)

// Account is an operator or traveler allowed to sign in. Passwords are stored as bcrypt hashes only.
type Account struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Role         string     `db:"role"`
	FullName     string     `db:"full_name"`
	Active       bool       `db:"active"`
	LastLoginAt  *time.Time `db:"last_login_at"`
	model.Metadata
}
