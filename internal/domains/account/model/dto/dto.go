package dto

import (
	"strings"

	"retreat/internal/domains/account/model"
	"retreat/shared"
	"retreat/shared/constant"
	gDto "retreat/shared/dto"
	gModel "retreat/shared/model"
	"retreat/shared/timezone"
)

const IDPrefix = "ac"

type CreateAccountRequest struct {
	Email    string `json:"email"     validate:"required,email,max=254"`
	Password string `json:"password"  validate:"required,min=12,max=72"`
	Role     string `json:"role"      validate:"required,oneof=admin traveler"`
	FullName string `json:"full_name" validate:"omitempty,max=120"`
}

func (r CreateAccountRequest) ToModel(passwordHash, user string) model.Account {
	return model.Account{
		ID:           shared.NewID(IDPrefix),
		Email:        NormalizeEmail(r.Email),
		PasswordHash: passwordHash,
		Role:         r.Role,
		FullName:     strings.TrimSpace(r.FullName),
		Active:       true,
		Metadata:     gModel.NewMetadata(user),
	}
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Role        string `json:"role"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=12,max=72,nefield=CurrentPassword"`
}

type AccountResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	FullName    string `json:"full_name,omitempty"`
	Active      bool   `json:"active"`
	LastLoginAt string `json:"last_login_at,omitempty"`
	gDto.Metadata
}

func (r *AccountResponse) FromModel(m model.Account) {
	r.ID = m.ID
	r.Email = m.Email
	r.Role = m.Role
	r.FullName = m.FullName
	r.Active = m.Active

	if m.LastLoginAt != nil {
		r.LastLoginAt = timezone.Format(*m.LastLoginAt, constant.DateFormat)
	}

	r.Metadata.FromModel(m.Metadata)
}

// NormalizeEmail makes the login lookup case insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
