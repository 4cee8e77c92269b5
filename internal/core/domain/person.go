package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

var (
	ErrPersonNotFound    = errors.New("person not found")
	ErrPersonNameEmpty   = errors.New("person name cannot be empty")
	ErrInvalidPersonRole = errors.New("invalid person role (must be parent or student)")
	ErrInvalidEmail      = errors.New("invalid email format")
)

const (
	RoleParent  = "parent"
	RoleStudent = "student"
)

type Person struct {
	ID           string    `json:"id" db:"id"`
	HomeschoolID string    `json:"homeschool_id" db:"homeschool_id"`
	Name         string    `json:"name" db:"name"`
	Role         string    `json:"role" db:"role"`
	Email        string    `json:"email,omitempty" db:"email"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func NewPerson(id, homeschoolID, name, role, email string) (*Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrPersonNameEmpty
	}

	switch role {
	case RoleParent, RoleStudent:
	default:
		return nil, ErrInvalidPersonRole
	}

	email = strings.TrimSpace(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, ErrInvalidEmail
		}
		email = strings.ToLower(email)
	}

	now := time.Now().UTC()
	return &Person{
		ID:           id,
		HomeschoolID: homeschoolID,
		Name:         name,
		Role:         role,
		Email:        email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (p *Person) IsStudent() bool {
	return p.Role == RoleStudent
}
