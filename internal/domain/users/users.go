package users

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserIDEmpty          = errors.New("user id is empty")
	ErrUserIDInvalid        = errors.New("user id is invalid")
	ErrUserEmailEmpty       = errors.New("user email is empty")
	ErrUserEmailInvalid     = errors.New("user email is invalid")
	ErrUserPasswdEmpty      = errors.New("user password is empty")
	ErrUserPasswdTooShort   = errors.New("user password is too short")
	ErrUserPasswdTooLong    = errors.New("user password is too long")
	ErrUserNameTooLong      = errors.New("user name is too long")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
)

const (
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLength = 72
	maxNameLength     = 100
	maxEmailLength    = 255
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsAdmin      bool
	IsVerified   bool
	CreatedAt    time.Time
}

// Params holds the registration payload of a new user.
type Params struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// NewUser validates the registration payload and returns a user with a fresh ID and bcrypt password hash.
func NewUser(params Params) (*User, error) {
	email := NormalizeEmail(params.Email)

	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	if err := validatePassword(params.Password); err != nil {
		return nil, err
	}

	firstName := strings.TrimSpace(params.FirstName)
	lastName := strings.TrimSpace(params.LastName)

	if len(firstName) > maxNameLength || len(lastName) > maxNameLength {
		return nil, ErrUserNameTooLong
	}

	passwordHash, err := getPasswordHash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("getPasswordHash: %w", err)
	}

	return &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// CheckPassword compares the password with the stored hash.
func (u *User) CheckPassword(password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrUserPasswordMismatch
		}

		return fmt.Errorf("bcrypt.CompareHashAndPassword: %w", err)
	}

	return nil
}

// SetPassword replaces the password hash.
func (u *User) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}

	passwordHash, err := getPasswordHash(password)
	if err != nil {
		return fmt.Errorf("getPasswordHash: %w", err)
	}

	u.PasswordHash = passwordHash

	return nil
}

func getPasswordHash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt.GenerateFromPassword: %w", err)
	}

	return string(hash), nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	if email == "" {
		return ErrUserEmailEmpty
	}

	if len(email) > maxEmailLength {
		return ErrUserEmailInvalid
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrUserEmailInvalid
	}

	return nil
}

func ValidateID(id string) error {
	if id == "" {
		return ErrUserIDEmpty
	}

	if _, err := uuid.Parse(id); err != nil {
		return ErrUserIDInvalid
	}

	return nil
}

func validatePassword(password string) error {
	switch {
	case password == "":
		return ErrUserPasswdEmpty
	case len(password) < minPasswordLength:
		return ErrUserPasswdTooShort
	case len(password) > maxPasswordLength:
		return ErrUserPasswdTooLong
	}

	return nil
}
