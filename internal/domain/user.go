package domain

import (
	"time"

	"github.com/google/uuid"
)

// Field limits for user input.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 80
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt's practical limit
)

// Validation errors for User
var (
	ErrEmptyUserID      = NewValidationError("id", "cannot be empty", ErrInvalidID)
	ErrEmptyUsername    = NewValidationError("username", "cannot be empty", nil)
	ErrInvalidUsername  = NewValidationError("username", "must be 3-80 characters", nil)
	ErrPasswordTooShort = NewValidationError("password", "must be at least 8 characters long", nil)
	ErrPasswordTooLong  = NewValidationError("password", "must be at most 72 characters long", nil)
	ErrEmptyPassword    = NewValidationError("password", "cannot be empty", nil)
)

// User is a registered account that owns tasks.
type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Password       string    `json:"-"` // plaintext, only held between registration and hashing
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewUser creates a new User with the given username and plaintext password.
// The caller is responsible for hashing the password before storing the user.
func NewUser(username, password string) (*User, error) {
	user := &User{
		ID:        uuid.New(),
		Username:  username,
		Password:  password,
		CreatedAt: time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Username == "" {
		return ErrEmptyUsername
	}
	if len(u.Username) < MinUsernameLength || len(u.Username) > MaxUsernameLength {
		return ErrInvalidUsername
	}

	// A stored user has no plaintext password but must carry a hash.
	if u.Password == "" {
		if u.HashedPassword == "" {
			return ErrEmptyPassword
		}
		return nil
	}

	if len(u.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(u.Password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}

	return nil
}
