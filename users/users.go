package users

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/29rl/task-manager-fullstack/internal/errors"
)

// MinPasswordLength is the minimum accepted password length, enforced both
// here and in the session client before any network call.
const MinPasswordLength = 6

var emailRegexp = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type User struct {
	ID           string    `json:"id,omitempty"`          // Unique identifier for the user
	Username     string    `json:"username,omitempty"`    // Unique username used to log in
	Email        string    `json:"email,omitempty"`       // User's email address
	PasswordHash string    `json:"-"`                     // Hashed version of the user's password - never serialize
	FirstName    string    `json:"first_name,omitempty"`  // First name of the user
	LastName     string    `json:"last_name,omitempty"`   // Last name of the user
	DateJoined   time.Time `json:"date_joined,omitempty"` // Date and time when the user registered
	LastLogin    time.Time `json:"last_login,omitempty"`  // Last time the user logged in
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Registration is a pending account request. Validate before persisting.
type Registration struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Validate checks the registration's field formats. Uniqueness is checked
// separately against the repository in Register.
func (r Registration) Validate() error {
	fields := map[string][]string{}

	if strings.TrimSpace(r.Username) == "" {
		fields["username"] = append(fields["username"], "username is required")
	}

	switch {
	case strings.TrimSpace(r.Email) == "":
		fields["email"] = append(fields["email"], "email is required")
	case !emailRegexp.MatchString(r.Email):
		fields["email"] = append(fields["email"], "enter a valid email address")
	}

	switch {
	case r.Password == "":
		fields["password"] = append(fields["password"], "password is required")
	case len(r.Password) < MinPasswordLength:
		fields["password"] = append(fields["password"], "password must be at least 6 characters")
	}

	if len(fields) > 0 {
		return &apperrors.ValidationError{Fields: fields}
	}
	return nil
}

// Register validates the registration, enforces username/email uniqueness
// and stores the new user with a hashed password.
func Register(repo UserRepo, reg Registration, now time.Time) (*User, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	if existing, err := repo.GetByUsername(reg.Username); err == nil && existing != nil {
		return nil, apperrors.NewValidationError("username", "a user with that username already exists")
	}
	if existing, err := repo.GetByEmail(reg.Email); err == nil && existing != nil {
		return nil, apperrors.NewValidationError("email", "a user with that email already exists")
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Register] HashPassword")
	}

	user := &User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: hash,
		DateJoined:   now,
	}
	if err := repo.Upsert(user); err != nil {
		return nil, apperrors.Wrapf(err, "[Register] Upsert")
	}
	return user, nil
}
