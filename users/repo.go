package users

import "time"

type UserRepo interface {
	Upsert(user *User) error
	Delete(username string) error
	GetByUsername(username string) (*User, error)
	GetByEmail(email string) (*User, error)
	GetByID(id string) (*User, error)
	SetLastLogin(id string, lastLogin time.Time) error
}
