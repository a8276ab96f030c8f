package types

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RolePatient UserRole = "PATIENT"
	RoleExpert  UserRole = "EXPERT"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null;column:username" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password  string    `gorm:"not null;column:password" json:"-"`
	FullName  string    `gorm:"not null;column:full_name" json:"full_name"`
	Birthdate time.Time `gorm:"column:birthdate" json:"birthdate"`
	Gender    Gender    `gorm:"not null;column:gender" json:"gender"`
	Role      UserRole  `gorm:"not null;column:role" json:"role"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}

func (u *User) IsExpert() bool {
	return u.Role == RoleExpert
}

// CanReview reports whether the user may be assigned consultations.
// Admins double as reviewers.
func (u *User) CanReview() bool {
	return u.Role == RoleExpert || u.Role == RoleAdmin
}
