package users

import (
	"time"

	"yamdb-api/common"
)

// Role is a user's permission level
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ValidRole reports whether the value is one of the known roles
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleModerator || r == RoleAdmin
}

// UserModel represents a registered user.
// Confirmation code state is internal and never serialized.
type UserModel struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"uniqueIndex;not null;size:150" json:"username"`
	Email     string `gorm:"uniqueIndex;not null;size:254" json:"email"`
	FirstName string `gorm:"size:150" json:"first_name"`
	LastName  string `gorm:"size:150" json:"last_name"`
	Bio       string `gorm:"type:text" json:"bio"`
	Role      Role   `gorm:"not null;default:'user'" json:"role"`
	IsStaff   bool   `gorm:"not null;default:false" json:"-"`

	ConfirmationHash     string     `gorm:"size:60" json:"-"`
	ConfirmationIssuedAt *time.Time `json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}

func (UserModel) TableName() string {
	return "users"
}

// IsAdmin reports admin privileges; the staff flag also grants them
func (u *UserModel) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsStaff
}

// IsModerator reports the moderator role only
func (u *UserModel) IsModerator() bool {
	return u.Role == RoleModerator
}

// AutoMigrate creates the users table
func AutoMigrate() {
	db := common.GetDB()
	db.AutoMigrate(&UserModel{})
}
