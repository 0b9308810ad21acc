package models

type UserRole string

const (
	UserRoleUser      UserRole = "user"
	UserRoleAdmin     UserRole = "admin"
	UserRoleSuperuser UserRole = "superuser"
)

// ValidRole reports whether value is one of the recognized account roles.
func ValidRole(value UserRole) bool {
	switch value {
	case UserRoleUser, UserRoleAdmin, UserRoleSuperuser:
		return true
	default:
		return false
	}
}

// SuperuserFlag values for User.SuperuserRole. This single-character flag is
// an elevated-deletion privilege independent of the Role enum; both signals
// are kept as separate fields.
const (
	SuperuserYes = "Y"
	SuperuserNo  = "N"
)

type User struct {
	BaseModel
	Username       string   `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	Email          string   `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash   string   `json:"-" gorm:"type:text;not null"`
	Role           UserRole `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	SuperuserRole  string   `json:"superuserRole" gorm:"type:varchar(1);not null;default:'N'"`
	ProfilePicture *string  `json:"profilePicture,omitempty" gorm:"type:text"`
	Stories        []Story  `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}
