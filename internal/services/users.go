package services

import (
	"context"
	"fmt"

	"github.com/novelnest/backend/internal/models"
	"github.com/novelnest/backend/pkg/utils"
	"gorm.io/gorm"
)

// UserDirectory owns user identity: registration, credential checks, profile
// and role mutation, deletion and the role/flag listings consumed by
// StoryCatalog.
type UserDirectory struct {
	DB *gorm.DB
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{DB: db}
}

type RegisterParams struct {
	Username string
	Email    string
	Password string
	Role     models.UserRole
}

// Register creates a new account. The duplicate-email check runs before the
// insert so a duplicate surfaces as ErrEmailTaken rather than a driver error;
// any failure during the insert itself is an internal error.
func (d *UserDirectory) Register(ctx context.Context, p RegisterParams) error {
	var existing models.User
	err := d.DB.WithContext(ctx).First(&existing, "email = ?", p.Email).Error
	if err == nil {
		return ErrEmailTaken
	}
	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("checking existing user: %w", err)
	}

	hash, err := utils.HashPassword(p.Password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	role := p.Role
	if role == "" {
		role = models.UserRoleUser
	}

	user := models.User{
		Username:      p.Username,
		Email:         p.Email,
		PasswordHash:  hash,
		Role:          role,
		SuperuserRole: models.SuperuserNo,
	}

	if err := d.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

// Authenticate verifies an email/password pair. An unknown email and a wrong
// password both return ErrInvalidCredentials so callers cannot probe which
// accounts exist. The bcrypt comparison is constant-time.
func (d *UserDirectory) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	if err := d.DB.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// UpdateProfilePicture replaces a user's picture URL. The row must match both
// id and email; requiring the pair acts as a tamper check on the caller.
func (d *UserDirectory) UpdateProfilePicture(ctx context.Context, userID uint, email, profileURL string) (*models.User, error) {
	user, err := d.findByIDAndEmail(ctx, userID, email)
	if err != nil {
		return nil, err
	}

	user.ProfilePicture = &profileURL
	if err := d.DB.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}

	return user, nil
}

// UpdateRole sets a user's role after the same id+email double-match lookup.
func (d *UserDirectory) UpdateRole(ctx context.Context, userID uint, email string, role models.UserRole) (*models.User, error) {
	user, err := d.findByIDAndEmail(ctx, userID, email)
	if err != nil {
		return nil, err
	}

	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	user.Role = role
	if err := d.DB.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}

	return user, nil
}

// Delete removes a user and every story they authored. The story table also
// carries an ON DELETE CASCADE constraint; the explicit delete keeps the
// cascade invariant on drivers that ship with foreign keys disabled.
func (d *UserDirectory) Delete(ctx context.Context, id uint) error {
	var user models.User
	if err := d.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrUserNotFound
		}
		return fmt.Errorf("loading user: %w", err)
	}

	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("author_id = ?", id).Delete(&models.Story{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

// FindByID returns the user or nil when absent. Absence is not an error here:
// StoryCatalog uses this as an existence check.
func (d *UserDirectory) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := d.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail returns the user or nil when absent.
func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := d.DB.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (d *UserDirectory) ListSuperusers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := d.DB.WithContext(ctx).Where("superuser_role = ?", models.SuperuserYes).Find(&users).Error
	return users, err
}

// ListAuthors returns every admin-role user. The name is inherited from the
// public contract: the "authors" bucket filters on role=admin, not on whether
// the user has published anything.
func (d *UserDirectory) ListAuthors(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := d.DB.WithContext(ctx).Where("role = ?", models.UserRoleAdmin).Find(&users).Error
	return users, err
}

func (d *UserDirectory) ListAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := d.DB.WithContext(ctx).Find(&users).Error
	return users, err
}

func (d *UserDirectory) findByIDAndEmail(ctx context.Context, userID uint, email string) (*models.User, error) {
	var user models.User
	err := d.DB.WithContext(ctx).First(&user, "id = ? AND email = ?", userID, email).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserEmailMismatch
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return &user, nil
}
