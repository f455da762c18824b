package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"paper-trader/models"
)

// AccountService handles registration, login verification and credential
// changes. Identity is always passed in by the caller; the service never
// consults any ambient session state.
type AccountService struct {
	db           *gorm.DB
	startingCash float64
	log          *zap.SugaredLogger
}

func NewAccountService(db *gorm.DB, startingCash float64, log *zap.SugaredLogger) *AccountService {
	return &AccountService{db: db, startingCash: startingCash, log: log}
}

// Register creates a new user with the starting cash balance. The
// username is unique case-sensitively.
func (s *AccountService) Register(ctx context.Context, username, password string) (models.User, error) {
	var existing models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err == nil {
		return models.User{}, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, fmt.Errorf("check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{Username: username, Password: string(hash), Cash: s.startingCash}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// A concurrent registration can slip past the pre-check; the
		// unique index still wins and reports the same taken-username
		// error.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Infow("user registered", "user", user.ID, "username", username)
	return user, nil
}

// Login verifies username and password. Unknown user and wrong password
// produce the same error.
func (s *AccountService) Login(ctx context.Context, username, password string) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *AccountService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return fmt.Errorf("load user %d: %w", userID, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&user).Update("password", string(hash)).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.log.Infow("password changed", "user", userID)
	return nil
}

// ChangeUsername renames an account. The password is verified against the
// OLD username's hash before anything else is checked.
func (s *AccountService) ChangeUsername(ctx context.Context, oldName, newName, password string) error {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", oldName).First(&user).Error; err != nil {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	var taken models.User
	err := s.db.WithContext(ctx).Where("username = ?", newName).First(&taken).Error
	if err == nil {
		return ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check username: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("username", newName).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("rename user: %w", err)
	}

	s.log.Infow("username changed", "user", user.ID, "from", oldName, "to", newName)
	return nil
}
