package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/auth"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
	"github.com/personnel_accounting/pkg/logger"
)

var (
	// ErrInvalidCredentials hides whether the username or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = fmt.Errorf("%w: user", ErrNotFound)
	ErrUsernameExists     = fmt.Errorf("%w: username already exists", ErrConflict)
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// NewUser describes an account created from the command line.
type NewUser struct {
	Username   string
	Password   string
	Role       string
	LastName   string
	FirstName  string
	MiddleName string
}

// AuthService handles logins, logouts and user accounts.
type AuthService interface {
	Login(ctx context.Context, actx audit.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, actx audit.Context, expiresAt time.Time) error
	Me(ctx context.Context, userID int64) (*models.User, error)
	CreateUser(ctx context.Context, actx audit.Context, u NewUser) (*models.User, error)
	// SetRole changes a user's role and writes a PERMISSION_CHANGE row.
	SetRole(ctx context.Context, actx audit.Context, username, role string) (*models.User, error)
}

type authService struct {
	db       *gorm.DB
	recorder *audit.Recorder
	issuer   *auth.TokenIssuer
	denylist auth.Denylist
	now      func() time.Time
}

// NewAuthService creates an AuthService.
func NewAuthService(db *gorm.DB, recorder *audit.Recorder, issuer *auth.TokenIssuer, denylist auth.Denylist) AuthService {
	return &authService{db: db, recorder: recorder, issuer: issuer, denylist: denylist, now: time.Now}
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *authService) Login(ctx context.Context, actx audit.Context, username, password string) (*LoginResult, error) {
	log := logger.FromContext(ctx).WithField("username", username)
	user, err := repositories.NewGormUserRepository(s.db).GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repositories.ErrRecordNotFound) {
		log.Warn("login failed: unknown user")
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, err
	}
	if !user.IsActive || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		log.Warn("login failed")
		return nil, ErrInvalidCredentials
	}

	token, claims, err := s.issuer.Issue(user)
	if err != nil {
		return nil, err
	}
	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repositories.NewGormUserRepository(tx).TouchLastLogin(ctx, user.ID, now); err != nil {
			return err
		}
		actx.UserID = &user.ID
		actx.SessionKey = claims.ID
		return s.recorder.Log(tx, actx, models.AuditLogin, user, nil, models.SeverityInfo, "Вхід в систему: "+user.Username)
	})
	if err != nil {
		return nil, err
	}
	user.LastLoginAt = &now
	log.WithFields(logrus.Fields{"user-id": user.ID, "role": user.Role}).Info("user logged in")
	return &LoginResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

// Logout denylists the session in actx until expiresAt.
func (s *authService) Logout(ctx context.Context, actx audit.Context, expiresAt time.Time) error {
	if actx.SessionKey == "" {
		return fmt.Errorf("%w: session id is missing", ErrValidationInput)
	}
	if err := s.denylist.Add(ctx, actx.SessionKey, expiresAt); err != nil {
		return fmt.Errorf("denylist token: %w", err)
	}
	var user *models.User
	if actx.UserID != nil {
		u, err := repositories.NewGormUserRepository(s.db).GetByID(ctx, *actx.UserID)
		if err == nil {
			user = u
		}
	}
	return s.recorder.Log(s.db.WithContext(ctx), actx, models.AuditLogout, user, nil, models.SeverityInfo, "")
}

func (s *authService) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := repositories.NewGormUserRepository(s.db).GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *authService) CreateUser(ctx context.Context, actx audit.Context, u NewUser) (*models.User, error) {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" || len(u.Password) < 8 {
		return nil, fmt.Errorf("%w: username and a password of at least 8 characters are required", ErrValidationInput)
	}
	if u.Role == "" {
		u.Role = models.RoleStaffOfficer
	}
	if !models.IsValidRole(u.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidationInput, u.Role)
	}
	hash, err := HashPassword(u.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     u.Username,
		PasswordHash: hash,
		Role:         u.Role,
		LastName:     u.LastName,
		FirstName:    u.FirstName,
		MiddleName:   u.MiddleName,
		IsActive:     true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := repositories.NewGormUserRepository(tx).GetByUsername(ctx, user.Username)
		if err == nil {
			return ErrUsernameExists
		} else if !errors.Is(err, repositories.ErrRecordNotFound) {
			return err
		}
		err = s.recorder.Save(tx, actx, user)
		if repositories.IsUniqueViolation(err, "users.username") {
			return ErrUsernameExists
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) SetRole(ctx context.Context, actx audit.Context, username, role string) (*models.User, error) {
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidationInput, role)
	}
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := repositories.NewGormUserRepository(tx).GetByUsername(ctx, username)
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return ErrUserNotFound
		} else if err != nil {
			return err
		}
		if u.Role == role {
			user = u
			return nil
		}
		old := u.Role
		u.Role = role
		if err := s.recorder.Save(tx, actx, u); err != nil {
			return err
		}
		user = u
		changes := map[string]any{"old": map[string]any{"role": old}, "new": map[string]any{"role": role}}
		return s.recorder.Log(tx, actx, models.AuditPermissionChange, u, changes, models.SeverityWarning, "")
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
