package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/netsentinel/console/backend/internal/config"
	"github.com/netsentinel/console/backend/internal/models"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
	tokenLifetime   = 24 * time.Hour
)

// Claims carried in the session token.
type Claims struct {
	UserID uint        `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	DB     *gorm.DB
	secret []byte
	Audit  *AuditService
}

func NewAuthService(db *gorm.DB, cfg config.Config, audit *AuditService) *AuthService {
	return &AuthService{DB: db, secret: []byte(cfg.JWTSecret), Audit: audit}
}

// Register creates a user. The first registered user becomes admin; everyone
// after that starts as a read-only viewer until an admin promotes them.
func (s *AuthService) Register(email, password, name string) (*models.User, error) {
	var count int64
	if err := s.DB.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, err
	}

	role := models.RoleViewer
	if count == 0 {
		role = models.RoleAdmin
	}

	user := models.User{Email: email, Name: name, Role: role, Enabled: true}
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.DB.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, Ef(KindConflict, "auth.register", "email already registered")
		}
		return nil, err
	}

	if s.Audit != nil {
		s.Audit.Record(email, AuditActionRegister, "registered with role "+string(role))
	}
	return &user, nil
}

// Login checks credentials, applies the lockout counter and returns a signed
// session token.
func (s *AuthService) Login(email, password string) (string, error) {
	var user models.User
	if err := s.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errors.New("invalid credentials")
		}
		return "", err
	}

	if !user.Enabled {
		return "", errors.New("account disabled")
	}
	if user.LockedUntil != nil && user.LockedUntil.After(time.Now()) {
		return "", errors.New("account locked")
	}

	if !user.CheckPassword(password) {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= maxFailedLogins {
			until := time.Now().Add(lockoutDuration)
			user.LockedUntil = &until
		}
		s.DB.Save(&user)
		return "", errors.New("invalid credentials")
	}

	now := time.Now()
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLogin = &now
	s.DB.Save(&user)

	token, err := s.issueToken(&user)
	if err != nil {
		return "", err
	}

	if s.Audit != nil {
		s.Audit.Record(email, AuditActionLogin, "login succeeded")
	}
	return token, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   user.Email,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a session token.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// GetUserByID loads one user.
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword verifies the old password before setting the new one.
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(oldPassword) {
		return errors.New("invalid credentials")
	}
	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.DB.Save(user).Error
}

// SetRole updates a user's role; admin-only at the handler layer.
func (s *AuthService) SetRole(userID uint, role models.Role) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, Ef(KindValidation, "auth.set_role", "unknown role %q", role)
	}
	user, err := s.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Ef(KindNotFound, "auth.set_role", "user %d not found", userID)
		}
		return nil, err
	}
	user.Role = role
	if err := s.DB.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
