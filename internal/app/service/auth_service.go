package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/internal/app/repository"
	"github.com/ikkim/reviewfunnel-backend/pkg/logger"
	"github.com/ikkim/reviewfunnel-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrMissingCredentials = errors.New("Email and password are required")
	ErrEmailAlreadyExists = errors.New("User with this email already exists")
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// TokenRevoker 로그아웃된 토큰 저장소 (pkg/redis.TokenBlacklist)
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, expiry time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthToken 발급된 세션 토큰
type AuthToken struct {
	Token     string
	ExpiresAt time.Time
}

type AuthService interface {
	Register(email, password, name string) (*model.User, *AuthToken, error)
	Login(email, password string) (*model.User, *AuthToken, error)
	Verify(ctx context.Context, token string) (*model.User, error)
	Logout(ctx context.Context, token string) error
	GetUserByID(id uint) (*model.User, error)
}

type authService struct {
	userRepo    repository.UserRepository
	revoker     TokenRevoker // nil when Redis is disabled
	jwtSecret   string
	tokenExpiry time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	revoker TokenRevoker,
	jwtSecret string,
	tokenExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		revoker:     revoker,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(email, password, name string) (*model.User, *AuthToken, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, ErrMissingCredentials
	}
	if err := util.ValidatePassword(password); err != nil {
		return nil, nil, err
	}

	logger.Info("Attempting user registration", map[string]interface{}{
		"email": email,
	})

	// Check if user already exists
	existingUser, err := s.userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}
	if existingUser != nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := util.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashedPassword,
		PlanTier:     model.PlanFree,
		PlanStatus:   model.PlanStatusActive,
	}
	if name = strings.TrimSpace(name); name != "" {
		user.Name = &name
	}

	if err := s.userRepo.Create(user); err != nil {
		// 동시 가입 경쟁
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, ErrEmailAlreadyExists
		}
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
	})

	return user, token, nil
}

func (s *authService) Login(email, password string) (*model.User, *AuthToken, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, ErrMissingCredentials
	}

	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		logger.Error("Failed to find user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"email":   email,
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
	})

	return user, token, nil
}

func (s *authService) issueToken(user *model.User) (*AuthToken, error) {
	token, expiresAt, err := util.GenerateToken(user.ID, user.Email, s.jwtSecret, s.tokenExpiry)
	if err != nil {
		logger.Error("Failed to generate token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return &AuthToken{Token: token, ExpiresAt: expiresAt}, nil
}

// Verify 토큰 검증 후 사용자 반환
func (s *authService) Verify(ctx context.Context, token string) (*model.User, error) {
	claims, err := util.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, token)
		if err != nil {
			// 블랙리스트 조회 실패는 통과 처리
			logger.Warn("Token blacklist lookup failed", map[string]interface{}{
				"user_id": claims.UserID,
				"error":   err.Error(),
			})
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return s.GetUserByID(claims.UserID)
}

// Logout 토큰을 만료 시각까지 블랙리스트에 등록
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" || s.revoker == nil {
		return nil
	}

	claims, err := util.ValidateToken(token, s.jwtSecret)
	if err != nil || claims.ExpiresAt == nil {
		// 이미 무효한 토큰
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.revoker.Revoke(ctx, token, ttl); err != nil {
		logger.Error("Failed to revoke token", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return err
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("User not found", map[string]interface{}{
				"user_id": id,
			})
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to fetch user", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}
	return user, nil
}
