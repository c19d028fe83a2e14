package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/config"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type AuthService struct {
	Config config.Config
	Users  repository.UserRepository
	Logger *slog.Logger
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         domain.User
	ExpiresAt    time.Time
}

type RegisterInput struct {
	Name      string
	Email     string
	Password  string
	Phone     string
	StationID *int64
	Role      domain.UserRole
}

type LoginInput struct {
	Email    string
	Password string
}

type RefreshInput struct {
	RefreshToken string
}

func (s AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if in.Role == "" {
		in.Role = domain.RoleStaff
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.Users.Create(ctx, repository.CreateUserParams{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		StationID:    in.StationID,
		Role:         in.Role,
		PasswordHash: ptr(string(hash)),
	})
	if err != nil {
		if repository.IsDuplicate(err) {
			return nil, fmt.Errorf("email already used")
		}
		return nil, err
	}
	return s.issueTokens(user)
}

func (s AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	user, err := s.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(user)
}

func (s AuthService) Refresh(ctx context.Context, in RefreshInput) (*AuthResult, error) {
	token, err := jwt.Parse(in.RefreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.Config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if claims["token_type"] != "refresh" {
		return nil, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return s.issueTokens(user)
}

func (s AuthService) issueTokens(user *domain.User) (*AuthResult, error) {
	now := time.Now()
	accessExp := now.Add(s.Config.AccessTokenTTL)
	refreshExp := now.Add(s.Config.RefreshTokenTTL)

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        fmt.Sprintf("%d", user.ID),
		"email":      user.Email,
		"name":       user.Name,
		"role":       user.Role,
		"token_type": "access",
		"exp":        accessExp.Unix(),
		"iat":        now.Unix(),
	}).SignedString([]byte(s.Config.JWTSecret))
	if err != nil {
		return nil, err
	}

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        fmt.Sprintf("%d", user.ID),
		"token_type": "refresh",
		"exp":        refreshExp.Unix(),
		"iat":        now.Unix(),
	}).SignedString([]byte(s.Config.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         *user,
		ExpiresAt:    accessExp,
	}, nil
}

func ptr[T any](v T) *T { return &v }
