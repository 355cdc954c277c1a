package auth

import (
	"context"
	"errors"
	"time"

	autherrors "go-leave/internal/auth/errors"
	"go-leave/internal/shared/token"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const RefreshTokenTTL = 7 * 24 * time.Hour

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Login(ctx context.Context, email, password string) (TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (TokenResponse, error)
	GetMe(ctx context.Context, employeeID uint) (AuthResponse, error)
}

type service struct {
	repo      Repository
	secret    string
	accessTTL time.Duration
	logger    *zap.Logger
}

func NewService(repo Repository, secret string, accessTTL time.Duration, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{repo: repo, secret: secret, accessTTL: accessTTL, logger: l}
}

func (s *service) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	acc, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("login lookup failed", zap.Error(err))
			return TokenResponse{}, err
		}
		return TokenResponse{}, autherrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("login rejected", zap.Uint("employee_id", acc.ID))
		return TokenResponse{}, autherrors.ErrInvalidCredentials
	}

	resp, err := s.issue(acc)
	if err != nil {
		return TokenResponse{}, err
	}
	s.logger.Info("login success", zap.Uint("employee_id", acc.ID), zap.String("role", acc.Role))
	return resp, nil
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (TokenResponse, error) {
	claims, err := token.Parse(s.secret, refreshToken, token.TypeRefresh)
	if err != nil {
		return TokenResponse{}, autherrors.ErrInvalidRefreshToken
	}

	// Role is re-read so a changed role takes effect on refresh.
	acc, err := s.repo.GetByID(ctx, claims.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TokenResponse{}, autherrors.ErrAccountNotFound
		}
		return TokenResponse{}, err
	}
	return s.issue(acc)
}

func (s *service) GetMe(ctx context.Context, employeeID uint) (AuthResponse, error) {
	acc, err := s.repo.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthResponse{}, autherrors.ErrAccountNotFound
		}
		return AuthResponse{}, err
	}
	return mapToResponse(acc), nil
}

func (s *service) issue(acc *Account) (TokenResponse, error) {
	access, err := token.Issue(s.secret, acc.ID, acc.Role, token.TypeAccess, s.accessTTL)
	if err != nil {
		s.logger.Error("sign access token failed", zap.Error(err))
		return TokenResponse{}, autherrors.ErrTokenGenerationFailed
	}
	refresh, err := token.Issue(s.secret, acc.ID, acc.Role, token.TypeRefresh, RefreshTokenTTL)
	if err != nil {
		s.logger.Error("sign refresh token failed", zap.Error(err))
		return TokenResponse{}, autherrors.ErrTokenGenerationFailed
	}
	return TokenResponse{
		User:         mapToResponse(acc),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func mapToResponse(acc *Account) AuthResponse {
	return AuthResponse{
		EmployeeID: acc.ID,
		Email:      acc.Email,
		FullName:   acc.FirstName + " " + acc.LastName,
		Role:       acc.Role,
	}
}
