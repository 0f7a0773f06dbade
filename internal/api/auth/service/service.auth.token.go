package authsvc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	authdto "admin_backoffice/internal/api/auth/dto"
	models "admin_backoffice/internal/api/auth/models"
	basemodels "admin_backoffice/internal/api/base/models"
	"admin_backoffice/internal/authz"
	"admin_backoffice/internal/common"
	"admin_backoffice/internal/database"
	"admin_backoffice/internal/logger"
)

// AuthService đăng nhập và xác thực bearer token (JWT HS256)
type AuthService struct {
	accounts *AccountService
	runner   *database.TransactionRunner
	secret   []byte
	ttl      time.Duration
	now      func() time.Time

	// dummyHash dùng khi không tìm thấy email, để thời gian trả lời
	// không cho biết email có tồn tại hay không
	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService tạo mới AuthService
func NewAuthService(accounts *AccountService, runner *database.TransactionRunner, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		accounts: accounts,
		runner:   runner,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Login kiểm tra email/mật khẩu và cấp token mới
func (s *AuthService) Login(ctx context.Context, input *authdto.LoginInput) (*authdto.LoginResult, error) {
	account, err := s.accounts.FindActiveByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.fallbackHash(), []byte(input.Password))
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.Collapse(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.Security.PasswordHash), []byte(input.Password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}
	if account.Data.Status == models.AccountStatusLocked {
		return nil, common.ErrInvalidCredentials
	}
	if _, err := s.accounts.ResolveActor(ctx, account.ID); err != nil {
		if errors.Is(err, common.ErrUnauthenticated) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.Collapse(err)
	}

	if err := s.touchLastLogin(ctx, account.ID); err != nil {
		logger.WithContext(ctx).WithError(err).Warn("Không cập nhật được lastLogin")
	}

	token, expiresAt, err := s.IssueToken(account.ID)
	if err != nil {
		return nil, common.Collapse(err)
	}
	return &authdto.LoginResult{Token: token, ExpiresAt: expiresAt.UnixMilli()}, nil
}

// fallbackHash trả về hash bcrypt cố định, cùng cost với mật khẩu thật
func (s *AuthService) fallbackHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.accounts.passwordCost)
		if err != nil {
			logger.GetAppLogger().WithError(err).Error("Không tạo được hash dự phòng cho đăng nhập")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// touchLastLogin ghi data.lastLogin (không tính là một lần cập nhật trong lịch sử)
func (s *AuthService) touchLastLogin(ctx context.Context, id primitive.ObjectID) error {
	repo := s.accounts.Repository()
	return s.runner.Run(ctx, nil, func(ctx context.Context, _ database.Scope) error {
		account, err := repo.FindOneById(ctx, id, basemodels.OnlyActive, nil)
		if err != nil {
			return err
		}
		now := s.now().UnixMilli()
		account.Data.LastLogin = &now
		return repo.ReplaceOneById(ctx, id, account)
	})
}

// IssueToken ký token cho tài khoản
func (s *AuthService) IssueToken(accountID primitive.ObjectID) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   accountID.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken kiểm tra chữ ký, thời hạn và trả về ID tài khoản
func (s *AuthService) ParseToken(tokenString string) (primitive.ObjectID, error) {
	if tokenString == "" {
		return primitive.NilObjectID, common.ErrTokenMissing
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return primitive.NilObjectID, common.ErrTokenExpired
		}
		return primitive.NilObjectID, common.ErrTokenInvalid
	}

	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.NilObjectID, common.ErrTokenInvalid
	}
	return id, nil
}

// Authenticate xác định actor từ bearer token
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*authz.Actor, error) {
	id, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	actor, err := s.accounts.ResolveActor(ctx, id)
	if err != nil {
		return nil, common.Collapse(err)
	}
	return actor, nil
}
