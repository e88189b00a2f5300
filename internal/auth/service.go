// Package auth はログインとセッション認証を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/fixit/internal/model"
	"github.com/hitoshi/fixit/internal/password"
	"github.com/hitoshi/fixit/internal/repository"
)

// Metrics はログイン結果の計測インターフェース。
type Metrics interface {
	RecordLoginSuccess()
	RecordLoginFailure()
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
	metrics     Metrics // nilの場合は計測しない
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
	metrics Metrics,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
		metrics:     metrics,
	}
}

// Login は資格情報を検証し、成功時にセッションを発行する。
// ユーザー不在とパスワード不一致は同じ認証失敗として返し、
// どちらが誤りかは開示しない。
func (s *Service) Login(ctx context.Context, username, plain string) (*model.Session, *model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		// 不在ユーザーでも照合時間を揃える
		password.VerifyDummy(plain)
		s.recordFailure(username)
		return nil, nil, model.NewInvalidCredentialsError()
	}

	if !password.Verify(user.PasswordHash, plain) {
		s.recordFailure(username)
		return nil, nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}
	slog.Info("user logged in",
		slog.String("username", username),
	)
	return session, user, nil
}

// Authenticate はベアラートークンからリクエストの操作主体を解決する。
// トークン不在・期限切れ・セッションの指すユーザーの消失は
// いずれもセッション無効として扱う。
func (s *Service) Authenticate(ctx context.Context, token string) (*model.Identity, error) {
	session, err := s.sessionRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewSessionExpiredError()
	}

	user, err := s.userRepo.FindByUsername(ctx, session.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewSessionExpiredError()
	}

	return &model.Identity{
		Username: user.Username,
		Role:     user.Role,
		IsAdmin:  user.IsAdmin(),
	}, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, username string) (*model.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &model.Session{
		Token:     token,
		Username:  username,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// recordFailure はログイン失敗を記録する。
func (s *Service) recordFailure(username string) {
	if s.metrics != nil {
		s.metrics.RecordLoginFailure()
	}
	slog.Warn("login failed",
		slog.String("username", username),
	)
}

// generateToken は暗号的に安全な256ビットのセッショントークンを生成する。
// トークンは不透明な検索キーとしてのみ使用し、内容に意味を持たせない。
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
