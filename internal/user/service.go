// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/fixit/internal/model"
	"github.com/hitoshi/fixit/internal/password"
	"github.com/hitoshi/fixit/internal/repository"
)

// protectedUsername は削除が禁止されているユーザー名。
const protectedUsername = "admin"

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo   repository.UserRepository
	bcryptCost int
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, bcryptCost int) *Service {
	return &Service{
		userRepo:   userRepo,
		bcryptCost: bcryptCost,
	}
}

// Get は指定ユーザーの情報を取得する。
// 見つからない場合はUSER_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, username string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(username)
	}
	return user, nil
}

// List は全ユーザーの縮約ビューを返す。
// パスワードハッシュを含むフィールドは外部に出さない。
func (s *Service) List(ctx context.Context) (map[string]model.UserSummary, error) {
	users, err := s.userRepo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	summaries := make(map[string]model.UserSummary, len(users))
	for username, u := range users {
		summaries[username] = model.UserSummary{
			Name: u.Name,
			Role: u.Role,
		}
	}
	return summaries, nil
}

// Create は新規ユーザーを作成する。
// 新規アカウントは初回ログイン時のパスワード変更を要求される。
func (s *Service) Create(ctx context.Context, username, plain, name string, role model.Role) error {
	if username == "" {
		return model.NewInvalidRequestError("ユーザー名が空です")
	}
	if plain == "" {
		return model.NewInvalidRequestError("パスワードが空です")
	}
	if role == "" {
		role = model.RoleUser
	}
	if role != model.RoleAdmin && role != model.RoleUser {
		return model.NewInvalidRequestError(fmt.Sprintf("不明なロールです: %s", role))
	}

	hash, err := password.Hash(plain, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.Create(ctx, &model.User{
		Username:            username,
		PasswordHash:        hash,
		Name:                name,
		Role:                role,
		ForcePasswordChange: true,
	}); err != nil {
		return err
	}

	slog.Info("user created",
		slog.String("username", username),
		slog.String("role", string(role)),
	)
	return nil
}

// Delete は指定ユーザーを削除する。adminユーザーは呼び出し元の
// ロールに関わらず削除できない。存在しないユーザーの削除は成功扱い。
func (s *Service) Delete(ctx context.Context, username string) error {
	if username == protectedUsername {
		return model.NewAdminProtectedError()
	}

	if err := s.userRepo.Delete(ctx, username); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user deleted",
		slog.String("username", username),
	)
	return nil
}

// ChangePassword は対象ユーザーのパスワードを変更する。
// 許可されるのは管理者または本人のみ。管理者が他人のパスワードを
// 変更した場合は次回ログイン時の変更を強制し、本人による変更は
// 強制フラグを解除する。
func (s *Service) ChangePassword(ctx context.Context, actor *model.Identity, target, plain string) error {
	if !actor.IsAdmin && actor.Username != target {
		return model.NewForbiddenError()
	}
	if plain == "" {
		return model.NewInvalidRequestError("パスワードが空です")
	}

	hash, err := password.Hash(plain, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	forceChange := actor.IsAdmin && actor.Username != target
	if err := s.userRepo.SetPassword(ctx, target, hash, forceChange, time.Now()); err != nil {
		return err
	}

	slog.Info("password changed",
		slog.String("username", target),
		slog.String("changed_by", actor.Username),
		slog.Bool("force_password_change", forceChange),
	)
	return nil
}
