// Package customer は顧客レコード管理のドメインロジックを提供する。
package customer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/fixit/internal/model"
	"github.com/hitoshi/fixit/internal/repository"
)

// Service は顧客CRUDのサービス層。
// 顧客操作は認証済みであれば誰でも行える（所有者モデルは持たない）。
type Service struct {
	customerRepo repository.CustomerRepository
}

// NewService はServiceを生成する。
func NewService(customerRepo repository.CustomerRepository) *Service {
	return &Service{customerRepo: customerRepo}
}

// List は全顧客を格納順で返す。
func (s *Service) List(ctx context.Context) ([]model.Customer, error) {
	customers, err := s.customerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

// Create は新規顧客を作成し、採番済みのレコードを返す。
func (s *Service) Create(ctx context.Context, fields map[string]any) (*model.Customer, error) {
	created, err := s.customerRepo.Create(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	slog.Info("customer created",
		slog.Int("customer_id", created.ID),
	)
	return created, nil
}

// Update は指定IDの顧客に部分更新をマージし、更新後のレコードを返す。
func (s *Service) Update(ctx context.Context, id int, fields map[string]any) (*model.Customer, error) {
	updated, err := s.customerRepo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	slog.Info("customer updated",
		slog.Int("customer_id", id),
	)
	return updated, nil
}

// Delete は指定IDの顧客を削除する。存在しないIDの削除も成功扱い。
func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	slog.Info("customer deleted",
		slog.Int("customer_id", id),
	)
	return nil
}
