package customer

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/fixit/internal/model"
)

// mockCustomerRepo はCustomerRepositoryのモック。
type mockCustomerRepo struct {
	listFunc   func(ctx context.Context) ([]model.Customer, error)
	createFunc func(ctx context.Context, fields map[string]any) (*model.Customer, error)
	updateFunc func(ctx context.Context, id int, fields map[string]any) (*model.Customer, error)
	deleteFunc func(ctx context.Context, id int) error
}

func (m *mockCustomerRepo) List(ctx context.Context) ([]model.Customer, error) {
	return m.listFunc(ctx)
}

func (m *mockCustomerRepo) Create(ctx context.Context, fields map[string]any) (*model.Customer, error) {
	return m.createFunc(ctx, fields)
}

func (m *mockCustomerRepo) Update(ctx context.Context, id int, fields map[string]any) (*model.Customer, error) {
	return m.updateFunc(ctx, id, fields)
}

func (m *mockCustomerRepo) Delete(ctx context.Context, id int) error {
	return m.deleteFunc(ctx, id)
}

func TestService_List(t *testing.T) {
	repo := &mockCustomerRepo{
		listFunc: func(ctx context.Context) ([]model.Customer, error) {
			return []model.Customer{
				{ID: 1, Fields: map[string]any{"name": "Acme"}},
				{ID: 2, Fields: map[string]any{"name": "Globex"}},
			}, nil
		},
	}
	service := NewService(repo)

	got, err := service.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("got = %+v", got)
	}
}

func TestService_Create(t *testing.T) {
	repo := &mockCustomerRepo{
		createFunc: func(ctx context.Context, fields map[string]any) (*model.Customer, error) {
			c := model.Customer{ID: 1}
			c.Merge(fields)
			return &c, nil
		},
	}
	service := NewService(repo)

	got, err := service.Create(context.Background(), map[string]any{"name": "Acme"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got.ID != 1 || got.Fields["name"] != "Acme" {
		t.Errorf("got = %+v", got)
	}
}

func TestService_Update_NotFound(t *testing.T) {
	repo := &mockCustomerRepo{
		updateFunc: func(ctx context.Context, id int, fields map[string]any) (*model.Customer, error) {
			return nil, model.NewCustomerNotFoundError(id)
		},
	}
	service := NewService(repo)

	_, err := service.Update(context.Background(), 42, map[string]any{"name": "ghost"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCustomerNotFound {
		t.Errorf("err = %v, want CUSTOMER_NOT_FOUND", err)
	}
}

func TestService_Delete(t *testing.T) {
	deleted := 0
	repo := &mockCustomerRepo{
		deleteFunc: func(ctx context.Context, id int) error {
			deleted = id
			return nil
		},
	}
	service := NewService(repo)

	if err := service.Delete(context.Background(), 7); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted != 7 {
		t.Errorf("deleted = %d, want 7", deleted)
	}
}
