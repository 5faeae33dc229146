package moves

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/festa/internal/model"
)

// --- モック ---

type mockMoveRepo struct {
	findByIDFn      func(ctx context.Context, id string) (*model.DanceMove, error)
	deleteCascadeFn func(ctx context.Context, id string) error
}

func (m *mockMoveRepo) ListByTeam(ctx context.Context, teamID string) ([]*model.DanceMove, error) {
	return nil, nil
}
func (m *mockMoveRepo) FindByID(ctx context.Context, id string) (*model.DanceMove, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.DanceMove{ID: id, TeamID: "team-1"}, nil
}
func (m *mockMoveRepo) Create(ctx context.Context, move *model.DanceMove) error { return nil }
func (m *mockMoveRepo) Update(ctx context.Context, move *model.DanceMove) error { return nil }
func (m *mockMoveRepo) DeleteCascade(ctx context.Context, id string) error {
	if m.deleteCascadeFn != nil {
		return m.deleteCascadeFn(ctx, id)
	}
	return nil
}

type mockCompletionRepo struct {
	insertFn func(ctx context.Context, c *model.DanceMoveCompletion) (bool, error)
	deleteFn func(ctx context.Context, danceMoveID, dancerID string) (bool, error)
}

func (m *mockCompletionRepo) ListByMove(ctx context.Context, danceMoveID string) ([]*model.DanceMoveCompletion, error) {
	return nil, nil
}
func (m *mockCompletionRepo) Insert(ctx context.Context, c *model.DanceMoveCompletion) (bool, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, c)
	}
	return true, nil
}
func (m *mockCompletionRepo) Delete(ctx context.Context, danceMoveID, dancerID string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, danceMoveID, dancerID)
	}
	return true, nil
}

func apiErrorCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	return apiErr.Code
}

func member(id string) *model.Dancer {
	return &model.Dancer{ID: id, TeamID: "team-1", Role: model.RoleMember, IsApproved: true}
}

// --- テスト ---

// TestService_ToggleCompletion_Mark は未習得の切り替えが習得になることを検証する。
func TestService_ToggleCompletion_Mark(t *testing.T) {
	svc := NewService(&mockMoveRepo{}, &mockCompletionRepo{})

	done, err := svc.ToggleCompletion(context.Background(), member("member-1"), "move-1")
	if err != nil {
		t.Fatalf("ToggleCompletion returned error: %v", err)
	}
	if !done {
		t.Error("expected toggle to mark completion")
	}
}

// TestService_ToggleCompletion_Unmark は習得済みの切り替えが取消になることを検証する。
func TestService_ToggleCompletion_Unmark(t *testing.T) {
	deleteCalled := false
	completionRepo := &mockCompletionRepo{
		insertFn: func(ctx context.Context, c *model.DanceMoveCompletion) (bool, error) {
			return false, nil
		},
		deleteFn: func(ctx context.Context, danceMoveID, dancerID string) (bool, error) {
			deleteCalled = true
			return true, nil
		},
	}
	svc := NewService(&mockMoveRepo{}, completionRepo)

	done, err := svc.ToggleCompletion(context.Background(), member("member-1"), "move-1")
	if err != nil {
		t.Fatalf("ToggleCompletion returned error: %v", err)
	}
	if done {
		t.Error("expected toggle to unmark completion")
	}
	if !deleteCalled {
		t.Error("expected existing completion to be deleted")
	}
}

// TestService_Create_MemberForbidden はメンバーによる技の作成が拒否されることを検証する。
func TestService_Create_MemberForbidden(t *testing.T) {
	svc := NewService(&mockMoveRepo{}, &mockCompletionRepo{})

	_, err := svc.Create(context.Background(), member("member-1"), Input{Name: "大波"})
	if code := apiErrorCode(t, err); code != model.ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN, got %s", code)
	}
}

// TestService_Delete_Cascade は技の削除がカスケード削除を呼ぶことを検証する。
func TestService_Delete_Cascade(t *testing.T) {
	deletedID := ""
	moveRepo := &mockMoveRepo{
		deleteCascadeFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	svc := NewService(moveRepo, &mockCompletionRepo{})

	actor := &model.Dancer{ID: "staff-1", TeamID: "team-1", Role: model.RoleStaff, IsApproved: true}
	if err := svc.Delete(context.Background(), actor, "move-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if deletedID != "move-1" {
		t.Errorf("expected move-1 cascade delete, got %q", deletedID)
	}
}
