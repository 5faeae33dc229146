package blog

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/festa/internal/model"
)

// --- モック ---

type mockBlogRepo struct {
	listByTeamFn func(ctx context.Context, teamID string) ([]*model.Blog, error)
	findByIDFn   func(ctx context.Context, id string) (*model.Blog, error)
	createFn     func(ctx context.Context, blog *model.Blog) error
	updateFn     func(ctx context.Context, blog *model.Blog) error
	deleteFn     func(ctx context.Context, id string) error
}

func (m *mockBlogRepo) ListByTeam(ctx context.Context, teamID string) ([]*model.Blog, error) {
	if m.listByTeamFn != nil {
		return m.listByTeamFn(ctx, teamID)
	}
	return nil, nil
}
func (m *mockBlogRepo) FindByID(ctx context.Context, id string) (*model.Blog, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.Blog{ID: id, TeamID: "team-1"}, nil
}
func (m *mockBlogRepo) Create(ctx context.Context, blog *model.Blog) error {
	if m.createFn != nil {
		return m.createFn(ctx, blog)
	}
	return nil
}
func (m *mockBlogRepo) Update(ctx context.Context, blog *model.Blog) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, blog)
	}
	return nil
}
func (m *mockBlogRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func apiErrorCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	return apiErr.Code
}

func staff(id string) *model.Dancer {
	return &model.Dancer{ID: id, TeamID: "team-1", Role: model.RoleStaff, IsApproved: true}
}

// --- テスト ---

// TestService_Create_SanitizesContent は本文のスクリプトが除去されることを検証する。
func TestService_Create_SanitizesContent(t *testing.T) {
	var saved *model.Blog
	repo := &mockBlogRepo{
		createFn: func(ctx context.Context, blog *model.Blog) error {
			saved = blog
			return nil
		},
	}
	svc := NewService(repo)

	content := `<script>alert("x")</script><p>今日の練習報告です。</p>`
	_, err := svc.Create(context.Background(), staff("staff-1"), Input{
		Title:   "練習報告",
		Content: &content,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if saved.Content == nil || *saved.Content != "<p>今日の練習報告です。</p>" {
		t.Errorf("expected sanitized content, got %v", saved.Content)
	}
}

// TestService_Create_MemberForbidden はメンバーによる投稿が拒否されることを検証する。
func TestService_Create_MemberForbidden(t *testing.T) {
	svc := NewService(&mockBlogRepo{})

	actor := &model.Dancer{ID: "member-1", TeamID: "team-1", Role: model.RoleMember, IsApproved: true}
	_, err := svc.Create(context.Background(), actor, Input{Title: "タイトル"})
	if code := apiErrorCode(t, err); code != model.ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN, got %s", code)
	}
}

// TestService_Get_CrossTeam は他チームのブログが見えないことを検証する。
func TestService_Get_CrossTeam(t *testing.T) {
	repo := &mockBlogRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Blog, error) {
			return &model.Blog{ID: id, TeamID: "team-2"}, nil
		},
	}
	svc := NewService(repo)

	_, err := svc.Get(context.Background(), "team-1", "blog-9")
	if code := apiErrorCode(t, err); code != model.ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", code)
	}
}

// TestService_Update_EmptyTitle は空タイトルの更新が検証エラーになることを検証する。
func TestService_Update_EmptyTitle(t *testing.T) {
	svc := NewService(&mockBlogRepo{})

	_, err := svc.Update(context.Background(), staff("staff-1"), "blog-1", Input{Title: "  "})
	if code := apiErrorCode(t, err); code != model.ErrCodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %s", code)
	}
}

// TestService_Delete はチーム確認のうえで削除されることを検証する。
func TestService_Delete(t *testing.T) {
	deletedID := ""
	repo := &mockBlogRepo{
		deleteFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	svc := NewService(repo)

	if err := svc.Delete(context.Background(), staff("staff-1"), "blog-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if deletedID != "blog-1" {
		t.Errorf("expected blog-1 to be deleted, got %q", deletedID)
	}
}
