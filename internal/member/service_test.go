package member

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/festa/internal/model"
)

// --- モック ---

type mockDancerRepo struct {
	findByIDFn       func(ctx context.Context, id string) (*model.Dancer, error)
	listByTeamFn     func(ctx context.Context, teamID string) ([]*model.Dancer, error)
	updateApprovalFn func(ctx context.Context, id string, isApproved bool, approvedBy *string) error
	updateRoleFn     func(ctx context.Context, id string, role model.Role) error
	updateProfileFn  func(ctx context.Context, id, name string, bio, avatarURL *string) error
	deleteCascadeFn  func(ctx context.Context, id string) error
}

func (m *mockDancerRepo) Create(ctx context.Context, dancer *model.Dancer) error { return nil }
func (m *mockDancerRepo) FindByID(ctx context.Context, id string) (*model.Dancer, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockDancerRepo) FindByIDAndTeam(ctx context.Context, dancerID, teamID string) (*model.Dancer, *model.Team, error) {
	return nil, nil, nil
}
func (m *mockDancerRepo) FindByLogin(ctx context.Context, teamID, name string, role model.Role, passwordHash string) (*model.Dancer, error) {
	return nil, nil
}
func (m *mockDancerRepo) FindByReset(ctx context.Context, teamID, name string, role model.Role, secretPhrase string) (*model.Dancer, error) {
	return nil, nil
}
func (m *mockDancerRepo) ListByTeam(ctx context.Context, teamID string) ([]*model.Dancer, error) {
	if m.listByTeamFn != nil {
		return m.listByTeamFn(ctx, teamID)
	}
	return nil, nil
}
func (m *mockDancerRepo) UpdateApproval(ctx context.Context, id string, isApproved bool, approvedBy *string) error {
	if m.updateApprovalFn != nil {
		return m.updateApprovalFn(ctx, id, isApproved, approvedBy)
	}
	return nil
}
func (m *mockDancerRepo) UpdateRole(ctx context.Context, id string, role model.Role) error {
	if m.updateRoleFn != nil {
		return m.updateRoleFn(ctx, id, role)
	}
	return nil
}
func (m *mockDancerRepo) UpdateProfile(ctx context.Context, id, name string, bio, avatarURL *string) error {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, id, name, bio, avatarURL)
	}
	return nil
}
func (m *mockDancerRepo) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	return nil
}
func (m *mockDancerRepo) DeleteCascade(ctx context.Context, id string) error {
	if m.deleteCascadeFn != nil {
		return m.deleteCascadeFn(ctx, id)
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

func representative(id string) *model.Dancer {
	return &model.Dancer{ID: id, TeamID: "team-1", Role: model.RoleRepresentative, IsApproved: true}
}

// --- テスト ---

// TestService_ToggleApproval_Approve は承認時にapproved_byへ実行者IDが記録されることを検証する。
func TestService_ToggleApproval_Approve(t *testing.T) {
	var gotApprovedBy *string
	dancerRepo := &mockDancerRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Dancer, error) {
			return &model.Dancer{ID: id, TeamID: "team-1", Role: model.RoleMember}, nil
		},
		updateApprovalFn: func(ctx context.Context, id string, isApproved bool, approvedBy *string) error {
			gotApprovedBy = approvedBy
			return nil
		},
	}
	svc := NewService(dancerRepo)

	actor := representative("rep-1")
	subject, err := svc.ToggleApproval(context.Background(), actor, "member-1", true)
	if err != nil {
		t.Fatalf("ToggleApproval returned error: %v", err)
	}
	if !subject.IsApproved {
		t.Error("expected subject to be approved")
	}
	if gotApprovedBy == nil || *gotApprovedBy != "rep-1" {
		t.Error("expected approved_by to record the actor")
	}
}

// TestService_ToggleApproval_Unapprove は承認取消でapproved_byがNULLに戻ることを検証する。
func TestService_ToggleApproval_Unapprove(t *testing.T) {
	var gotApprovedBy *string
	gotApprovedBySet := false
	dancerRepo := &mockDancerRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Dancer, error) {
			approver := "rep-1"
			return &model.Dancer{ID: id, TeamID: "team-1", Role: model.RoleMember, IsApproved: true, ApprovedBy: &approver}, nil
		},
		updateApprovalFn: func(ctx context.Context, id string, isApproved bool, approvedBy *string) error {
			gotApprovedBy = approvedBy
			gotApprovedBySet = true
			return nil
		},
	}
	svc := NewService(dancerRepo)

	subject, err := svc.ToggleApproval(context.Background(), representative("rep-1"), "member-1", false)
	if err != nil {
		t.Fatalf("ToggleApproval returned error: %v", err)
	}
	if subject.IsApproved {
		t.Error("expected subject to be unapproved")
	}
	if !gotApprovedBySet || gotApprovedBy != nil {
		t.Error("expected approved_by to be cleared")
	}
}

// TestService_ToggleApproval_Self は自分自身の承認切り替えが拒否されることを検証する。
func TestService_ToggleApproval_Self(t *testing.T) {
	dancerRepo := &mockDancerRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Dancer, error) {
			return representative(id), nil
		},
	}
	svc := NewService(dancerRepo)

	_, err := svc.ToggleApproval(context.Background(), representative("rep-1"), "rep-1", true)
	if code := apiErrorCode(t, err); code != model.ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN, got %s", code)
	}
}

// TestService_ToggleApproval_StaffOverStaff はスタッフがスタッフを承認できないことを検証する。
func TestService_ToggleApproval_StaffOverStaff(t *testing.T) {
	dancerRepo := &mockDancerRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Dancer, error) {
			return &model.Dancer{ID: id, TeamID: "team-1", Role: model.RoleStaff}, nil
		},
	}
	svc := NewService(dancerRepo)

	actor := &model.Dancer{ID: "staff-1", TeamID: "team-1", Role: model.RoleStaff, IsApproved: true}
	_, err := svc.ToggleApproval(context.Background(), actor, "staff-2", true)
	if code := apiErrorCode(t, err); code != model.ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN, got %s", code)
	}
}

// TestService_ToggleApproval_CrossTeam は他チームのメンバーが見えないことを検証する。
func TestService_ToggleApproval_CrossTeam(t *testing.T) {
	dancerRepo := &mockDancerRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Dancer, error) {
			return &model.Dancer{ID: id, TeamID: "team-2", Role: model.RoleMember}, nil
		},
	}
	svc := NewService(dancerRepo)

	_, err := svc.ToggleApproval(context.Background(), representative("rep-1"), "member-9", true)
	if code := apiErrorCode(t, err); code != model.ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", code)
	}
}

// TestService_ChangeRole_RepresentativeOnly は役職変更が代表のみ可能なことを検証する。
func TestService_ChangeRole_RepresentativeOnly(t *testing.T) {
	dancerRepo := &mockDancerRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Dancer, error) {
			return &model.Dancer{ID: id, TeamID: "team-1", Role: model.RoleMember}, nil
		},
	}
	svc := NewService(dancerRepo)

	staff := &model.Dancer{ID: "staff-1", TeamID: "team-1", Role: model.RoleStaff, IsApproved: true}
	_, err := svc.ChangeRole(context.Background(), staff, "member-1", model.RoleStaff)
	if code := apiErrorCode(t, err); code != model.ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN, got %s", code)
	}

	subject, err := svc.ChangeRole(context.Background(), representative("rep-1"), "member-1", model.RoleStaff)
	if err != nil {
		t.Fatalf("ChangeRole returned error: %v", err)
	}
	if subject.Role != model.RoleStaff {
		t.Errorf("expected role staff, got %s", subject.Role)
	}
}

// TestService_UpdateProfile_SanitizesBio は自己紹介のHTMLが除去されることを検証する。
func TestService_UpdateProfile_SanitizesBio(t *testing.T) {
	var savedBio *string
	dancerRepo := &mockDancerRepo{
		updateProfileFn: func(ctx context.Context, id, name string, bio, avatarURL *string) error {
			savedBio = bio
			return nil
		},
	}
	svc := NewService(dancerRepo)

	bio := `<script>alert("x")</script>よろしくお願いします`
	_, err := svc.UpdateProfile(context.Background(), representative("rep-1"), UpdateProfileInput{
		Name: "Yuki",
		Bio:  &bio,
	})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if savedBio == nil || *savedBio != "よろしくお願いします" {
		t.Errorf("expected sanitized bio, got %v", savedBio)
	}
}

// TestService_UpdateProfile_EmptyName は空の名前が検証エラーになることを検証する。
func TestService_UpdateProfile_EmptyName(t *testing.T) {
	svc := NewService(&mockDancerRepo{})

	_, err := svc.UpdateProfile(context.Background(), representative("rep-1"), UpdateProfileInput{Name: "  "})
	if code := apiErrorCode(t, err); code != model.ErrCodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %s", code)
	}
}

// TestService_Withdraw はカスケード削除が呼ばれることを検証する。
func TestService_Withdraw(t *testing.T) {
	deletedID := ""
	dancerRepo := &mockDancerRepo{
		deleteCascadeFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	svc := NewService(dancerRepo)

	if err := svc.Withdraw(context.Background(), representative("rep-1")); err != nil {
		t.Fatalf("Withdraw returned error: %v", err)
	}
	if deletedID != "rep-1" {
		t.Errorf("expected rep-1 cascade delete, got %q", deletedID)
	}
}
