package policy

import (
	"testing"

	"github.com/hitoshi/festa/internal/model"
)

func dancer(id string, role model.Role) *model.Dancer {
	return &model.Dancer{ID: id, TeamID: "team-1", Role: role}
}

// 承認権限のマトリクスを検証
func TestCanApprove_Matrix(t *testing.T) {
	tests := []struct {
		name    string
		actor   model.Role
		subject model.Role
		want    bool
	}{
		{"代表はスタッフを承認できる", model.RoleRepresentative, model.RoleStaff, true},
		{"代表はメンバーを承認できる", model.RoleRepresentative, model.RoleMember, true},
		{"代表は他の代表を承認できる", model.RoleRepresentative, model.RoleRepresentative, true},
		{"スタッフはメンバーを承認できる", model.RoleStaff, model.RoleMember, true},
		{"スタッフはスタッフを承認できない", model.RoleStaff, model.RoleStaff, false},
		{"スタッフは代表を承認できない", model.RoleStaff, model.RoleRepresentative, false},
		{"メンバーは誰も承認できない", model.RoleMember, model.RoleMember, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := dancer("actor", tt.actor)
			subject := dancer("subject", tt.subject)
			if got := CanApprove(actor, subject); got != tt.want {
				t.Errorf("CanApprove(%s, %s) = %v, want %v", tt.actor, tt.subject, got, tt.want)
			}
		})
	}
}

// 自己承認が拒否されることを検証
func TestCanApprove_RejectsSelf(t *testing.T) {
	d := dancer("d-1", model.RoleRepresentative)
	if CanApprove(d, d) {
		t.Error("expected self-approval to be rejected")
	}
}

// 別チームのダンサーに対する承認が拒否されることを検証
func TestCanApprove_RejectsCrossTeam(t *testing.T) {
	actor := dancer("actor", model.RoleRepresentative)
	subject := dancer("subject", model.RoleMember)
	subject.TeamID = "team-2"
	if CanApprove(actor, subject) {
		t.Error("expected cross-team approval to be rejected")
	}
}

// nil入力で安全にfalseを返すことを検証
func TestCanApprove_NilSafe(t *testing.T) {
	if CanApprove(nil, dancer("s", model.RoleMember)) {
		t.Error("expected false for nil actor")
	}
	if CanApprove(dancer("a", model.RoleRepresentative), nil) {
		t.Error("expected false for nil subject")
	}
}

// チーム資源の管理権限が代表とスタッフに限られることを検証
func TestCanManageTeamResources(t *testing.T) {
	if !CanManageTeamResources(dancer("a", model.RoleRepresentative)) {
		t.Error("expected representative to manage team resources")
	}
	if !CanManageTeamResources(dancer("a", model.RoleStaff)) {
		t.Error("expected staff to manage team resources")
	}
	if CanManageTeamResources(dancer("a", model.RoleMember)) {
		t.Error("expected member to be denied")
	}
	if CanManageTeamResources(nil) {
		t.Error("expected nil actor to be denied")
	}
}

// 役職変更権限が代表のみであることを検証
func TestCanEditRole(t *testing.T) {
	if !CanEditRole(dancer("a", model.RoleRepresentative)) {
		t.Error("expected representative to edit roles")
	}
	if CanEditRole(dancer("a", model.RoleStaff)) {
		t.Error("expected staff to be denied")
	}
	if CanEditRole(dancer("a", model.RoleMember)) {
		t.Error("expected member to be denied")
	}
}

// 役職の半順序（代表 > スタッフ > メンバー）を検証
func TestRoleLevel_Ordering(t *testing.T) {
	rep := model.RoleRepresentative.Level()
	staff := model.RoleStaff.Level()
	member := model.RoleMember.Level()

	if !(rep > staff && staff > member && member > 0) {
		t.Errorf("unexpected role ordering: rep=%d staff=%d member=%d", rep, staff, member)
	}
	if model.Role("unknown").Level() != 0 {
		t.Error("expected unknown role level to be 0")
	}
}
