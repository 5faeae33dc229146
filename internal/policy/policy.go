// Package policy は役職と承認状態にもとづく認可判定を提供する。
// 判定はすべて純粋関数で、呼び出し側でのその場の役職比較を禁止し
// 権限判断をこのパッケージに集約する。
package policy

import "github.com/hitoshi/festa/internal/model"

// CanApprove はactorがsubjectの承認状態を切り替えられるかを返す。
// 代表は誰でも承認・承認取消できる。スタッフはメンバーに対してのみ可能。
// 自分自身の承認状態は切り替えられない。
func CanApprove(actor, subject *model.Dancer) bool {
	if actor == nil || subject == nil {
		return false
	}
	if actor.ID == subject.ID {
		return false
	}
	if actor.TeamID != subject.TeamID {
		return false
	}
	switch actor.Role {
	case model.RoleRepresentative:
		return true
	case model.RoleStaff:
		return subject.Role == model.RoleMember
	}
	return false
}

// CanManageTeamResources はチーム共有資源（予定・ブログ・動画・アイテム・
// お知らせ・技・在庫・受け渡し）の作成・編集・削除ができるかを返す。
func CanManageTeamResources(actor *model.Dancer) bool {
	if actor == nil {
		return false
	}
	return actor.Role == model.RoleRepresentative || actor.Role == model.RoleStaff
}

// CanEditRole は他のダンサーの役職を変更できるかを返す。代表のみ可能。
func CanEditRole(actor *model.Dancer) bool {
	if actor == nil {
		return false
	}
	return actor.Role == model.RoleRepresentative
}
