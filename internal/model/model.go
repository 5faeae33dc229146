// Package model はドメインモデルを定義する。
package model

import "time"

// Role はダンサーの役職を表す。
// 承認・管理権限は 代表 > スタッフ > メンバー の半順序で決まる。
type Role string

const (
	// RoleRepresentative はチームの代表。全権限を持ち、登録時に自動承認される。
	RoleRepresentative Role = "representative"
	// RoleStaff はスタッフ。チーム資源の管理とメンバーの承認ができる。
	RoleStaff Role = "staff"
	// RoleMember は一般メンバー。承認されるまでログインできない。
	RoleMember Role = "member"
)

// Valid は定義済みの役職かどうかを返す。
func (r Role) Valid() bool {
	switch r {
	case RoleRepresentative, RoleStaff, RoleMember:
		return true
	}
	return false
}

// Level は役職の序列を返す。数値が大きいほど権限が強い。
func (r Role) Level() int {
	switch r {
	case RoleRepresentative:
		return 3
	case RoleStaff:
		return 2
	case RoleMember:
		return 1
	}
	return 0
}

// Label は役職の表示名（日本語）を返す。
func (r Role) Label() string {
	switch r {
	case RoleRepresentative:
		return "代表"
	case RoleStaff:
		return "スタッフ"
	case RoleMember:
		return "メンバー"
	}
	return string(r)
}

// Team はダンスチームを表す。登録後は変更も削除もされない。
type Team struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Dancer はチームに所属する踊り子を表す。
// 代表以外は承認されるまでログインできない。
type Dancer struct {
	ID           string
	Name         string
	TeamID       string
	Role         Role
	IsApproved   bool
	ApprovedBy   *string
	AvatarURL    *string
	Bio          *string
	PasswordHash string
	SecretPhrase string
	CreatedAt    time.Time
}

// AuthState は認証済みリクエストの主体を表す。
// セッションミドルウェアがセッションIDから毎リクエスト解決する。
type AuthState struct {
	Dancer *Dancer
	Team   *Team
}

// Session はログインセッションを表す。
// Cookie「festa_auth」がセッションIDを運び、実体はDBに保存される。
type Session struct {
	ID        string
	DancerID  string
	TeamID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
