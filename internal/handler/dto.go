package handler

import (
	"time"

	"github.com/hitoshi/festa/internal/jst"
	"github.com/hitoshi/festa/internal/model"
)

// displayTimeLayout は表示用日時のフォーマット。JSTの壁時計で返す。
const displayTimeLayout = "2006-01-02T15:04"

// teamResponse はチーム情報のAPIレスポンス。
type teamResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// dancerResponse は踊り子情報のAPIレスポンス。
// パスワードハッシュと秘密の合言葉は絶対に含めない。
type dancerResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	TeamID     string  `json:"team_id"`
	Role       string  `json:"role"`
	RoleLabel  string  `json:"role_label"`
	IsApproved bool    `json:"is_approved"`
	AvatarURL  *string `json:"avatar_url"`
	Bio        *string `json:"bio"`
	CreatedAt  string  `json:"created_at"`
}

// dancerSummaryResponse は参加者・投稿者表示用の踊り子要約。
type dancerSummaryResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url"`
}

func toTeamResponse(team *model.Team) teamResponse {
	return teamResponse{ID: team.ID, Name: team.Name}
}

func toDancerResponse(d *model.Dancer) dancerResponse {
	return dancerResponse{
		ID:         d.ID,
		Name:       d.Name,
		TeamID:     d.TeamID,
		Role:       string(d.Role),
		RoleLabel:  d.Role.Label(),
		IsApproved: d.IsApproved,
		AvatarURL:  d.AvatarURL,
		Bio:        d.Bio,
		CreatedAt:  d.CreatedAt.Format(time.RFC3339),
	}
}

func toDancerSummary(d *model.Dancer) *dancerSummaryResponse {
	if d == nil {
		return nil
	}
	return &dancerSummaryResponse{ID: d.ID, Name: d.Name, AvatarURL: d.AvatarURL}
}

// formatDisplayTime は保存された瞬間をJSTの壁時計文字列に変換する。
func formatDisplayTime(t time.Time) string {
	return jst.ToDisplay(t).Format(displayTimeLayout)
}
