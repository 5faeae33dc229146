// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/festa/internal/model"
)

// ErrDuplicate は一意制約違反（チーム名・踊り子名などの重複）を表す。
// サービス層はこのエラーをユーザー向けのAPIErrorに変換する。
var ErrDuplicate = errors.New("duplicate key")

// TeamRepository はチームデータの永続化インターフェース。
type TeamRepository interface {
	// Create はチームを作成する。名前が重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, team *model.Team) error

	// FindByID は指定IDのチームを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Team, error)

	// List は全チームを名前昇順で返す。スタートページのチーム選択に使う。
	List(ctx context.Context) ([]*model.Team, error)
}

// DancerRepository は踊り子データの永続化インターフェース。
type DancerRepository interface {
	// Create は踊り子を作成する。(team_id, name)が重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, dancer *model.Dancer) error

	// FindByID は指定IDの踊り子を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Dancer, error)

	// FindByIDAndTeam は(dancer_id, team_id)で踊り子をチームとJOINして取得する。
	// セッション再検証に使う。見つからない場合は(nil, nil)を返す。
	FindByIDAndTeam(ctx context.Context, dancerID, teamID string) (*model.Dancer, *model.Team, error)

	// FindByLogin は(team_id, name, role, password_hash)の等値フィルタで踊り子を検索する。
	// 見つからない場合はnilを返す。承認状態の判定は呼び出し側で行う。
	FindByLogin(ctx context.Context, teamID, name string, role model.Role, passwordHash string) (*model.Dancer, error)

	// FindByReset は(team_id, name, role, secret_phrase)の等値フィルタで踊り子を検索する。
	// パスワード再設定の本人確認に使う。見つからない場合はnilを返す。
	FindByReset(ctx context.Context, teamID, name string, role model.Role, secretPhrase string) (*model.Dancer, error)

	// ListByTeam はチームの踊り子一覧を役職の序列降順・名前昇順で返す。
	ListByTeam(ctx context.Context, teamID string) ([]*model.Dancer, error)

	// UpdateApproval は承認状態を更新する。承認時はapprovedByに承認者ID、
	// 承認取消時はnilを渡す。
	UpdateApproval(ctx context.Context, id string, isApproved bool, approvedBy *string) error

	// UpdateRole は役職を更新する。
	UpdateRole(ctx context.Context, id string, role model.Role) error

	// UpdateProfile は名前・自己紹介・アバターURLを更新する。
	// 名前が同一チーム内で重複する場合はErrDuplicateを返す。
	UpdateProfile(ctx context.Context, id, name string, bio, avatarURL *string) error

	// UpdatePasswordHash はパスワードハッシュを上書きする。
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error

	// DeleteCascade は踊り子と、その踊り子が保持する従属行
	// （技の習得記録・参加表明・コメント・購入・セッション）を
	// 同一トランザクションで削除する。退会処理に使う。
	DeleteCascade(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByDancerID は指定踊り子の全セッションを削除する。
	DeleteByDancerID(ctx context.Context, dancerID string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// ScheduleRepository は予定データの永続化インターフェース。
type ScheduleRepository interface {
	// Create は予定を作成する。
	Create(ctx context.Context, schedule *model.Schedule) error

	// FindByID は指定IDの予定を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Schedule, error)

	// ListByTeam はチームの予定一覧をstart_time昇順で返す。
	ListByTeam(ctx context.Context, teamID string) ([]*model.Schedule, error)

	// Update は予定を上書き更新する。
	Update(ctx context.Context, schedule *model.Schedule) error

	// DeleteCascade は予定と参加表明・コメントを同一トランザクションで削除する。
	DeleteCascade(ctx context.Context, id string) error
}

// ParticipantRepository は参加表明データの永続化インターフェース。
type ParticipantRepository interface {
	// ListBySchedule は予定の参加者一覧を踊り子とJOINして返す。
	ListBySchedule(ctx context.Context, scheduleID string) ([]*model.ScheduleParticipant, error)

	// Insert は参加表明を挿入する。(schedule_id, dancer_id)が既に存在する場合は
	// 何もせずfalseを返す（ON CONFLICT DO NOTHING）。
	Insert(ctx context.Context, p *model.ScheduleParticipant) (bool, error)

	// Delete は参加表明を削除し、行が存在したかどうかを返す。
	Delete(ctx context.Context, scheduleID, dancerID string) (bool, error)
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// ListBySchedule は予定のコメント一覧を踊り子とJOINしてcreated_at昇順で返す。
	ListBySchedule(ctx context.Context, scheduleID string) ([]*model.ScheduleComment, error)

	// Create はコメントを作成する。
	Create(ctx context.Context, c *model.ScheduleComment) error

	// DeleteByIDAndDancer は投稿者本人のコメントのみ削除し、削除件数を返す。
	// 他人のコメントに対しては0件で正常終了する（フィルタ自体が認可）。
	DeleteByIDAndDancer(ctx context.Context, commentID, dancerID string) (int64, error)
}

// BlogRepository はブログデータの永続化インターフェース。
type BlogRepository interface {
	ListByTeam(ctx context.Context, teamID string) ([]*model.Blog, error)
	FindByID(ctx context.Context, id string) (*model.Blog, error)
	Create(ctx context.Context, blog *model.Blog) error
	Update(ctx context.Context, blog *model.Blog) error
	Delete(ctx context.Context, id string) error
}

// TeamInfoRepository はお知らせデータの永続化インターフェース。
type TeamInfoRepository interface {
	ListByTeam(ctx context.Context, teamID string) ([]*model.TeamInfo, error)
	FindByID(ctx context.Context, id string) (*model.TeamInfo, error)
	Create(ctx context.Context, info *model.TeamInfo) error
	Update(ctx context.Context, info *model.TeamInfo) error
	Delete(ctx context.Context, id string) error
}

// VideoCategoryRepository は動画カテゴリの永続化インターフェース。
type VideoCategoryRepository interface {
	ListByTeam(ctx context.Context, teamID string) ([]*model.VideoCategory, error)
	FindByID(ctx context.Context, id string) (*model.VideoCategory, error)
	Create(ctx context.Context, category *model.VideoCategory) error
	Delete(ctx context.Context, id string) error
	// CountVideos はカテゴリに属する動画数を返す。使用中カテゴリの削除拒否に使う。
	CountVideos(ctx context.Context, categoryID string) (int, error)
}

// VideoRepository は動画データの永続化インターフェース。
type VideoRepository interface {
	// ListByTeam はチームの動画一覧を返す。categoryIDが空でない場合は絞り込む。
	ListByTeam(ctx context.Context, teamID, categoryID string) ([]*model.Video, error)
	FindByID(ctx context.Context, id string) (*model.Video, error)
	Create(ctx context.Context, video *model.Video) error
	Update(ctx context.Context, video *model.Video) error
	Delete(ctx context.Context, id string) error
}

// ItemRepository はアイテムデータの永続化インターフェース。
type ItemRepository interface {
	ListByTeam(ctx context.Context, teamID string) ([]*model.Item, error)
	FindByID(ctx context.Context, id string) (*model.Item, error)
	Create(ctx context.Context, item *model.Item) error
	Update(ctx context.Context, item *model.Item) error
	// DeleteCascade はアイテムと購入記録・在庫を同一トランザクションで削除する。
	DeleteCascade(ctx context.Context, id string) error
}

// InventoryRepository は在庫データの永続化インターフェース。
type InventoryRepository interface {
	// FindByItem はアイテムの在庫を取得する。未設定の場合はnilを返す。
	FindByItem(ctx context.Context, itemID string) (*model.Inventory, error)

	// ListByItems は複数アイテムの在庫をまとめて返す。
	ListByItems(ctx context.Context, itemIDs []string) ([]*model.Inventory, error)

	// Upsert はアイテムの在庫数を設定する。行がなければ作成する。
	Upsert(ctx context.Context, itemID string, quantity int) (*model.Inventory, error)

	// Adjust は在庫数をdeltaぶん増減する。結果は0未満にならない。
	Adjust(ctx context.Context, itemID string, delta int) error
}

// PurchaseRepository は購入データの永続化インターフェース。
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.ItemPurchase) error

	// FindByID は購入をアイテム・購入者とJOINして取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ItemPurchase, error)

	// ListByTeam はチームの購入一覧をアイテム・購入者・受け渡し担当者と
	// JOINしてcreated_at降順で返す。
	ListByTeam(ctx context.Context, teamID string) ([]*model.ItemPurchase, error)

	// UpdateDelivery は受け渡し状態を更新する。受け渡し時は(true, 時刻, 担当者ID)、
	// 取消時は(false, nil, nil)を渡す。
	UpdateDelivery(ctx context.Context, id string, delivered bool, deliveredAt *time.Time, deliveredBy *string) error
}

// DanceMoveRepository は技データの永続化インターフェース。
type DanceMoveRepository interface {
	ListByTeam(ctx context.Context, teamID string) ([]*model.DanceMove, error)
	FindByID(ctx context.Context, id string) (*model.DanceMove, error)
	Create(ctx context.Context, move *model.DanceMove) error
	Update(ctx context.Context, move *model.DanceMove) error
	// DeleteCascade は技と習得記録を同一トランザクションで削除する。
	DeleteCascade(ctx context.Context, id string) error
}

// CompletionRepository は技の習得記録の永続化インターフェース。
type CompletionRepository interface {
	ListByMove(ctx context.Context, danceMoveID string) ([]*model.DanceMoveCompletion, error)

	// Insert は習得記録を挿入する。既に存在する場合は何もせずfalseを返す。
	Insert(ctx context.Context, c *model.DanceMoveCompletion) (bool, error)

	// Delete は習得記録を削除し、行が存在したかどうかを返す。
	Delete(ctx context.Context, danceMoveID, dancerID string) (bool, error)
}
