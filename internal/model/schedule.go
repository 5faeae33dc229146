// Package model はドメインモデルを定義する。
package model

import "time"

// ScheduleCategory は予定の種別を表す。
type ScheduleCategory string

const (
	// CategoryPractice は練習。
	CategoryPractice ScheduleCategory = "practice"
	// CategoryEvent はイベント。
	CategoryEvent ScheduleCategory = "event"
	// CategoryOther はその他。
	CategoryOther ScheduleCategory = "other"
)

// Valid は定義済みの種別かどうかを返す。
func (c ScheduleCategory) Valid() bool {
	switch c {
	case CategoryPractice, CategoryEvent, CategoryOther:
		return true
	}
	return false
}

// Label は種別の表示名（日本語）を返す。
func (c ScheduleCategory) Label() string {
	switch c {
	case CategoryPractice:
		return "練習"
	case CategoryEvent:
		return "イベント"
	case CategoryOther:
		return "その他"
	}
	return string(c)
}

// Schedule はチームの予定を表す。
// StartTime/EndTimeはUTCの瞬間として保存し、表示時にJSTへ正規化する。
type Schedule struct {
	ID          string
	TeamID      string
	Title       string
	Description *string
	Category    ScheduleCategory
	Location    *string
	LocationURL *string
	StartTime   time.Time
	EndTime     time.Time
	Color       string
	CreatedBy   string
	CreatedAt   time.Time
}

// ScheduleParticipant は予定への参加表明を表す。
// (schedule_id, dancer_id) の組で一意。
type ScheduleParticipant struct {
	ID         string
	ScheduleID string
	DancerID   string
	Dancer     *Dancer
	CreatedAt  time.Time
}

// ScheduleComment は予定へのコメントを表す。削除できるのは投稿者本人のみ。
type ScheduleComment struct {
	ID         string
	ScheduleID string
	DancerID   string
	Dancer     *Dancer
	Content    string
	CreatedAt  time.Time
}

// ScheduleDetail は予定と参加者・コメントを束ねた表示用の集約。
type ScheduleDetail struct {
	Schedule     *Schedule
	Participants []*ScheduleParticipant
	Comments     []*ScheduleComment
}
