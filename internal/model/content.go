package model

import "time"

// Blog はチームのブログ記事を表す。
type Blog struct {
	ID         string
	TeamID     string
	Title      string
	Content    *string
	ImageURL   *string
	YouTubeURL *string
	CreatedBy  string
	Dancer     *Dancer
	CreatedAt  time.Time
}

// TeamInfo はチームからのお知らせを表す。
type TeamInfo struct {
	ID        string
	TeamID    string
	Title     string
	Content   *string
	CreatedBy string
	Dancer    *Dancer
	CreatedAt time.Time
}

// VideoCategory は動画の分類を表す。
type VideoCategory struct {
	ID        string
	TeamID    string
	Name      string
	CreatedBy string
	CreatedAt time.Time
}

// Video はチームの動画（YouTube埋め込み）を表す。
type Video struct {
	ID          string
	TeamID      string
	CategoryID  string
	Title       string
	Description *string
	YouTubeURL  string
	CreatedBy   string
	CreatedAt   time.Time
}

// DanceMove はチームの技（振り付け）を表す。
type DanceMove struct {
	ID          string
	TeamID      string
	Name        string
	Description *string
	CreatedBy   string
	Dancer      *Dancer
	CreatedAt   time.Time
}

// DanceMoveCompletion は技の習得記録を表す。
// (dance_move_id, dancer_id) の組で一意。
type DanceMoveCompletion struct {
	ID          string
	DanceMoveID string
	DancerID    string
	Dancer      *Dancer
	CreatedAt   time.Time
}
