// Package jst は予定時刻の表示タイムゾーン正規化を提供する。
// ストレージはタイムゾーンを持たない瞬間（UTC）を保存し、
// カレンダーの日付判定と人間向け表示はすべて固定のUTC+9で行う。
// 実行環境のローカルタイムゾーンに依存しないことがこのパッケージの不変条件。
package jst

import (
	"fmt"
	"time"
)

// OffsetMinutes は表示タイムゾーンのUTCからのオフセット（分）。
const OffsetMinutes = 9 * 60

// Location は表示タイムゾーン（日本標準時）。
var Location = time.FixedZone("JST", OffsetMinutes*60)

// ToDisplay は保存された瞬間を表示タイムゾーンの暦に乗せる。
func ToDisplay(t time.Time) time.Time {
	return t.In(Location)
}

// ToStorage は表示タイムゾーンの時刻を保存用のUTC瞬間に正規化する。
func ToStorage(t time.Time) time.Time {
	return t.UTC()
}

// displayLayouts はParseDisplayが受け付ける入力形式。
// タイムゾーン表記のない形式はJSTの壁時計として解釈する。
var displayLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// ParseDisplay はタイムゾーン表記のない日時文字列をJSTの壁時計として解釈し、
// 保存用のUTC瞬間を返す。RFC 3339形式（オフセット付き）も受け付ける。
func ParseDisplay(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range displayLayouts {
		if t, err := time.ParseInLocation(layout, s, Location); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported datetime format: %q", s)
}

// DayKey は瞬間が属する表示タイムゾーン上の暦日を「2006-01-02」形式で返す。
// カレンダーの日別グルーピングのキーとして使う。
func DayKey(t time.Time) string {
	return ToDisplay(t).Format("2006-01-02")
}

// SameDisplayDay は2つの瞬間が表示タイムゾーン上で同じ暦日かどうかを返す。
func SameDisplayDay(a, b time.Time) bool {
	da, db := ToDisplay(a), ToDisplay(b)
	return da.Year() == db.Year() && da.Month() == db.Month() && da.Day() == db.Day()
}
