package validity

import (
	"errors"
	"time"
)

// ErrInvalidDateRange は thru_date が from_date より前の場合に返されます。
var ErrInvalidDateRange = errors.New("validity: thru date before from date")

// Window は有効期間 (from_date / thru_date) を表します。
// ThruDate が nil の場合は無期限を意味します。
type Window struct {
	FromDate time.Time
	ThruDate *time.Time
}

// NewWindow は指定日からの無期限ウィンドウを生成します。
// from がゼロ値の場合は本日 (UTC) を開始日とします。
func NewWindow(from time.Time) Window {
	if from.IsZero() {
		from = time.Now().UTC()
	}
	return Window{FromDate: TruncateToDate(from)}
}

// NewClosedWindow は開始日と終了日を持つウィンドウを生成します。
func NewClosedWindow(from, thru time.Time) Window {
	t := TruncateToDate(thru)
	return Window{FromDate: TruncateToDate(from), ThruDate: &t}
}

// TruncateToDate は時刻を切り捨てて UTC の暦日へ正規化します。
func TruncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Validate は from_date <= thru_date を検証します。
func (w Window) Validate() error {
	if w.ThruDate != nil && w.ThruDate.Before(w.FromDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// IsActiveExclusiveEnd は終了日を排他的境界として判定します。
// ロールおよび関係の現在判定に使われる規約です。
func (w Window) IsActiveExclusiveEnd(asOf time.Time) bool {
	asOf = TruncateToDate(asOf)
	if w.FromDate.After(asOf) {
		return false
	}
	return w.ThruDate == nil || w.ThruDate.After(asOf)
}

// IsActiveInclusiveEnd は終了日を包含的境界として判定します。
// 名前・識別子・分類、および関係の日付指定判定に使われる規約です。
func (w Window) IsActiveInclusiveEnd(asOf time.Time) bool {
	asOf = TruncateToDate(asOf)
	if w.FromDate.After(asOf) {
		return false
	}
	return w.ThruDate == nil || !w.ThruDate.Before(asOf)
}

// IsOpenEnded は終了日が未設定かどうかを返します。
func (w Window) IsOpenEnded() bool {
	return w.ThruDate == nil
}

// Expire は thru_date を指定日へ短縮します。既に指定日以前で
// 閉じている場合は何もしません。期間を延長することはありません。
func (w *Window) Expire(asOf time.Time) {
	asOf = TruncateToDate(asOf)
	if w.ThruDate == nil || w.ThruDate.After(asOf) {
		w.ThruDate = &asOf
	}
}

// Clone は ThruDate を含む深いコピーを返します。
func (w Window) Clone() Window {
	clone := Window{FromDate: w.FromDate}
	if w.ThruDate != nil {
		t := *w.ThruDate
		clone.ThruDate = &t
	}
	return clone
}
