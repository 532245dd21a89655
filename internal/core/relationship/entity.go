package relationship

import (
	"time"

	"github.com/google/uuid"

	"github.com/erp-microservices/people-and-organizations/internal/core/taxonomy"
	"github.com/erp-microservices/people-and-organizations/internal/core/validity"
)

// Relationship は二当事者間の期間付き関連です。どの集約にも所有されず、
// 当事者を ID で参照する第一級エンティティです。同一性は ID のみで
// 判定されます。
type Relationship struct {
	ID          uuid.UUID
	FromPartyID uuid.UUID
	ToPartyID   uuid.UUID
	Type        *taxonomy.Node
	Window      validity.Window
	Comment     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New は開始日付きの関係を生成します。
func New(fromPartyID, toPartyID uuid.UUID, relType *taxonomy.Node, window validity.Window) *Relationship {
	return &Relationship{
		ID:          uuid.New(),
		FromPartyID: fromPartyID,
		ToPartyID:   toPartyID,
		Type:        relType,
		Window:      window,
	}
}

// IsActive は現在有効かどうかを返します。終了日は排他的境界です。
func (r *Relationship) IsActive() bool {
	return r.Window.IsActiveExclusiveEnd(time.Now().UTC())
}

// IsActiveOn は指定日時点で有効かどうかを返します。こちらは終了日を
// 包含する境界規約です。
func (r *Relationship) IsActiveOn(date time.Time) bool {
	return r.Window.IsActiveInclusiveEnd(date)
}

// SetThruDate は終了日を直接設定します。短縮方向のガードは意図的に
// ありません。nil を渡すと無期限へ戻ります。
func (r *Relationship) SetThruDate(thru *time.Time) {
	if thru == nil {
		r.Window.ThruDate = nil
		return
	}
	t := validity.TruncateToDate(*thru)
	r.Window.ThruDate = &t
}

// Equal は ID のみで同一性を判定します。
func (r *Relationship) Equal(other *Relationship) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.ID == other.ID
}
