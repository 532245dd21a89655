package party

import (
	"context"

	"github.com/google/uuid"
)

// Repository は当事者集約の永続化抽象です。集約 (当事者と所有
// コレクション) は常に一つのトランザクション単位として保存・復元
// されます。"active" を名に含む検索はすべて呼び出し時点の判定です。
type Repository interface {
	// Save は基底レコード・バリアント拡張・全コレクションを
	// まとめて upsert します。
	Save(ctx context.Context, p *Party) (*Party, error)
	SaveAll(ctx context.Context, parties []*Party) ([]*Party, error)

	// FindByID はディスクリミネータに従い具象バリアントを復元します。
	FindByID(ctx context.Context, id uuid.UUID) (*Party, error)
	FindByType(ctx context.Context, typeLabel string) ([]*Party, error)

	// FindByActiveRole は役割種別が一致し、かつ thru_date が未設定の
	// 役割を持つ当事者を返します。日付比較を行う Party.HasRole より
	// 意図的に狭い定義です。
	FindByActiveRole(ctx context.Context, roleLabel string) ([]*Party, error)

	// FindByNameContaining は有効な名前に対する大文字小文字を
	// 区別しない部分一致検索です。
	FindByNameContaining(ctx context.Context, substring string) ([]*Party, error)
	FindPersonsByLastName(ctx context.Context, lastName string) ([]*Party, error)
	FindOrganizationsByName(ctx context.Context, substring string) ([]*Party, error)

	// FindByIdentification は有効な識別子の完全一致で単一の当事者を
	// 返します。
	FindByIdentification(ctx context.Context, identifier, typeLabel string) (*Party, error)
	FindByClassification(ctx context.Context, typeLabel, value string) ([]*Party, error)

	DeleteByID(ctx context.Context, id uuid.UUID) error
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	Count(ctx context.Context) (int64, error)
	CountByType(ctx context.Context, typeLabel string) (int64, error)
	FindAll(ctx context.Context) ([]*Party, error)
	List(ctx context.Context, filter ListPartiesFilter) ([]*Party, string, error)
}

// ListPartiesFilter はページング付き一覧取得のフィルタです。
type ListPartiesFilter struct {
	Kind   *Kind
	Limit  int
	Offset int
}
