package party

import (
	"time"

	"github.com/google/uuid"

	"github.com/erp-microservices/people-and-organizations/internal/core/taxonomy"
	"github.com/erp-microservices/people-and-organizations/internal/core/validity"
)

// Kind は当事者の具象バリアントを識別するディスクリミネータです。
type Kind string

const (
	KindPerson       Kind = "PERSON"
	KindOrganization Kind = "ORGANIZATION"
)

// GenderType は性別区分を表します。
type GenderType string

const (
	GenderMale        GenderType = "MALE"
	GenderFemale      GenderType = "FEMALE"
	GenderOther       GenderType = "OTHER"
	GenderUndisclosed GenderType = "UNDISCLOSED"
)

// Party は当事者集約です。Person / Organization のどちらか一方の
// 詳細を保持し、ロール・名前・識別子・分類のコレクションを所有します。
// コレクションは常に非 nil であり、同一性は ID のみで比較されます。
type Party struct {
	ID              uuid.UUID
	Kind            Kind
	Type            *taxonomy.Node
	Comment         string
	Roles           []Role
	Names           []Name
	Identifications []Identification
	Classifications []Classification
	Person          *PersonDetails
	Organization    *OrganizationDetails
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Role は当事者が期間中に保持する役割です。
type Role struct {
	ID      uuid.UUID
	PartyID uuid.UUID
	Type    *taxonomy.Node
	Window  validity.Window
}

// Name は当事者の呼称です。挿入順が意味を持ちます。
type Name struct {
	ID      uuid.UUID
	PartyID uuid.UUID
	Name    string
	Type    *taxonomy.Node
	Window  validity.Window
}

// Identification は当事者を外部体系で識別する値です。
type Identification struct {
	ID         uuid.UUID
	PartyID    uuid.UUID
	Identifier string
	Type       *taxonomy.Node
	Window     validity.Window
}

// Classification は当事者の分類値です。
type Classification struct {
	ID      uuid.UUID
	PartyID uuid.UUID
	Value   string
	Type    *taxonomy.Node
	Window  validity.Window
}

// NewPerson は Person バリアントの当事者を生成します。
func NewPerson(typeRef *taxonomy.Node, details PersonDetails) *Party {
	p := newParty(KindPerson, typeRef)
	p.Person = &details
	return p
}

// NewOrganization は Organization バリアントの当事者を生成します。
func NewOrganization(typeRef *taxonomy.Node, details OrganizationDetails) *Party {
	p := newParty(KindOrganization, typeRef)
	p.Organization = &details
	return p
}

func newParty(kind Kind, typeRef *taxonomy.Node) *Party {
	return &Party{
		ID:              uuid.New(),
		Kind:            kind,
		Type:            typeRef,
		Roles:           []Role{},
		Names:           []Name{},
		Identifications: []Identification{},
		Classifications: []Classification{},
	}
}

// EnsureCollections は nil のコレクションを空スライスへ復元します。
// 永続層からの復元直後に呼ばれ、以降コレクションは常に非 nil です。
func (p *Party) EnsureCollections() {
	if p.Roles == nil {
		p.Roles = []Role{}
	}
	if p.Names == nil {
		p.Names = []Name{}
	}
	if p.Identifications == nil {
		p.Identifications = []Identification{}
	}
	if p.Classifications == nil {
		p.Classifications = []Classification{}
	}
}

// Equal は ID のみで同一性を判定します。
func (p *Party) Equal(other *Party) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.ID == other.ID
}

// HasRole は指定種別の役割が現在有効かどうかを返します。
func (p *Party) HasRole(roleType *taxonomy.Node) bool {
	return p.HasRoleOn(roleType, time.Now().UTC())
}

// HasRoleOn は指定日時点で役割が有効かどうかを返します。
// 役割の有効判定は終了日排他の規約に従います。
func (p *Party) HasRoleOn(roleType *taxonomy.Node, asOf time.Time) bool {
	if roleType == nil {
		return false
	}
	for _, role := range p.Roles {
		if role.Type != nil && role.Type.ID == roleType.ID && role.Window.IsActiveExclusiveEnd(asOf) {
			return true
		}
	}
	return false
}

// AddRole は同種別の有効な役割が無い場合のみ追加します。
// 追加した場合に true を返します。
func (p *Party) AddRole(role Role) bool {
	return p.AddRoleOn(role, time.Now().UTC())
}

// AddRoleOn は指定日を基準に重複判定した上で役割を追加します。
func (p *Party) AddRoleOn(role Role, asOf time.Time) bool {
	p.EnsureCollections()
	if p.HasRoleOn(role.Type, asOf) {
		return false
	}
	role.PartyID = p.ID
	p.Roles = append(p.Roles, role)
	return true
}

// RemoveRole は指定種別の有効な役割をすべて現在日で失効させます。
// 役割は削除されず、thru_date が設定されるのみです。
// 一件以上失効させた場合に true を返します。
func (p *Party) RemoveRole(roleType *taxonomy.Node) bool {
	return p.RemoveRoleOn(roleType, time.Now().UTC())
}

// RemoveRoleOn は指定日で役割を失効させます。
// 一件以上失効させた場合に true を返します。
func (p *Party) RemoveRoleOn(roleType *taxonomy.Node, asOf time.Time) bool {
	if roleType == nil {
		return false
	}
	expired := false
	for i := range p.Roles {
		role := &p.Roles[i]
		if role.Type != nil && role.Type.ID == roleType.ID && role.Window.IsActiveExclusiveEnd(asOf) {
			role.Window.Expire(asOf)
			expired = true
		}
	}
	return expired
}

// ActiveRoles は現在有効な役割を返します。
func (p *Party) ActiveRoles() []Role {
	return p.ActiveRolesOn(time.Now().UTC())
}

// ActiveRolesOn は指定日時点で有効な役割を返します。
func (p *Party) ActiveRolesOn(asOf time.Time) []Role {
	active := make([]Role, 0, len(p.Roles))
	for _, role := range p.Roles {
		if role.Window.IsActiveExclusiveEnd(asOf) {
			active = append(active, role)
		}
	}
	return active
}

// CurrentName は指定種別の有効な名前を挿入順で最初の一件返します。
// 名前の有効判定は終了日包含の規約に従います。見つからなければ nil です。
func (p *Party) CurrentName(nameType *taxonomy.Node) *Name {
	return p.CurrentNameOn(nameType, time.Now().UTC())
}

// CurrentNameOn は指定日時点の有効な名前を返します。
func (p *Party) CurrentNameOn(nameType *taxonomy.Node, asOf time.Time) *Name {
	if nameType == nil {
		return nil
	}
	for i := range p.Names {
		name := &p.Names[i]
		if name.Type != nil && name.Type.ID == nameType.ID && name.Window.IsActiveInclusiveEnd(asOf) {
			return name
		}
	}
	return nil
}

// AddName は名前を末尾へ追加します。重複は許容されます。
func (p *Party) AddName(name Name) {
	p.EnsureCollections()
	name.PartyID = p.ID
	p.Names = append(p.Names, name)
}

// AddIdentification は識別子を追加します。同種別・同値の重複は
// この層では排除されません。
func (p *Party) AddIdentification(ident Identification) {
	p.EnsureCollections()
	ident.PartyID = p.ID
	p.Identifications = append(p.Identifications, ident)
}

// AddClassification は分類を追加します。重複は許容されます。
func (p *Party) AddClassification(classification Classification) {
	p.EnsureCollections()
	classification.PartyID = p.ID
	p.Classifications = append(p.Classifications, classification)
}

// IsValidKind は既知のバリアントかどうかを返します。
func IsValidKind(kind Kind) bool {
	switch kind {
	case KindPerson, KindOrganization:
		return true
	default:
		return false
	}
}

// IsValidGender は既知の性別区分かどうかを返します。
func IsValidGender(gender GenderType) bool {
	switch gender {
	case GenderMale, GenderFemale, GenderOther, GenderUndisclosed:
		return true
	default:
		return false
	}
}
