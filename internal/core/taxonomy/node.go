package taxonomy

import (
	"github.com/google/uuid"
)

// Kind は分類体系の種別を表します。
type Kind string

const (
	KindPartyType          Kind = "PARTY_TYPE"
	KindRoleType           Kind = "PARTY_ROLE_TYPE"
	KindNameType           Kind = "NAME_TYPE"
	KindIdentificationType Kind = "IDENTIFICATION_TYPE"
	KindClassificationType Kind = "PARTY_CLASSIFICATION_TYPE"
	KindRelationshipType   Kind = "PARTY_RELATIONSHIP_TYPE"
)

// maxAncestorDepth は親チェーン走査の深さ上限です。参照データの
// 破損で循環が生じても走査が停止することを保証します。
const maxAncestorDepth = 64

// Node は自己参照型の分類ノードです。description は同一 Kind 内で一意です。
// FromRoleType / ToRoleType は関係種別ノードのみが保持します。
type Node struct {
	ID           uuid.UUID
	Kind         Kind
	Description  string
	ParentID     *uuid.UUID
	Parent       *Node
	FromRoleType string
	ToRoleType   string
}

// IsValidKind は既知の分類種別かどうかを返します。
func IsValidKind(kind Kind) bool {
	switch kind {
	case KindPartyType, KindRoleType, KindNameType,
		KindIdentificationType, KindClassificationType, KindRelationshipType:
		return true
	default:
		return false
	}
}

// MatchesOrDescendsFrom は自ノードまたは祖先のいずれかの description が
// label と一致する場合に true を返します。走査は訪問済み集合と深さ上限で
// 打ち切られ、循環した親チェーンでも停止します。
func (n *Node) MatchesOrDescendsFrom(label string) bool {
	visited := make(map[uuid.UUID]struct{}, 4)
	current := n
	for depth := 0; current != nil && depth < maxAncestorDepth; depth++ {
		if current.Description == label {
			return true
		}
		if _, seen := visited[current.ID]; seen {
			return false
		}
		visited[current.ID] = struct{}{}
		current = current.Parent
	}
	return false
}

// Depth はルートまでの祖先数を返します。循環データでは上限で打ち切ります。
func (n *Node) Depth() int {
	visited := make(map[uuid.UUID]struct{}, 4)
	depth := 0
	current := n
	for current != nil && depth < maxAncestorDepth {
		if _, seen := visited[current.ID]; seen {
			break
		}
		visited[current.ID] = struct{}{}
		current = current.Parent
		if current != nil {
			depth++
		}
	}
	return depth
}

// IsPerson は当事者種別が Person 系かどうかを返します。
func (n *Node) IsPerson() bool {
	return n.MatchesOrDescendsFrom("Person")
}

// IsOrganization は当事者種別が Organization 系かどうかを返します。
func (n *Node) IsOrganization() bool {
	return n.MatchesOrDescendsFrom("Organization")
}
