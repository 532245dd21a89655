package party

import "errors"

var (
	ErrInvalidID               = errors.New("party: invalid id")
	ErrInvalidKind             = errors.New("party: invalid kind")
	ErrInvalidLastName         = errors.New("party: invalid last name")
	ErrInvalidGender           = errors.New("party: invalid gender")
	ErrInvalidOrganizationName = errors.New("party: invalid organization name")
	ErrInvalidEmployeeCount    = errors.New("party: invalid number of employees")
	ErrInvalidRoleType         = errors.New("party: invalid role type")
	ErrInvalidName             = errors.New("party: invalid name")
	ErrInvalidNameType         = errors.New("party: invalid name type")
	ErrInvalidIdentifier       = errors.New("party: invalid identifier")
	ErrInvalidClassification   = errors.New("party: invalid classification value")
	ErrInvalidSearchTerm       = errors.New("party: invalid search term")
	ErrInvalidPageSize         = errors.New("party: invalid page size")
	ErrInvalidPageToken        = errors.New("party: invalid page token")

	ErrPartyNotFound              = errors.New("party: not found")
	ErrRoleTypeNotFound           = errors.New("party: role type not found")
	ErrIdentificationTypeNotFound = errors.New("party: identification type not found")
	ErrClassificationTypeNotFound = errors.New("party: classification type not found")

	// ErrPartyTypeNotConfigured は基底の当事者種別シードが存在しない
	// 致命的な設定不備を示します。利用者が訂正できる誤りではありません。
	ErrPartyTypeNotConfigured = errors.New("party: base party type not configured")

	// ErrRoleConflict は同種別の有効ロールがコミット時に重複検出された
	// 場合に返されます。呼び出し側は一度だけ再試行します。
	ErrRoleConflict = errors.New("party: concurrent duplicate role detected")
)
