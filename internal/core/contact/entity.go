package contact

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind は連絡手段の具象バリアントを識別するディスクリミネータです。
type Kind string

const (
	KindEmail   Kind = "EMAIL"
	KindPostal  Kind = "POSTAL_ADDRESS"
	KindTelecom Kind = "TELECOM_NUMBER"
)

// Mechanism は連絡手段エンティティです。Kind に応じた詳細を
// ちょうど一つ保持します。同一性は ID のみで判定されます。
type Mechanism struct {
	ID        uuid.UUID
	Kind      Kind
	Comment   string
	Email     *EmailDetails
	Postal    *PostalDetails
	Telecom   *TelecomDetails
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmailDetails はメールアドレスの詳細です。
type EmailDetails struct {
	EmailAddress string
}

// PostalDetails は郵送先住所の詳細です。
type PostalDetails struct {
	Address1            string
	Address2            string
	City                string
	StateProvince       string
	PostalCode          string
	PostalCodeExtension string
	Country             string
}

// TelecomDetails は電話番号の詳細です。
type TelecomDetails struct {
	CountryCode string
	AreaCode    string
	PhoneNumber string
	Extension   string
}

// NewEmail はメールアドレスの連絡手段を生成します。
func NewEmail(details EmailDetails) *Mechanism {
	return &Mechanism{ID: uuid.New(), Kind: KindEmail, Email: &details}
}

// NewPostal は郵送先住所の連絡手段を生成します。
func NewPostal(details PostalDetails) *Mechanism {
	return &Mechanism{ID: uuid.New(), Kind: KindPostal, Postal: &details}
}

// NewTelecom は電話番号の連絡手段を生成します。
func NewTelecom(details TelecomDetails) *Mechanism {
	return &Mechanism{ID: uuid.New(), Kind: KindTelecom, Telecom: &details}
}

// Equal は ID のみで同一性を判定します。
func (m *Mechanism) Equal(other *Mechanism) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.ID == other.ID
}

// Validate は Kind と詳細の整合および必須項目を検証します。
func (m *Mechanism) Validate() error {
	switch m.Kind {
	case KindEmail:
		if m.Email == nil || !strings.Contains(m.Email.EmailAddress, "@") {
			return ErrInvalidEmailAddress
		}
	case KindPostal:
		if m.Postal == nil {
			return ErrInvalidPostalAddress
		}
		p := m.Postal
		if p.Address1 == "" || p.City == "" || p.StateProvince == "" || p.PostalCode == "" || p.Country == "" {
			return ErrInvalidPostalAddress
		}
	case KindTelecom:
		if m.Telecom == nil || strings.TrimSpace(m.Telecom.PhoneNumber) == "" {
			return ErrInvalidTelecomNumber
		}
	default:
		return ErrInvalidKind
	}
	return nil
}

// IsValidKind は既知のバリアントかどうかを返します。
func IsValidKind(kind Kind) bool {
	switch kind {
	case KindEmail, KindPostal, KindTelecom:
		return true
	default:
		return false
	}
}
