package party

import (
	"strings"
	"time"
)

// largeEnterpriseThreshold は大企業と見なす従業員数の下限です。
const largeEnterpriseThreshold = 250

// PersonDetails は Person バリアント固有の属性です。
type PersonDetails struct {
	FirstName  string
	MiddleName string
	LastName   string
	Title      string
	Suffix     string
	BirthDate  *time.Time
	Gender     *GenderType
}

// FullName は敬称・名・中間名・姓・接尾辞を連結した表示名を返します。
func (d PersonDetails) FullName() string {
	parts := make([]string, 0, 5)
	for _, part := range []string{d.Title, d.FirstName, d.MiddleName, d.LastName, d.Suffix} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

// Age は指定日時点の年齢を暦年差で返します。生年月日未設定なら nil です。
func (d PersonDetails) Age(asOf time.Time) *int {
	if d.BirthDate == nil {
		return nil
	}
	age := asOf.Year() - d.BirthDate.Year()
	return &age
}

// OrganizationDetails は Organization バリアント固有の属性です。
type OrganizationDetails struct {
	Name               string
	TradingName        string
	RegistrationNumber string
	EstablishedDate    *time.Time
	TaxIDNumber        string
	NumberOfEmployees  *int
	Industry           string
}

// YearsInBusiness は設立からの経過年数を暦年差で返します。
// 設立日未設定なら nil です。
func (d OrganizationDetails) YearsInBusiness(asOf time.Time) *int {
	if d.EstablishedDate == nil {
		return nil
	}
	years := asOf.Year() - d.EstablishedDate.Year()
	return &years
}

// IsLargeEnterprise は従業員数 250 以上かどうかを返します。
func (d OrganizationDetails) IsLargeEnterprise() bool {
	return d.NumberOfEmployees != nil && *d.NumberOfEmployees >= largeEnterpriseThreshold
}

// IsSmallMediumEnterprise は従業員数 250 未満かどうかを返します。
func (d OrganizationDetails) IsSmallMediumEnterprise() bool {
	return d.NumberOfEmployees != nil && *d.NumberOfEmployees < largeEnterpriseThreshold
}
