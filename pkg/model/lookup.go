package model

// Column headers of the lookup sheets.
const (
	CategoryCode  = "分類代碼"
	CategoryName  = "分類名稱"
	OrgFullName   = "單位全銜"
	OrgShortName  = "單位簡稱"
	StaffName     = "姓名"
	StaffTitle    = "職稱"
	EnabledColumn = "啟用"
)

type Category struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type Organization struct {
	FullName  string `json:"fullName"`
	ShortName string `json:"shortName"`
	Enabled   bool   `json:"enabled"`
}

type StaffMember struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Enabled bool   `json:"enabled"`
}

// enabled reads the 啟用 flag. A sheet without the column enables every row;
// with the column only "是" counts.
func enabled(r Record) bool {
	v, ok := r[EnabledColumn]
	if !ok {
		return true
	}
	return v == FlagYes
}

func CategoryFromRecord(r Record) Category {
	return Category{Code: r.Get(CategoryCode), Name: r.Get(CategoryName), Enabled: enabled(r)}
}

func OrganizationFromRecord(r Record) Organization {
	return Organization{FullName: r.Get(OrgFullName), ShortName: r.Get(OrgShortName), Enabled: enabled(r)}
}

func StaffFromRecord(r Record) StaffMember {
	return StaffMember{Name: r.Get(StaffName), Title: r.Get(StaffTitle), Enabled: enabled(r)}
}
