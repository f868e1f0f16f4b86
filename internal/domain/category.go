package domain

import "strings"

// TableID identifies one of the fixed department ledger tables.
type TableID string

const (
	TableFacilities     TableID = "facilities"
	TableFoodServices   TableID = "food-services"
	TableAcademic       TableID = "academic"
	TableTechnology     TableID = "technology"
	TableTransportation TableID = "transportation"
	TableOther          TableID = "other"
)

// TableIDs lists every ledger table.
var TableIDs = []TableID{
	TableFacilities,
	TableFoodServices,
	TableAcademic,
	TableTechnology,
	TableTransportation,
	TableOther,
}

var tableByKey = map[string]TableID{
	"facilities":     TableFacilities,
	"foodservices":   TableFoodServices,
	"academic":       TableAcademic,
	"technology":     TableTechnology,
	"transportation": TableTransportation,
	"other":          TableOther,
}

var tableNames = map[TableID]string{
	TableFacilities:     "facilities_dept",
	TableFoodServices:   "food_services_dept",
	TableAcademic:       "academic_dept",
	TableTechnology:     "technology_dept",
	TableTransportation: "transportation_dept",
	TableOther:          "other_dept",
}

var emailLocalParts = map[TableID]string{
	TableFacilities:     "facilities",
	TableFoodServices:   "dining",
	TableAcademic:       "academic",
	TableTechnology:     "it",
	TableTransportation: "transport",
	TableOther:          "general",
}

// NormalizeDepartmentKey lowercases s and strips whitespace, hyphens and underscores.
// Department identifiers and complaint categories are compared in this form.
func NormalizeDepartmentKey(s string) string {
	return squash(s)
}

// TableFor routes a free-text category to its ledger table. The mapping never changes for a
// given input; blank or unknown categories go to TableOther.
func TableFor(category string) TableID {
	if table, ok := tableByKey[NormalizeDepartmentKey(category)]; ok {
		return table
	}
	return TableOther
}

// TableName returns the SQL table backing the ledger partition. Only names from this closed
// set are ever interpolated into SQL.
func (t TableID) TableName() string {
	if name, ok := tableNames[t]; ok {
		return name
	}
	return tableNames[TableOther]
}

// DepartmentEmailFor derives the department mailbox for a category under the given domain.
func DepartmentEmailFor(category, emailDomain string) string {
	emailDomain = strings.TrimPrefix(strings.TrimSpace(emailDomain), "@")
	if emailDomain == "" {
		emailDomain = "university.edu"
	}
	return emailLocalParts[TableFor(category)] + "@" + emailDomain
}

// SameDepartment reports whether a department identifier owns a complaint category.
func SameDepartment(departmentID, category string) bool {
	key := NormalizeDepartmentKey(departmentID)
	return key != "" && key == NormalizeDepartmentKey(category)
}
