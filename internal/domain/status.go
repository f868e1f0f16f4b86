package domain

import "strings"

// StatusToken is the lowercase-hyphen status vocabulary used at API boundaries.
type StatusToken string

const (
	TokenPending       StatusToken = "pending"
	TokenInProgress    StatusToken = "in-progress"
	TokenSentToDept    StatusToken = "sent-to-dept"
	TokenDeptConfirmed StatusToken = "dept-confirmed"
	TokenResolved      StatusToken = "resolved"
)

// CanonicalStatus is the Title Case label persisted on the complaint row.
type CanonicalStatus string

const (
	StatusPending       CanonicalStatus = "Pending"
	StatusInProgress    CanonicalStatus = "In Progress"
	StatusSentToDept    CanonicalStatus = "Sent to Department"
	StatusDeptConfirmed CanonicalStatus = "Department Confirmed"
	StatusResolved      CanonicalStatus = "Resolved"
)

// DepartmentStatus is the label stored in the per-department ledger tables.
type DepartmentStatus string

const (
	DeptStatusPending    DepartmentStatus = "Pending"
	DeptStatusInProgress DepartmentStatus = "In Progress"
	DeptStatusConfirmed  DepartmentStatus = "Confirmed"
	DeptStatusResolved   DepartmentStatus = "Resolved"
)

// StatusTokens lists the closed token set in lifecycle order.
var StatusTokens = []StatusToken{
	TokenPending,
	TokenInProgress,
	TokenSentToDept,
	TokenDeptConfirmed,
	TokenResolved,
}

var canonicalByToken = map[StatusToken]CanonicalStatus{
	TokenPending:       StatusPending,
	TokenInProgress:    StatusInProgress,
	TokenSentToDept:    StatusSentToDept,
	TokenDeptConfirmed: StatusDeptConfirmed,
	TokenResolved:      StatusResolved,
}

var departmentByToken = map[StatusToken]DepartmentStatus{
	TokenPending:       DeptStatusPending,
	TokenInProgress:    DeptStatusInProgress,
	TokenSentToDept:    DeptStatusPending,
	TokenDeptConfirmed: DeptStatusConfirmed,
	TokenResolved:      DeptStatusResolved,
}

// tokenByKey indexes every accepted spelling by its squashed form
// ("inprogress", "senttodepartment", ...).
var tokenByKey = map[string]StatusToken{
	"pending":             TokenPending,
	"inprogress":          TokenInProgress,
	"senttodept":          TokenSentToDept,
	"senttodepartment":    TokenSentToDept,
	"deptconfirmed":       TokenDeptConfirmed,
	"departmentconfirmed": TokenDeptConfirmed,
	"resolved":            TokenResolved,
}

// ParseStatusToken accepts a token or canonical label in any case or spacing.
// It reports false for anything outside the closed vocabulary.
func ParseStatusToken(raw string) (StatusToken, bool) {
	token, ok := tokenByKey[squash(raw)]
	return token, ok
}

// NormalizeStatus maps a persisted label or token to its token. Unknown input yields pending.
func NormalizeStatus(raw string) StatusToken {
	if token, ok := ParseStatusToken(raw); ok {
		return token
	}
	return TokenPending
}

// CanonicalLabel maps a token to the persisted label. Unknown tokens yield Pending.
func CanonicalLabel(token StatusToken) CanonicalStatus {
	if label, ok := canonicalByToken[token]; ok {
		return label
	}
	return StatusPending
}

// DepartmentLabelFor projects a token onto the ledger vocabulary. The projection is lossy:
// sent-to-dept collapses to Pending.
func DepartmentLabelFor(token StatusToken) DepartmentStatus {
	if label, ok := departmentByToken[token]; ok {
		return label
	}
	return DeptStatusPending
}

// Token returns the normalized token for a canonical label.
func (s CanonicalStatus) Token() StatusToken {
	return NormalizeStatus(string(s))
}

// squash lowercases and drops whitespace, hyphens and underscores.
func squash(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '\n', '\r', '-', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
