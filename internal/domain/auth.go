package domain

// SubjectType differentiates customer vs staff session tokens.
type SubjectType string

const (
	SubjectTypeCustomer SubjectType = "CUSTOMER"
	SubjectTypeStaff    SubjectType = "STAFF"
)
