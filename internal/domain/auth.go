package domain

// SubjectType discriminates authenticated callers.
type SubjectType string

const (
	SubjectTypeUser      SubjectType = "USER"
	SubjectTypeInstitute SubjectType = "INSTITUTE"
)
