package repo

import "github.com/jackc/pgx/v5/pgtype"

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// nullIfEmpty stores empty strings as NULL.
func nullIfEmpty(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func getString(t pgtype.Text) string {
	if t.Valid {
		return t.String
	}
	return ""
}

// clampLimit applies the default to non-positive limits and caps the rest.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultAuditLimit
	case limit > maxAuditLimit:
		return maxAuditLimit
	default:
		return limit
	}
}
