package persistence

import (
	"strings"

	"github.com/fieldbook/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ClientSortFields contains allowed sort fields for clients
var ClientSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"email":      true,
}

// ProjectSortFields contains allowed sort fields for projects
var ProjectSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"status":     true,
	"start_date": true,
}

// EstimateSortFields contains allowed sort fields for estimates
var EstimateSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"number":      true,
	"title":       true,
	"status":      true,
	"total":       true,
	"valid_until": true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"number":     true,
	"status":     true,
	"total":      true,
	"balance":    true,
	"issue_date": true,
	"due_date":   true,
}

// ChangeOrderSortFields contains allowed sort fields for change orders
var ChangeOrderSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"number":        true,
	"status":        true,
	"change_amount": true,
	"expires_at":    true,
}

// applySearch matches the search term case-insensitively against columns.
// LOWER/LIKE keeps the query portable between PostgreSQL and SQLite.
func applySearch(query *gorm.DB, search string, columns ...string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" || len(columns) == 0 {
		return query
	}
	pattern := "%" + strings.ToLower(search) + "%"
	conds := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		conds[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = pattern
	}
	return query.Where(strings.Join(conds, " OR "), args...)
}

// applyEqualFilters adds "column = value" for each whitelisted key present in the filter
func applyEqualFilters(query *gorm.DB, filter shared.Filter, allowed ...string) *gorm.DB {
	for _, key := range allowed {
		if value, ok := filter.Filters[key]; ok && value != nil && value != "" {
			query = query.Where(key+" = ?", value)
		}
	}
	return query
}

// applyPaging orders by a whitelisted column and applies offset/limit
func applyPaging(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, "created_at")
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}
