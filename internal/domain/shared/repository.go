package shared

// FilterKeyAsOf carries the instant used to evaluate derived statuses such as
// overdue invoices and expired change orders
const FilterKeyAsOf = "as_of"

// Filter carries list parameters from the application layer to the
// repositories. Filters holds column equality filters plus FilterKeyAsOf.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]interface{}
}

// DefaultFilter is the first page, newest first
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
