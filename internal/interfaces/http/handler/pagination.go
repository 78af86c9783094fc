package handler

// Defaults applied by the services when a list request leaves them unset
const (
	defaultPage     = 1
	defaultPageSize = 20
)

func pageOr(page int) int {
	if page <= 0 {
		return defaultPage
	}
	return page
}

func pageSizeOr(pageSize int) int {
	if pageSize <= 0 {
		return defaultPageSize
	}
	return pageSize
}
