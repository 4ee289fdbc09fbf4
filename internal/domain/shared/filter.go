package shared

// Page represents pagination and ordering options shared by all list queries.
// Domain-specific criteria live in typed filter structs next to each
// repository interface rather than in an untyped bag.
type Page struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// DefaultPage returns pagination options with default values
func DefaultPage() Page {
	return Page{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}
}

// Normalize fills in defaults for missing pagination values
func (p *Page) Normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	if p.OrderBy == "" {
		p.OrderBy = "created_at"
	}
	if p.OrderDir == "" {
		p.OrderDir = "desc"
	}
}

// Offset returns the row offset for the current page
func (p Page) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
