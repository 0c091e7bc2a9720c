// Package pagination implements page/size request parameters and the
// paginated response envelope shared by all list endpoints.
package pagination

const (
	DefaultSize = 10
	MaxSize     = 100
)

// Params holds sanitized pagination inputs. Use Sanitize to build one
// from raw query values.
type Params struct {
	Page int
	Size int
}

// Sanitize clamps raw page/size values into the supported ranges:
// page >= 1, 1 <= size <= MaxSize. Zero or negative values fall back to
// the defaults.
func Sanitize(page, size int) Params {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	return Params{Page: page, Size: size}
}

// Offset returns the number of records to skip for this page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Size
}

// Page is the response envelope for a single page of results.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Pages int   `json:"pages"`
}

// NewPage wraps items in the response envelope, computing the page count
// as ceil(total/size).
func NewPage[T any](items []T, total int64, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(p.Size) - 1) / int64(p.Size))
	return Page[T]{
		Items: items,
		Total: total,
		Page:  p.Page,
		Size:  p.Size,
		Pages: pages,
	}
}
