// Package pagination provides page requests, sort orders and result pages for repository queries.
package pagination

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPageRequest indicates a negative page index or a non-positive page size.
	ErrInvalidPageRequest = errors.New("invalid page request")
	// ErrUnknownSortProperty indicates a sort property the repository does not expose.
	ErrUnknownSortProperty = errors.New("unknown sort property")
)

// Direction is a sort direction.
type Direction string

const (
	// Asc sorts in ascending order.
	Asc Direction = "ASC"
	// Desc sorts in descending order.
	Desc Direction = "DESC"
)

// Order sorts by one entity property.
type Order struct {
	Property  string
	Direction Direction
}

// By returns an ascending order on property.
func By(property string) Order {
	return Order{Property: property, Direction: Asc}
}

// ByDesc returns a descending order on property.
func ByDesc(property string) Order {
	return Order{Property: property, Direction: Desc}
}

// PageRequest selects a 0-based page of a given size with an optional sort.
type PageRequest struct {
	Page int
	Size int
	Sort []Order
}

// Of builds a PageRequest.
func Of(page, size int, sort ...Order) PageRequest {
	return PageRequest{Page: page, Size: size, Sort: sort}
}

// Validate checks page bounds.
func (p PageRequest) Validate() error {
	if p.Page < 0 {
		return fmt.Errorf("%w: page index %d is negative", ErrInvalidPageRequest, p.Page)
	}
	if p.Size <= 0 {
		return fmt.Errorf("%w: page size %d must be greater than 0", ErrInvalidPageRequest, p.Size)
	}
	return nil
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// OrderClause renders the sort as SQL using columns to map properties to column names.
// Returns "" when the request has no sort.
func OrderClause(sort []Order, columns map[string]string) (string, error) {
	parts := make([]string, 0, len(sort))
	for _, o := range sort {
		column, ok := columns[o.Property]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownSortProperty, o.Property)
		}
		dir := Asc
		if strings.EqualFold(string(o.Direction), string(Desc)) {
			dir = Desc
		}
		parts = append(parts, column+" "+string(dir))
	}
	return strings.Join(parts, ", "), nil
}

// Page is one page of results plus the total number of matching rows.
type Page[T any] struct {
	Content       []T
	Number        int
	Size          int
	TotalElements int64
}

// NewPage builds a page for request with content and total.
func NewPage[T any](content []T, request PageRequest, total int64) *Page[T] {
	if content == nil {
		content = []T{}
	}
	return &Page[T]{
		Content:       content,
		Number:        request.Page,
		Size:          request.Size,
		TotalElements: total,
	}
}

// TotalPages returns the number of pages for the page size.
func (p *Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}

// HasNext reports whether a following page exists.
func (p *Page[T]) HasNext() bool {
	return p.Number+1 < p.TotalPages()
}

// IsFirst reports whether this is the first page.
func (p *Page[T]) IsFirst() bool {
	return p.Number == 0
}

// Map converts page content while keeping the paging metadata.
func Map[T, R any](p *Page[T], fn func(T) R) *Page[R] {
	out := make([]R, len(p.Content))
	for i, item := range p.Content {
		out[i] = fn(item)
	}
	return &Page[R]{
		Content:       out,
		Number:        p.Number,
		Size:          p.Size,
		TotalElements: p.TotalElements,
	}
}
