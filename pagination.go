package neosocial

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"strings"
)

// MaxPageSize caps the page size NormalizePageRequest lets through.
const MaxPageSize = 100

const (
	skipParam  = "pageSkip"
	limitParam = "pageLimit"
	totalAlias = "total"
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	unionPattern      = regexp.MustCompile(`(?i)\bUNION\b`)
)

// PageRequest is a 1-indexed page window.
type PageRequest struct {
	Page     int `json:"page" validate:"min=1"`
	PageSize int `json:"pageSize" validate:"min=1"`
}

// PageLimits bounds the page sizes clients may ask for, usually built from
// the pagination section of the configuration.
type PageLimits struct {
	// Default replaces a missing or non-positive page size. Zero means 1.
	Default int
	// Max caps the page size. Zero means MaxPageSize.
	Max int
}

// Normalize coerces raw request values into a valid PageRequest: the page
// becomes at least 1, a non-positive size becomes Default and the size is
// capped at Max. Paginate itself never clamps, so endpoints call this first.
func (l PageLimits) Normalize(page, pageSize int) PageRequest {
	limit := l.Max
	if limit < 1 {
		limit = MaxPageSize
	}
	fallback := l.Default
	if fallback < 1 {
		fallback = 1
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = fallback
	}
	if pageSize > limit {
		pageSize = limit
	}
	return PageRequest{Page: page, PageSize: pageSize}
}

// NormalizePageRequest normalizes with the built-in limits: sizes below 1
// become 1 and sizes above MaxPageSize are capped.
func NormalizePageRequest(page, pageSize int) PageRequest {
	return PageLimits{}.Normalize(page, pageSize)
}

// Offset is the number of rows skipped before the page starts.
func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// Pagination is the metadata half of the list envelope.
type Pagination struct {
	ItemsPerPage int `json:"itemsPerPage"`
	CurrentPage  int `json:"currentPage"`
	TotalItems   int `json:"totalItems"`
	TotalPages   int `json:"totalPages"`
}

// Page is the envelope every list endpoint returns, whether its items come
// from the graph or from another store.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// TotalPages returns ceil(total/perPage), and 0 when there is nothing to page.
func TotalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// NewPage assembles the envelope for items already windowed by req.
func NewPage[T any](items []T, req PageRequest, total int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items: items,
		Pagination: Pagination{
			ItemsPerPage: req.PageSize,
			CurrentPage:  req.Page,
			TotalItems:   total,
			TotalPages:   TotalPages(total, req.PageSize),
		},
	}
}

// WindowQuery appends the SKIP/LIMIT window of req to base. A base query
// containing UNION is wrapped in a CALL subquery first, since a trailing
// window would otherwise only apply to its last branch.
func WindowQuery(base Query, req PageRequest) (Query, error) {
	if err := validateStruct(req); err != nil {
		return Query{}, err
	}
	if err := checkReserved(base.Params, skipParam, limitParam); err != nil {
		return Query{}, err
	}

	text := strings.TrimSpace(base.Text)
	if unionPattern.MatchString(text) {
		text = "CALL {\n" + text + "\n}\nRETURN *"
	}

	params := make(map[string]any, len(base.Params)+2)
	maps.Copy(params, base.Params)
	params[skipParam] = int64(req.Offset())
	params[limitParam] = int64(req.PageSize)

	return Query{
		Text:   fmt.Sprintf("%s\nSKIP $%s LIMIT $%s", text, skipParam, limitParam),
		Params: params,
	}, nil
}

// CountQuery wraps the whole unwindowed base query in a subquery and counts
// the distinct values of alias, so the total is computed over exactly the
// predicate set of the windowed query.
func CountQuery(base Query, alias string) (Query, error) {
	if !identifierPattern.MatchString(alias) {
		return Query{}, &ValidationError{Field: "countAlias", Reason: fmt.Sprintf("%q is not a plain identifier", alias)}
	}
	text := fmt.Sprintf("CALL {\n%s\n}\nRETURN count(DISTINCT %s) AS %s",
		strings.TrimSpace(base.Text), alias, totalAlias)
	return Query{Text: text, Params: maps.Clone(base.Params)}, nil
}

// Paginate runs the windowed and the count variants of base and returns the
// page envelope, each item projected onto keep.
//
// The base query is evaluated twice, once per variant. The two reads are not
// transactional with each other.
func (g *Graph) Paginate(ctx context.Context, base Query, req PageRequest, countAlias string, keep ...string) (*Page[Record], error) {
	return g.paginate(ctx, base, req, countAlias, func(row Row) Record {
		return Project(row, keep...)
	})
}

// PaginateNested is Paginate with polymorphic-column resolution of every item
// (see ProjectNested).
func (g *Graph) PaginateNested(ctx context.Context, base Query, req PageRequest, countAlias string, keep []string, polymorphic string, inline []string) (*Page[Record], error) {
	return g.paginate(ctx, base, req, countAlias, func(row Row) Record {
		return ProjectNested(row, keep, polymorphic, inline)
	})
}

func (g *Graph) paginate(ctx context.Context, base Query, req PageRequest, countAlias string, project func(Row) Record) (*Page[Record], error) {
	windowed, err := WindowQuery(base, req)
	if err != nil {
		return nil, err
	}
	counting, err := CountQuery(base, countAlias)
	if err != nil {
		return nil, err
	}

	rows, err := g.run(ctx, "paginate_window", windowed)
	if err != nil {
		return nil, err
	}
	countRows, err := g.run(ctx, "paginate_count", counting)
	if err != nil {
		return nil, err
	}

	total := 0
	if len(countRows) > 0 {
		if n, ok := countRows[0].Get(totalAlias).(Integer); ok {
			total = int(n)
		}
	}

	items := make([]Record, 0, len(rows))
	for _, row := range rows {
		items = append(items, project(row))
	}
	return NewPage(items, req, total), nil
}

func checkReserved(params map[string]any, names ...string) error {
	for _, name := range names {
		if _, taken := params[name]; taken {
			return &ValidationError{Field: name, Reason: "parameter name is reserved for pagination"}
		}
	}
	return nil
}
