// Package query builds list queries from raw request parameters: filtering
// with comparison operators, sorting, field projection and pagination, each
// degrading to defaults on malformed input instead of erroring.
package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
)

// Reserved parameter names that are never treated as filters.
var reservedParams = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
}

// ColumnSet maps the external (JSON) field names of a resource onto its SQL
// columns and defines the default projection and sort for list queries.
type ColumnSet struct {
	byName      map[string]string
	public      []string
	defaultSort string
}

// NewColumnSet builds a ColumnSet. public is the default projection (in
// column form); defaultSort is a ready ORDER BY expression such as
// "created_at DESC".
func NewColumnSet(byName map[string]string, public []string, defaultSort string) *ColumnSet {
	return &ColumnSet{byName: byName, public: public, defaultSort: defaultSort}
}

// Resolve returns the SQL column for an external field name.
func (cs *ColumnSet) Resolve(name string) (string, bool) {
	col, ok := cs.byName[name]
	return col, ok
}

// Features wraps an unexecuted select builder and transforms it from request
// parameters. Stages are chainable and applied in the conventional order
// Filter, Sort, LimitFields, Paginate; the final builder is obtained with
// Builder and executed by the caller.
type Features struct {
	builder   sq.SelectBuilder
	params    url.Values
	cols      *ColumnSet
	projected bool
}

func New(builder sq.SelectBuilder, params url.Values, cols *ColumnSet) *Features {
	return &Features{builder: builder, params: params, cols: cols}
}

// splitParam breaks "price[gte]" into its field and operator parts. A plain
// key has an empty operator.
func splitParam(key string) (field, op string) {
	if i := strings.IndexByte(key, '['); i >= 0 && strings.HasSuffix(key, "]") {
		return key[:i], key[i+1 : len(key)-1]
	}
	return key, ""
}

// Filter turns every non-reserved parameter into a WHERE condition. The
// operators gte, gt, lte and lt map to their SQL comparisons; any other
// operator, including none, is an equality match. Parameters that do not
// resolve to a known column are dropped.
func (f *Features) Filter() *Features {
	keys := make([]string, 0, len(f.params))
	for key := range f.params {
		if !reservedParams[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		field, op := splitParam(key)
		col, ok := f.cols.Resolve(field)
		if !ok {
			continue
		}
		value := f.params.Get(key)

		switch op {
		case "gte":
			f.builder = f.builder.Where(sq.GtOrEq{col: value})
		case "gt":
			f.builder = f.builder.Where(sq.Gt{col: value})
		case "lte":
			f.builder = f.builder.Where(sq.LtOrEq{col: value})
		case "lt":
			f.builder = f.builder.Where(sq.Lt{col: value})
		default:
			f.builder = f.builder.Where(sq.Eq{col: value})
		}
	}
	return f
}

// Sort applies the comma-separated sort parameter, a leading '-' meaning
// descending. Unknown fields are skipped; no usable field means the default
// sort (newest first).
func (f *Features) Sort() *Features {
	var orders []string
	for _, field := range strings.Split(f.params.Get("sort"), ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		dir := "ASC"
		if strings.HasPrefix(field, "-") {
			field = field[1:]
			dir = "DESC"
		}
		if col, ok := f.cols.Resolve(field); ok {
			orders = append(orders, col+" "+dir)
		}
	}

	if len(orders) == 0 {
		orders = []string{f.cols.defaultSort}
	}
	f.builder = f.builder.OrderBy(orders...)
	return f
}

// LimitFields projects the comma-separated fields parameter, or the
// resource's public columns when absent or entirely unknown.
func (f *Features) LimitFields() *Features {
	var cols []string
	for _, field := range strings.Split(f.params.Get("fields"), ",") {
		if col, ok := f.cols.Resolve(strings.TrimSpace(field)); ok {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		cols = f.cols.public
	}
	f.builder = f.builder.Columns(cols...)
	f.projected = true
	return f
}

// positiveInt parses s as a positive integer, degrading to def on any
// malformed or out-of-range value.
func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Paginate applies page/limit with skip = (page-1)*limit. Missing or
// non-numeric values default to page 1, limit 100.
func (f *Features) Paginate() *Features {
	page := positiveInt(f.params.Get("page"), DefaultPage)
	limit := positiveInt(f.params.Get("limit"), DefaultLimit)

	f.builder = f.builder.Limit(uint64(limit)).Offset(uint64((page - 1) * limit))
	return f
}

// Builder returns the final unexecuted builder, applying the default
// projection if LimitFields was never run.
func (f *Features) Builder() sq.SelectBuilder {
	if !f.projected {
		f.builder = f.builder.Columns(f.cols.public...)
		f.projected = true
	}
	return f.builder
}
