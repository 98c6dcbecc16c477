package restbase

// Direction is a sort direction accepted by the backend's order parameter.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order names the column a query is sorted by. A zero Column defaults to
// "id" and a zero Direction to Asc, but only when an Order is supplied at
// all: queries without an Order emit no order parameter and leave the
// backend's natural ordering in place.
type Order struct {
	Column    string
	Direction Direction
}

// Options configures selection, ordering and pagination for read queries.
// The zero value selects all columns in natural order without bounds; zero
// Limit and Offset are treated as absent and emit no parameter.
type Options struct {
	Select []string
	Order  *Order
	Limit  int
	Offset int
}

// Filter is one equality predicate: Column must equal Value. Values are
// string-coerced onto the wire with the backend's "eq." prefix; characters
// significant to the backend's operator grammar (dots, commas) are passed
// through as-is before percent-encoding, matching the backend convention.
// Validate values yourself if they come from untrusted input.
type Filter struct {
	Column string
	Value  any
}

// Filters is an ordered set of equality predicates, ANDed by the backend.
// Encoding preserves insertion order.
type Filters []Filter

// Eq builds a single equality predicate.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// ByID is the single-key filter set used by the *ByID convenience methods.
func ByID(id any) Filters {
	return Filters{Eq("id", id)}
}
