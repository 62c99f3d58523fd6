package firestore

// Field filter operators
const (
	OpEqual              = "EQUAL"
	OpLessThan           = "LESS_THAN"
	OpGreaterThanOrEqual = "GREATER_THAN_OR_EQUAL"
	OpArrayContains      = "ARRAY_CONTAINS"
)

// Sort directions
const (
	Ascending  = "ASCENDING"
	Descending = "DESCENDING"
)

// StructuredQuery is the body of a runQuery request
type StructuredQuery struct {
	From    []CollectionSelector `json:"from"`
	Where   *Filter              `json:"where,omitempty"`
	OrderBy []Order              `json:"orderBy,omitempty"`
	Limit   int                  `json:"limit,omitempty"`
}

type CollectionSelector struct {
	CollectionID string `json:"collectionId"`
}

type FieldReference struct {
	FieldPath string `json:"fieldPath"`
}

type Filter struct {
	CompositeFilter *CompositeFilter `json:"compositeFilter,omitempty"`
	FieldFilter     *FieldFilter     `json:"fieldFilter,omitempty"`
}

type CompositeFilter struct {
	Op      string   `json:"op"`
	Filters []Filter `json:"filters"`
}

type FieldFilter struct {
	Field FieldReference `json:"field"`
	Op    string         `json:"op"`
	Value Value          `json:"value"`
}

type Order struct {
	Field     FieldReference `json:"field"`
	Direction string         `json:"direction"`
}

// Query starts a structured query over one collection
func Query(collection string) StructuredQuery {
	return StructuredQuery{From: []CollectionSelector{{CollectionID: collection}}}
}

// Where builds a single field filter
func Where(path, op string, value Value) Filter {
	return Filter{FieldFilter: &FieldFilter{Field: FieldReference{FieldPath: path}, Op: op, Value: value}}
}

// And combines filters; a single filter is returned unwrapped
func And(filters ...Filter) *Filter {
	switch len(filters) {
	case 0:
		return nil
	case 1:
		return &filters[0]
	}
	return &Filter{CompositeFilter: &CompositeFilter{Op: "AND", Filters: filters}}
}

// By builds a sort order on a field
func By(path, direction string) Order {
	return Order{Field: FieldReference{FieldPath: path}, Direction: direction}
}
