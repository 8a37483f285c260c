package tables

// Item is one row of a table: a property bag keyed by column name. Values
// follow JSON typing, so numbers decode as float64.
type Item map[string]any

// String returns the named property as a string, or "" when absent or of
// another type.
func (i Item) String(key string) string {
	s, _ := i[key].(string)
	return s
}

// Number returns the named property as a float64, or 0 when absent or of
// another type.
func (i Item) Number(key string) float64 {
	f, _ := i[key].(float64)
	return f
}

// Bool returns the named property as a bool, or false when absent or of
// another type.
func (i Item) Bool(key string) bool {
	b, _ := i[key].(bool)
	return b
}

// itemsPage is one page of a query result.
type itemsPage struct {
	Items             []Item `json:"items"`
	ContinuationToken string `json:"continuation_token,omitempty"`
}
