// Package filter describes list conditions shared by services and repositories.
package filter

// ComparisonType is the operator of a single condition.
type ComparisonType string

const (
	Equal          ComparisonType = "eq"
	NotEqual       ComparisonType = "neq"
	Less           ComparisonType = "lt"
	LessOrEqual    ComparisonType = "lte"
	Greater        ComparisonType = "gt"
	GreaterOrEqual ComparisonType = "gte"
	InList         ComparisonType = "in"
	Contains       ComparisonType = "contains" // ILIKE %val%
	IsNull         ComparisonType = "null"
	IsNotNull      ComparisonType = "not_null"
)

// Item is one condition. Field is a snake_case column name.
type Item struct {
	Field    string         `json:"field"`
	Operator ComparisonType `json:"operator"`
	Value    any            `json:"value"`
}

// Eq builds an equality condition.
func Eq(field string, value any) Item {
	return Item{Field: field, Operator: Equal, Value: value}
}

// Gte builds a greater-or-equal condition.
func Gte(field string, value any) Item {
	return Item{Field: field, Operator: GreaterOrEqual, Value: value}
}

// Lte builds a less-or-equal condition.
func Lte(field string, value any) Item {
	return Item{Field: field, Operator: LessOrEqual, Value: value}
}

// Lt builds a strict less-than condition.
func Lt(field string, value any) Item {
	return Item{Field: field, Operator: Less, Value: value}
}

// Gt builds a strict greater-than condition.
func Gt(field string, value any) Item {
	return Item{Field: field, Operator: Greater, Value: value}
}
