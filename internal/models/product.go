package models

import "strconv"

type ValueKind int

const (
	KindNull ValueKind = iota
	KindInteger
	KindFloat
	KindString
	KindBool
)

// Value is one scalar taken from the remote payload.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

func IntValue(v int64) Value     { return Value{Kind: KindInteger, Int: v} }
func FloatValue(v float64) Value { return Value{Kind: KindFloat, Float: v} }
func StringValue(v string) Value { return Value{Kind: KindString, Str: v} }
func BoolValue(v bool) Value     { return Value{Kind: KindBool, Bool: v} }

func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// String renders the value the way it is stored in text columns.
func (v Value) String() string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindString:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

type Field struct {
	Name  string
	Value Value
}

// ProductRecord is a single product from the remote catalog. Fields keeps
// every scalar attribute in payload order, canonical ones included.
type ProductRecord struct {
	ID          int64
	HasID       bool
	Title       string
	BodyHTML    *string
	Vendor      string
	ProductType string
	CreatedAt   string
	UpdatedAt   string

	Fields []Field
}

// Lookup returns the scalar stored under name.
func (p *ProductRecord) Lookup(name string) (Value, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Canonical payload keys that always map onto fixed columns.
const (
	FieldID          = "id"
	FieldTitle       = "title"
	FieldBodyHTML    = "body_html"
	FieldVendor      = "vendor"
	FieldProductType = "product_type"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"

	ColumnProductID = "product_id"
	ColumnRowID     = "id"
)

func IsCanonicalField(name string) bool {
	switch name {
	case FieldID, FieldTitle, FieldBodyHTML, FieldVendor, FieldProductType, FieldCreatedAt, FieldUpdatedAt:
		return true
	}
	return false
}

// ColumnForField maps a payload key onto its destination column.
func ColumnForField(name string) string {
	if name == FieldID {
		return ColumnProductID
	}
	return name
}
