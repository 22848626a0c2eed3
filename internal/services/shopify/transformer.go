package shopify

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"catalogsync/internal/models"

	"github.com/tidwall/gjson"
)

var (
	ErrInvalidJSON     = errors.New("response is not valid JSON")
	ErrMissingProducts = errors.New(`response has no "products" array`)
	ErrInvalidProduct  = errors.New("product entry is not an object")
)

// DecodeProducts converts a {"products": [...]} envelope into product
// records. Nested arrays and objects inside a product are dropped.
func DecodeProducts(body []byte) ([]models.ProductRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidJSON
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, ErrMissingProducts
	}
	products := root.Get(ProductsKey)
	if !products.IsArray() {
		return nil, ErrMissingProducts
	}

	items := products.Array()
	records := make([]models.ProductRecord, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, fmt.Errorf("products[%d]: %w", i, ErrInvalidProduct)
		}
		records = append(records, TransformProduct(item))
	}
	return records, nil
}

// TransformProduct maps one payload object onto a ProductRecord.
func TransformProduct(item gjson.Result) models.ProductRecord {
	var record models.ProductRecord

	item.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		scalar, ok := scalarValue(value)
		if !ok {
			return true
		}

		switch name {
		case models.FieldID:
			if id, ok := parseID(value); ok {
				record.ID = id
				record.HasID = true
			}
		case models.FieldTitle:
			record.Title = scalar.String()
		case models.FieldBodyHTML:
			if !scalar.IsNull() {
				body := scalar.String()
				record.BodyHTML = &body
			}
		case models.FieldVendor:
			record.Vendor = scalar.String()
		case models.FieldProductType:
			record.ProductType = scalar.String()
		case models.FieldCreatedAt:
			record.CreatedAt = scalar.String()
		case models.FieldUpdatedAt:
			record.UpdatedAt = scalar.String()
		}

		record.Fields = append(record.Fields, models.Field{Name: name, Value: scalar})
		return true
	})

	return record
}

func scalarValue(v gjson.Result) (models.Value, bool) {
	switch v.Type {
	case gjson.Null:
		return models.Value{}, true
	case gjson.True:
		return models.BoolValue(true), true
	case gjson.False:
		return models.BoolValue(false), true
	case gjson.String:
		return models.StringValue(v.Str), true
	case gjson.Number:
		if strings.ContainsAny(v.Raw, ".eE") {
			return models.FloatValue(v.Num), true
		}
		if n, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return models.IntValue(n), true
		}
		return models.FloatValue(v.Num), true
	default:
		// objects and arrays
		return models.Value{}, false
	}
}

func parseID(v gjson.Result) (int64, bool) {
	switch v.Type {
	case gjson.Number:
		n, err := strconv.ParseInt(v.Raw, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case gjson.String:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
