package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"catalogsync/internal/models"

	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const rowSavepoint = "catalog_row"

// SyncResult summarizes one bulk replace. Attempted is the size of the
// incoming batch.
type SyncResult struct {
	Attempted int
	Inserted  int
	Failed    int
	RowErrors []*RowError
}

// Err combines every row failure into one error, or nil.
func (r SyncResult) Err() error {
	var err error
	for _, rowErr := range r.RowErrors {
		err = multierr.Append(err, rowErr)
	}
	return err
}

// ReplaceAll clears the table and inserts every record in one transaction.
// Row failures are collected in the result; the returned error means the
// transaction itself failed and the previous contents were kept.
func (c *Catalog) ReplaceAll(ctx context.Context, schema *TableSchema, records []models.ProductRecord) (SyncResult, error) {
	result := SyncResult{Attempted: len(records)}
	insertSQL := c.insertSQL(schema)

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM " + c.dialect.quote(schema.Name)).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", schema.Name, err)
		}

		for i, record := range records {
			if !record.HasID {
				result.addFailure(&RowError{Index: i, Err: ErrMissingID})
				continue
			}

			if err := tx.SavePoint(rowSavepoint).Error; err != nil {
				return fmt.Errorf("failed to create savepoint: %w", err)
			}

			if err := tx.Exec(insertSQL, c.rowArgs(schema, record)...).Error; err != nil {
				if rbErr := tx.RollbackTo(rowSavepoint).Error; rbErr != nil {
					return fmt.Errorf("failed to roll back row %d: %w", i, rbErr)
				}
				result.addFailure(&RowError{Index: i, ProductID: record.ID, Err: classifyInsertError(err)})
				continue
			}
			result.Inserted++
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	if result.Failed > 0 {
		c.logger.Warn("Failed to insert %d of %d products into %s: %v",
			result.Failed, result.Attempted, schema.Name, result.Err())
	}
	return result, nil
}

func (r *SyncResult) addFailure(rowErr *RowError) {
	r.Failed++
	r.RowErrors = append(r.RowErrors, rowErr)
}

func classifyInsertError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicateProduct, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate") {
		return fmt.Errorf("%w: %v", ErrDuplicateProduct, err)
	}
	return err
}

func (c *Catalog) insertSQL(schema *TableSchema) string {
	cols := make([]string, len(schema.Columns))
	marks := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		cols[i] = c.dialect.quote(col.Name)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.dialect.quote(schema.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))
}

// rowArgs lines up one record with the table's columns.
func (c *Catalog) rowArgs(schema *TableSchema, record models.ProductRecord) []interface{} {
	args := make([]interface{}, len(schema.Columns))
	for i, col := range schema.Columns {
		switch col.Name {
		case models.ColumnProductID:
			args[i] = record.ID
		case models.FieldTitle:
			args[i] = c.coerce(col, models.StringValue(record.Title))
		case models.FieldBodyHTML:
			if record.BodyHTML == nil {
				args[i] = c.zero(col)
			} else {
				args[i] = c.coerce(col, models.StringValue(*record.BodyHTML))
			}
		case models.FieldVendor:
			args[i] = c.coerce(col, models.StringValue(record.Vendor))
		case models.FieldProductType:
			args[i] = c.coerce(col, models.StringValue(record.ProductType))
		case models.FieldCreatedAt:
			args[i] = c.timestamp(col, record.CreatedAt)
		case models.FieldUpdatedAt:
			args[i] = c.timestamp(col, record.UpdatedAt)
		default:
			v, ok := record.Lookup(col.Name)
			if !ok || v.IsNull() {
				args[i] = c.zero(col)
			} else {
				args[i] = c.coerce(col, v)
			}
		}
	}
	return args
}

func (c *Catalog) timestamp(col ColumnSpec, raw string) interface{} {
	t := ParseTimestamp(raw)
	if col.Kind == KindTimestamp {
		return c.dialect.timestampArg(t)
	}
	return t.Format(TimestampLayout)
}

// zero is the value written when a record has nothing for the column.
func (c *Catalog) zero(col ColumnSpec) interface{} {
	if col.Nullable {
		return nil
	}
	switch col.Kind {
	case KindInteger:
		return int64(0)
	case KindFloat:
		return float64(0)
	case KindTimestamp:
		return c.dialect.timestampArg(ParseTimestamp(""))
	}
	return ""
}

func (c *Catalog) coerce(col ColumnSpec, v models.Value) interface{} {
	switch col.Kind {
	case KindInteger:
		switch v.Kind {
		case models.KindInteger:
			return v.Int
		case models.KindFloat:
			return int64(v.Float)
		case models.KindBool:
			if v.Bool {
				return int64(1)
			}
			return int64(0)
		case models.KindString:
			if n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64); err == nil {
				return n
			}
			if f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err == nil {
				return int64(f)
			}
		}
		return int64(0)
	case KindFloat:
		switch v.Kind {
		case models.KindInteger:
			return float64(v.Int)
		case models.KindFloat:
			return v.Float
		case models.KindBool:
			if v.Bool {
				return float64(1)
			}
			return float64(0)
		case models.KindString:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err == nil {
				return f
			}
		}
		return float64(0)
	case KindTimestamp:
		return c.dialect.timestampArg(ParseTimestamp(v.String()))
	case KindString:
		// VARCHAR columns keep the first BoundedStringLength runes; the row
		// still counts as inserted.
		s := v.String()
		if len([]rune(s)) > BoundedStringLength {
			s = string([]rune(s)[:BoundedStringLength])
		}
		return s
	}
	return v.String()
}

// CountRows returns the number of rows in the table, zero when it is missing.
func (c *Catalog) CountRows(ctx context.Context, table string) (int64, error) {
	if !c.HasTable(ctx, table) {
		return 0, nil
	}
	var n int64
	if err := c.db.WithContext(ctx).Table(table).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// ListRows pages through the mirrored rows ordered by synthetic id.
func (c *Catalog) ListRows(ctx context.Context, table string, offset, limit int) ([]map[string]interface{}, int64, error) {
	rows := []map[string]interface{}{}
	if !c.HasTable(ctx, table) {
		return rows, 0, nil
	}

	total, err := c.CountRows(ctx, table)
	if err != nil {
		return nil, 0, err
	}

	err = c.db.WithContext(ctx).
		Table(table).
		Order(c.dialect.quote(models.ColumnRowID)).
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", table, err)
	}
	return rows, total, nil
}
