package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"catalogsync/internal/logger"
	"catalogsync/internal/models"

	"gorm.io/gorm"
)

type ColumnKind int

const (
	KindInteger ColumnKind = iota + 1
	KindFloat
	KindText
	KindString
	KindTimestamp
)

func (k ColumnKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindString:
		return "string"
	case KindTimestamp:
		return "timestamp"
	}
	return "unknown"
}

// BoundedStringLength is the longest string stored in a VARCHAR column.
const BoundedStringLength = 255

type ColumnSpec struct {
	Name     string
	Kind     ColumnKind
	Nullable bool
}

// TableSchema is the column set of a destination table, synthetic row id
// excluded.
type TableSchema struct {
	Name    string
	Columns []ColumnSpec
}

func (s *TableSchema) Column(name string) (ColumnSpec, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

func (s *TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// BaselineColumns is the fixed schema used when no sample record exists.
func BaselineColumns() []ColumnSpec {
	return []ColumnSpec{
		{Name: models.ColumnProductID, Kind: KindInteger},
		{Name: models.FieldTitle, Kind: KindText},
		{Name: models.FieldBodyHTML, Kind: KindText, Nullable: true},
		{Name: models.FieldVendor, Kind: KindString, Nullable: true},
		{Name: models.FieldProductType, Kind: KindString, Nullable: true},
		{Name: models.FieldCreatedAt, Kind: KindTimestamp, Nullable: true},
		{Name: models.FieldUpdatedAt, Kind: KindTimestamp, Nullable: true},
	}
}

// DeriveColumns builds one NOT NULL column per scalar field of the sample, in
// payload order. The payload id becomes product_id, which is always present.
func DeriveColumns(sample models.ProductRecord) ([]ColumnSpec, error) {
	columns := make([]ColumnSpec, 0, len(sample.Fields)+1)
	// The synthetic row id is reserved; keys folding onto it are dropped.
	seen := map[string]bool{models.ColumnRowID: true}
	hasProductID := false

	for _, field := range sample.Fields {
		if strings.EqualFold(field.Name, models.ColumnProductID) {
			continue
		}
		name := models.ColumnForField(field.Name)
		if !models.IsValidIdentifier(name) {
			return nil, &SchemaError{Column: field.Name, Err: errors.New("not a valid column name")}
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		var kind ColumnKind
		if field.Name == models.FieldID {
			kind = KindInteger
			hasProductID = true
		} else {
			kind = kindOf(field.Value)
		}
		columns = append(columns, ColumnSpec{Name: name, Kind: kind})
	}

	if !hasProductID {
		columns = append([]ColumnSpec{{Name: models.ColumnProductID, Kind: KindInteger}}, columns...)
	}
	return columns, nil
}

func kindOf(v models.Value) ColumnKind {
	switch v.Kind {
	case models.KindInteger:
		return KindInteger
	case models.KindFloat:
		return KindFloat
	case models.KindString:
		if utf8.RuneCountInString(v.Str) > BoundedStringLength {
			return KindText
		}
	}
	return KindString
}

// kindFromDatabaseType maps an introspected column type back to a kind.
func kindFromDatabaseType(typeName string) ColumnKind {
	t := strings.ToUpper(typeName)
	switch {
	case strings.Contains(t, "DATE") || strings.Contains(t, "TIME"):
		return KindTimestamp
	case strings.Contains(t, "INT"):
		return KindInteger
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOAT"), strings.Contains(t, "DOUBLE"),
		strings.Contains(t, "NUMERIC"), strings.Contains(t, "DECIMAL"):
		return KindFloat
	case strings.Contains(t, "TEXT") || strings.Contains(t, "CLOB"):
		return KindText
	}
	return KindString
}

// Catalog owns the destination table: creating it, introspecting it and
// replacing its contents.
type Catalog struct {
	db      *gorm.DB
	dialect dialect
	logger  *logger.Logger
}

func New(db *gorm.DB, logger *logger.Logger) *Catalog {
	return &Catalog{
		db:      db,
		dialect: dialectFor(db),
		logger:  logger,
	}
}

// HasTable reports whether the destination table exists.
func (c *Catalog) HasTable(ctx context.Context, table string) bool {
	return c.db.WithContext(ctx).Migrator().HasTable(table)
}

// EnsureTable creates the table when it is missing, from the sample when one is
// given and from the baseline otherwise. An existing table is never altered.
func (c *Catalog) EnsureTable(ctx context.Context, table string, sample *models.ProductRecord) (*TableSchema, error) {
	if !models.IsValidIdentifier(table) {
		return nil, &SchemaError{Table: table, Err: errors.New("not a valid table name")}
	}

	if c.HasTable(ctx, table) {
		return c.Inspect(ctx, table)
	}

	columns := BaselineColumns()
	if sample != nil {
		derived, err := DeriveColumns(*sample)
		if err != nil {
			var schemaErr *SchemaError
			if errors.As(err, &schemaErr) {
				schemaErr.Table = table
			}
			return nil, err
		}
		columns = derived
	}

	ddl := c.dialect.createTableSQL(table, columns)
	if err := c.db.WithContext(ctx).Exec(ddl).Error; err != nil {
		return nil, &SchemaError{Table: table, Err: fmt.Errorf("create table: %w", err)}
	}

	c.logger.Info("Created table %s with %d columns", table, len(columns))
	return &TableSchema{Name: table, Columns: columns}, nil
}

// Inspect reads the column set of an existing table.
func (c *Catalog) Inspect(ctx context.Context, table string) (*TableSchema, error) {
	types, err := c.db.WithContext(ctx).Migrator().ColumnTypes(table)
	if err != nil {
		return nil, &SchemaError{Table: table, Err: fmt.Errorf("inspect columns: %w", err)}
	}

	schema := &TableSchema{Name: table}
	for _, ct := range types {
		if strings.EqualFold(ct.Name(), models.ColumnRowID) {
			continue
		}
		nullable, ok := ct.Nullable()
		schema.Columns = append(schema.Columns, ColumnSpec{
			Name:     ct.Name(),
			Kind:     kindFromDatabaseType(ct.DatabaseTypeName()),
			Nullable: ok && nullable,
		})
	}

	if _, ok := schema.Column(models.ColumnProductID); !ok {
		return nil, &SchemaError{Table: table, Column: models.ColumnProductID, Err: errors.New("column missing from existing table")}
	}
	return schema, nil
}
