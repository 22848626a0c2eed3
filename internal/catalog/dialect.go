package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type dialect struct {
	name string
}

func dialectFor(db *gorm.DB) dialect {
	return dialect{name: db.Dialector.Name()}
}

// quote assumes name already passed models.IsValidIdentifier.
func (d dialect) quote(name string) string {
	if d.name == "mysql" {
		return "`" + name + "`"
	}
	return pq.QuoteIdentifier(name)
}

func (d dialect) columnType(kind ColumnKind) string {
	switch d.name {
	case "mysql":
		switch kind {
		case KindInteger:
			return "BIGINT(20)"
		case KindFloat:
			return "FLOAT"
		case KindText:
			return "TEXT"
		case KindTimestamp:
			return "DATETIME"
		}
	case "postgres":
		switch kind {
		case KindInteger:
			return "BIGINT"
		case KindFloat:
			return "DOUBLE PRECISION"
		case KindText:
			return "TEXT"
		case KindTimestamp:
			return "TIMESTAMP"
		}
	default:
		switch kind {
		case KindInteger:
			return "INTEGER"
		case KindFloat:
			return "REAL"
		case KindText:
			return "TEXT"
		case KindTimestamp:
			return "DATETIME"
		}
	}
	return fmt.Sprintf("VARCHAR(%d)", BoundedStringLength)
}

func (d dialect) rowIDColumn() string {
	switch d.name {
	case "mysql":
		return d.quote("id") + " BIGINT(20) NOT NULL AUTO_INCREMENT"
	case "postgres":
		return d.quote("id") + " BIGSERIAL PRIMARY KEY"
	default:
		return d.quote("id") + " INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

func (d dialect) createTableSQL(table string, columns []ColumnSpec) string {
	defs := make([]string, 0, len(columns)+3)
	defs = append(defs, d.rowIDColumn())
	for _, c := range columns {
		def := d.quote(c.Name) + " " + d.columnType(c.Kind)
		if !c.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}

	productID := d.quote("product_id")
	var options string
	if d.name == "mysql" {
		defs = append(defs,
			"PRIMARY KEY ("+d.quote("id")+")",
			"UNIQUE KEY "+productID+" ("+productID+")",
		)
		options = " DEFAULT CHARSET=utf8mb4 COLLATE utf8mb4_unicode_ci"
	} else {
		defs = append(defs, "UNIQUE ("+productID+")")
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)%s",
		d.quote(table), strings.Join(defs, ",\n  "), options)
}

// timestampArg converts a normalized timestamp into a driver argument.
// SQLite stores DATETIME as text, so it gets the canonical string form.
func (d dialect) timestampArg(t time.Time) interface{} {
	if d.name == "sqlite" {
		return t.Format(TimestampLayout)
	}
	return t
}
