package models

import (
	"database/sql/driver"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringArray is a text[] column on PostgreSQL. Other dialects store the
// same array literal in a text column.
type StringArray []string

// Value implements driver.Valuer
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	return pq.StringArray(a).Value()
}

// Scan implements sql.Scanner
func (a *StringArray) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*a = StringArray(arr)
	return nil
}

// GormDataType implements schema.GormDataTypeInterface
func (StringArray) GormDataType() string {
	return "text[]"
}

// GormDBDataType picks the column type per dialect
func (StringArray) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// UUIDsToStrings converts ids for array storage, preserving order
func UUIDsToStrings(ids []uuid.UUID) StringArray {
	out := make(StringArray, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// StringsToUUIDs parses stored ids, skipping malformed entries
func StringsToUUIDs(values StringArray) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		if id, err := uuid.Parse(v); err == nil {
			out = append(out, id)
		}
	}
	return out
}
