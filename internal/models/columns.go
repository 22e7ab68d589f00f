package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

func (s StringSlice) Value() (driver.Value, error) {
	return marshalColumn([]string(s))
}

func (s *StringSlice) Scan(src any) error {
	return scanColumn(src, (*[]string)(s))
}

func (s IntSlice) Value() (driver.Value, error) {
	return marshalColumn([]int(s))
}

func (s *IntSlice) Scan(src any) error {
	return scanColumn(src, (*[]int)(s))
}

func scanColumn(src any, dst any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
