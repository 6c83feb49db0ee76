package repository

import (
	"database/sql"
	"encoding/json"
)

// nullString converts a nullable column into a *string.
func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// nullUint64 converts a nullable id column into a *uint64.
func nullUint64(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}

// strArg passes a *string to the driver, nil becoming NULL.
func strArg(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// jsonList encodes a string list for a JSON column.  A nil list is
// stored as an empty array so reads never see NULL.
func jsonList(list []string) ([]byte, error) {
	if list == nil {
		list = []string{}
	}
	return json.Marshal(list)
}

// parseJSONList decodes a JSON column written by jsonList.  NULL and
// empty values decode to an empty list.
func parseJSONList(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
