package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// RawRow is one source line keyed by the column header as it appeared in the file.
// It is produced by the tabular reader (or decoded from a JSON request) and consumed once.
type RawRow map[string]string

// RawRowFromAny converts a loosely-typed JSON object into a RawRow.
// Numbers keep their shortest textual form so "10" and 10 resolve identically.
func RawRowFromAny(in map[string]any) RawRow {
	row := make(RawRow, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case nil:
			row[k] = ""
		case string:
			row[k] = val
		case float64:
			row[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case json.Number:
			row[k] = val.String()
		case bool:
			row[k] = strconv.FormatBool(val)
		default:
			row[k] = fmt.Sprint(val)
		}
	}
	return row
}

// SortedKeys returns the column labels in lexical order.
func (r RawRow) SortedKeys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
