package neosocial

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Record is one projected result row, ready for JSON serialization.
type Record map[string]any

// Row is one result row with its columns in declaration order.
type Row struct {
	Keys   []string
	Values map[string]Value
}

// RowOf converts a driver record into a Row.
func RowOf(rec *neo4j.Record) Row {
	row := Row{Keys: rec.Keys, Values: make(map[string]Value, len(rec.Keys))}
	for i, key := range rec.Keys {
		if i < len(rec.Values) {
			row.Values[key] = ValueOf(rec.Values[i])
		}
	}
	return row
}

// Get returns the value of column, or Null when the column is absent.
func (r Row) Get(column string) Value {
	if v, ok := r.Values[column]; ok && v != nil {
		return v
	}
	return Null{}
}

// Project turns a row into a record holding only the keep columns.
//
// Nodes and relationships are both emitted as their property maps, lists of
// them as lists of property maps, integers stay int64 and temporal values
// become TimestampLayout strings. A column missing from the row is emitted as
// null.
//
// With no keep columns the first declared column is projected on its own: if
// it holds a node, the node's properties are the record itself rather than
// being nested under the column name. Single-entity endpoints rely on that
// shape.
func Project(row Row, keep ...string) Record {
	if len(keep) == 0 {
		if len(row.Keys) == 0 {
			return Record{}
		}
		first := row.Keys[0]
		v := row.Get(first)
		if node, ok := v.(Node); ok {
			return Record(plainProps(node.Props))
		}
		return Record{first: Plain(v)}
	}

	rec := make(Record, len(keep))
	for _, column := range keep {
		rec[column] = Plain(row.Get(column))
	}
	return rec
}

// ProjectAll projects every record of an eager result.
func ProjectAll(result *neo4j.EagerResult, keep ...string) []Record {
	if result == nil {
		return []Record{}
	}
	out := make([]Record, 0, len(result.Records))
	for _, rec := range result.Records {
		out = append(out, Project(RowOf(rec), keep...))
	}
	return out
}
