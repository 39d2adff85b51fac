package neosocial

import (
	"slices"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ProjectNested projects row like Project but resolves one polymorphic
// column one level deep.
//
// The polymorphic column usually holds a map projection describing which of
// several entity kinds a saved/list item points to, for example
// {post: p, username: u.username} or {community: c, founder: f}. Its value
// becomes a property map, and every key named in inline that holds a node or
// relationship in that map is itself replaced by its property map. Keys not
// named in inline keep the raw node envelope. Nothing deeper is touched.
//
// A null polymorphic value stays null, which is how callers detect a
// deleted or missing related entity.
func ProjectNested(row Row, keep []string, polymorphic string, inline []string) Record {
	columns := keep
	if !slices.Contains(columns, polymorphic) {
		columns = append(slices.Clone(keep), polymorphic)
	}

	rec := make(Record, len(columns))
	for _, column := range columns {
		if column == polymorphic {
			rec[column] = resolvePolymorphic(row.Get(column), inline)
			continue
		}
		rec[column] = Plain(row.Get(column))
	}
	return rec
}

// ProjectAllNested applies ProjectNested to every record of an eager result.
func ProjectAllNested(result *neo4j.EagerResult, keep []string, polymorphic string, inline []string) []Record {
	if result == nil {
		return []Record{}
	}
	out := make([]Record, 0, len(result.Records))
	for _, rec := range result.Records {
		out = append(out, ProjectNested(RowOf(rec), keep, polymorphic, inline))
	}
	return out
}

func resolvePolymorphic(v Value, inline []string) any {
	switch v := v.(type) {
	case Null:
		return nil
	case Map:
		out := make(map[string]any, len(v))
		for key, inner := range v {
			if slices.Contains(inline, key) {
				out[key] = Plain(inner)
				continue
			}
			out[key] = embedded(inner)
		}
		return out
	default:
		return Plain(v)
	}
}
