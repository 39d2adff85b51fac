package neosocial

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// TimestampLayout is the canonical rendering of every temporal value that
// leaves the projector.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Value is a graph result value. The set of implementations is closed; use a
// type switch over them.
type Value interface {
	isValue()
}

// Null is an absent or null column.
type Null struct{}

// Scalar holds a bool, float64, string, []byte or any driver value without
// a dedicated variant (points, durations).
type Scalar struct {
	V any
}

// Integer is a 64-bit counter or id. It never degrades to float64.
type Integer int64

// Temporal is any date/time value, normalized to time.Time.
type Temporal time.Time

// Node is a graph node.
type Node struct {
	ElementID string
	Labels    []string
	Props     map[string]Value
}

// Relationship is a directed, typed graph edge.
type Relationship struct {
	ElementID string
	Type      string
	StartID   string
	EndID     string
	Props     map[string]Value
}

// List is an ordered collection of values.
type List []Value

// Map is a literal map, typically a Cypher map projection such as
// {post: p, username: u.username}.
type Map map[string]Value

func (Null) isValue()         {}
func (Scalar) isValue()       {}
func (Integer) isValue()      {}
func (Temporal) isValue()     {}
func (Node) isValue()         {}
func (Relationship) isValue() {}
func (List) isValue()         {}
func (Map) isValue()          {}

// ValueOf converts a raw driver value into a Value.
func ValueOf(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Null{}
	case Value:
		return v
	case int64:
		return Integer(v)
	case int:
		return Integer(v)
	case int32:
		return Integer(v)
	case time.Time:
		return Temporal(v)
	case neo4j.Date:
		return Temporal(v.Time())
	case neo4j.LocalDateTime:
		return Temporal(v.Time())
	case neo4j.LocalTime:
		return Temporal(v.Time())
	case neo4j.Time:
		return Temporal(v.Time())
	case neo4j.Node:
		return Node{ElementID: v.ElementId, Labels: v.Labels, Props: valueMap(v.Props)}
	case neo4j.Relationship:
		return Relationship{
			ElementID: v.ElementId,
			Type:      v.Type,
			StartID:   v.StartElementId,
			EndID:     v.EndElementId,
			Props:     valueMap(v.Props),
		}
	case neo4j.Path:
		// A path projects as the list of its nodes.
		nodes := make(List, 0, len(v.Nodes))
		for _, n := range v.Nodes {
			nodes = append(nodes, ValueOf(n))
		}
		return nodes
	case []any:
		list := make(List, 0, len(v))
		for _, item := range v {
			list = append(list, ValueOf(item))
		}
		return list
	case map[string]any:
		return Map(valueMap(v))
	default:
		return Scalar{V: v}
	}
}

func valueMap(raw map[string]any) map[string]Value {
	out := make(map[string]Value, len(raw))
	for k, v := range raw {
		out[k] = ValueOf(v)
	}
	return out
}

// Plain converts a Value into JSON-ready Go data: nodes and relationships
// become their property maps, temporals become TimestampLayout strings.
func Plain(v Value) any {
	switch v := v.(type) {
	case nil, Null:
		return nil
	case Scalar:
		return v.V
	case Integer:
		return int64(v)
	case Temporal:
		return time.Time(v).UTC().Format(TimestampLayout)
	case Node:
		return plainProps(v.Props)
	case Relationship:
		return plainProps(v.Props)
	case List:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Plain(item)
		}
		return out
	case Map:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = embedded(item)
		}
		return out
	default:
		return nil
	}
}

// embedded renders a value held inside a literal map. Nodes and
// relationships keep their envelope there; ProjectNested is how callers
// flatten the ones they expect.
func embedded(v Value) any {
	switch v := v.(type) {
	case Node:
		return map[string]any{
			"elementId":  v.ElementID,
			"labels":     v.Labels,
			"properties": plainProps(v.Props),
		}
	case Relationship:
		return map[string]any{
			"elementId":  v.ElementID,
			"type":       v.Type,
			"properties": plainProps(v.Props),
		}
	default:
		return Plain(v)
	}
}

func plainProps(props map[string]Value) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = Plain(v)
	}
	return out
}
