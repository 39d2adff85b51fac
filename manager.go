package neosocial

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"
)

const mergeRelationTmpl = `MATCH (a:%s {%s: $fromId})
MATCH (b:%s {%s: $toId})
MERGE (a)-[r:%s]->(b)
SET r += $props`

// PersistenceManager is the central orchestrator for the persistence layer.
// It provides access to repositories and cross-entity operations like
// creating relationships.
type PersistenceManager struct {
	runner DBRunner
	// metaCache stores parsed entityMetadata to avoid costly reflection on every call.
	metaCache sync.Map
}

// NewPersistenceManager creates a new instance of the PersistenceManager.
// runner may be a transaction runner, in which case every operation joins
// that transaction.
func NewPersistenceManager(runner DBRunner) *PersistenceManager {
	return &PersistenceManager{runner: runner}
}

// RepositoryFor is a generic function that creates and returns a repository
// for a specific struct type T, managed by the given PersistenceManager.
func RepositoryFor[T any](pm *PersistenceManager) (*Repository[T], error) {
	return NewRepository[T](pm.runner)
}

// CreateRelation creates a directed relationship between two existing entities in the database.
// It uses reflection to find the entities' primary keys and labels to build the query.
// Calling it twice creates two relationships; see MergeRelation.
func (pm *PersistenceManager) CreateRelation(ctx context.Context, fromEntity any, toEntity any, relType string, relProps map[string]interface{}) error {
	if !identifierPattern.MatchString(relType) {
		return &ValidationError{Field: "relType", Reason: fmt.Sprintf("%q is not an identifier", relType)}
	}
	fromMeta, fromPKVal, err := pm.getEntityMetaAndPK(fromEntity)
	if err != nil {
		return err
	}
	toMeta, toPKVal, err := pm.getEntityMetaAndPK(toEntity)
	if err != nil {
		return err
	}

	qb := gocypher.NewQueryBuilder().
		Match(gocypher.N("a", fromMeta.Label).WithProperties(map[string]interface{}{fromMeta.PKProp: fromPKVal})).
		Match(gocypher.N("b", toMeta.Label).WithProperties(map[string]interface{}{toMeta.PKProp: toPKVal})).
		Create(
			gocypher.N("a", ""), // Reference the 'a' alias without its label
			gocypher.R("r", relType).To().WithProperties(relProps),
			gocypher.N("b", ""), // Reference the 'b' alias without its label
		)

	query, params, err := qb.Build()
	if err != nil {
		return err
	}

	_, err = pm.runner.Run(ctx, query, params)
	return storeErr("create relation "+relType, query, err)
}

// MergeRelation is CreateRelation without duplicates: the relationship is
// created once and its properties are updated on later calls.
func (pm *PersistenceManager) MergeRelation(ctx context.Context, fromEntity any, toEntity any, relType string, relProps map[string]interface{}) error {
	if !identifierPattern.MatchString(relType) {
		return &ValidationError{Field: "relType", Reason: fmt.Sprintf("%q is not an identifier", relType)}
	}
	fromMeta, fromPKVal, err := pm.getEntityMetaAndPK(fromEntity)
	if err != nil {
		return err
	}
	toMeta, toPKVal, err := pm.getEntityMetaAndPK(toEntity)
	if err != nil {
		return err
	}
	if relProps == nil {
		relProps = map[string]interface{}{}
	}

	query := fmt.Sprintf(mergeRelationTmpl, fromMeta.Label, fromMeta.PKProp, toMeta.Label, toMeta.PKProp, relType)
	_, err = pm.runner.Run(ctx, query, map[string]interface{}{
		"fromId": fromPKVal,
		"toId":   toPKVal,
		"props":  relProps,
	})
	return storeErr("merge relation "+relType, query, err)
}

// getEntityMetaAndPK is an internal helper that retrieves an entity's metadata and primary key value.
// It uses a cache to optimize performance by avoiding repeated reflection.
func (pm *PersistenceManager) getEntityMetaAndPK(entity any) (*entityMetadata, any, error) {
	val := reflect.ValueOf(entity)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return nil, nil, fmt.Errorf("entity must be a non-nil pointer")
	}

	typ := val.Elem().Type()

	var meta *entityMetadata
	if cached, ok := pm.metaCache.Load(typ); ok {
		meta = cached.(*entityMetadata)
	} else {
		parsed, err := parseTagsFromType(typ)
		if err != nil {
			return nil, nil, err
		}
		pm.metaCache.Store(typ, parsed)
		meta = parsed
	}

	return meta, propertyValue(val.Elem().FieldByName(meta.PKField)), nil
}

// GraphNode is a node of a Subgraph.
type GraphNode struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// GraphEdge is a relationship of a Subgraph.
type GraphEdge struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Subgraph is the de-duplicated set of nodes and edges a query returned.
type Subgraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// FindGraph executes a graph query defined by a gocypher.QueryBuilder and
// collects every node and relationship it returns, in any column, inside
// paths or lists, into a Subgraph. Elements returned by several rows appear
// once. Property values are rendered the way the projector renders them.
//
// Returns:
//   - The Subgraph of the result.
//   - A *NotFoundError if the query returns zero records.
//   - A *StoreError if the query fails.
func (pm *PersistenceManager) FindGraph(ctx context.Context, qb *gocypher.QueryBuilder) (*Subgraph, error) {
	query, params, err := qb.Build()
	if err != nil {
		return nil, fmt.Errorf("could not build query: %w", err)
	}

	eagerResult, err := pm.runner.Run(ctx, query, params)
	if err != nil {
		return nil, storeErr("find graph", query, err)
	}
	if eagerResult == nil || len(eagerResult.Records) == 0 {
		return nil, &NotFoundError{Label: "graph"}
	}

	graph := &Subgraph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
	seen := make(map[string]bool)
	for _, record := range eagerResult.Records {
		for _, raw := range record.Values {
			graph.collect(ValueOf(raw), seen)
			if path, ok := raw.(neo4j.Path); ok {
				// ValueOf keeps only the nodes of a path.
				for _, rel := range path.Relationships {
					graph.collect(ValueOf(rel), seen)
				}
			}
		}
	}
	return graph, nil
}

func (g *Subgraph) collect(v Value, seen map[string]bool) {
	switch v := v.(type) {
	case Node:
		if !seen["n"+v.ElementID] {
			seen["n"+v.ElementID] = true
			g.Nodes = append(g.Nodes, GraphNode{ID: v.ElementID, Labels: v.Labels, Properties: plainProps(v.Props)})
		}
	case Relationship:
		if !seen["r"+v.ElementID] {
			seen["r"+v.ElementID] = true
			g.Edges = append(g.Edges, GraphEdge{
				ID:         v.ElementID,
				Source:     v.StartID,
				Target:     v.EndID,
				Type:       v.Type,
				Properties: plainProps(v.Props),
			})
		}
	case List:
		for _, item := range v {
			g.collect(item, seen)
		}
	case Map:
		for _, item := range v {
			g.collect(item, seen)
		}
	}
}
