package neosocial

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saulfrancisco-ruizacevedo/go-neosocial/models"
)

func TestMergeRelation(t *testing.T) {
	runner := &recordingRunner{}
	pm := NewPersistenceManager(runner)

	list := &models.List{ID: "l1", UserID: "u1"}
	item := &models.ListItem{ID: "li1", ListID: "l1", PostID: ref("p1")}
	require.NoError(t, pm.MergeRelation(context.Background(), list, item, EdgeContains, nil))
	// The second call hits the type cache.
	require.NoError(t, pm.MergeRelation(context.Background(), list, item, EdgeContains, map[string]interface{}{"pinned": true}))

	require.Len(t, runner.calls, 2)
	assert.Equal(t, "MATCH (a:List {id: $fromId})\nMATCH (b:ListItem {id: $toId})\nMERGE (a)-[r:CONTAINS]->(b)\nSET r += $props", runner.calls[0].query)
	assert.Equal(t, map[string]interface{}{"fromId": "l1", "toId": "li1", "props": map[string]interface{}{}}, runner.calls[0].params)
	assert.Equal(t, map[string]interface{}{"pinned": true}, runner.calls[1].params["props"])
}

func TestMergeRelationRejects(t *testing.T) {
	pm := NewPersistenceManager(&recordingRunner{})

	err := pm.MergeRelation(context.Background(), &models.List{ID: "l1"}, &models.ListItem{ID: "li1"}, "CONTAINS]->() DELETE a //", nil)
	assert.ErrorIs(t, err, ErrValidation)

	err = pm.MergeRelation(context.Background(), models.List{ID: "l1"}, &models.ListItem{ID: "li1"}, EdgeContains, nil)
	assert.Error(t, err, "entities must be pointers")
}

func TestCreateRelation(t *testing.T) {
	runner := &recordingRunner{}
	pm := NewPersistenceManager(runner)

	err := pm.CreateRelation(context.Background(), &models.User{ID: "u1"}, &models.Post{ID: "p1"}, EdgePosted, map[string]interface{}{"at": "now"})
	require.NoError(t, err)
	require.Len(t, runner.calls, 1)
	assert.Contains(t, runner.calls[0].query, EdgePosted)

	err = pm.CreateRelation(context.Background(), &models.User{ID: "u1"}, &models.Post{ID: "p1"}, "POSTED]->() DELETE a //", nil)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, runner.calls, 1)
}

func TestFindGraph(t *testing.T) {
	alice := node("4:a", []string{"User"}, map[string]any{"id": "u1"})
	p1 := node("4:p1", []string{"Post"}, map[string]any{"id": "p1", "createdAt": fixedNow})
	p2 := node("4:p2", []string{"Post"}, map[string]any{"id": "p2"})
	posted := func(id string, end neo4j.Node) neo4j.Relationship {
		return neo4j.Relationship{ElementId: id, Type: "POSTED", StartElementId: alice.ElementId, EndElementId: end.ElementId}
	}

	runner := &recordingRunner{results: []*neo4j.EagerResult{
		result([]string{"u", "r", "p"},
			[]any{alice, posted("5:1", p1), p1},
			[]any{alice, posted("5:2", p2), p2},
			[]any{neo4j.Path{Nodes: []neo4j.Node{alice, p1}, Relationships: []neo4j.Relationship{posted("5:1", p1)}}, nil, []any{p2}},
		),
	}}
	pm := NewPersistenceManager(runner)

	qb := gocypher.NewQueryBuilder().
		Match(gocypher.N("u", "User").WithProperties(map[string]interface{}{"id": "u1"})).
		Return("u")
	graph, err := pm.FindGraph(context.Background(), qb)
	require.NoError(t, err)

	require.Len(t, graph.Nodes, 3)
	require.Len(t, graph.Edges, 2)
	assert.Equal(t, GraphNode{ID: "4:a", Labels: []string{"User"}, Properties: map[string]any{"id": "u1"}}, graph.Nodes[0])
	assert.Equal(t, "2024-05-06T07:08:09.000Z", graph.Nodes[1].Properties["createdAt"])
	assert.Equal(t, GraphEdge{ID: "5:2", Source: "4:a", Target: "4:p2", Type: "POSTED", Properties: map[string]any{}}, graph.Edges[1])
}

func TestFindGraphEmpty(t *testing.T) {
	pm := NewPersistenceManager(&recordingRunner{})
	qb := gocypher.NewQueryBuilder().Match(gocypher.N("u", "User")).Return("u")

	_, err := pm.FindGraph(context.Background(), qb)
	assert.ErrorIs(t, err, ErrNotFound)
}
