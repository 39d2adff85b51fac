package neosocial

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/saulfrancisco-ruizacevedo/go-neosocial/models"
)

type edgeKey struct {
	from EntityRef
	typ  string
	to   EntityRef
}

// memGraph is an in-memory GraphWriter. Every Write works on a copy of the
// state and only publishes it when the work function succeeds, which gives
// the all-or-nothing behavior of a real transaction.
type memGraph struct {
	nodes         map[EntityRef]map[string]any
	edges         map[edgeKey]int64
	notifications map[NotificationKey]models.Notification

	// failOn makes the named WriteTx operation fail once its call count
	// within a Write reaches failAfter.
	failOn    string
	failAfter int
}

var errInjected = errors.New("injected failure")

func newMemGraph() *memGraph {
	return &memGraph{
		nodes:         map[EntityRef]map[string]any{},
		edges:         map[edgeKey]int64{},
		notifications: map[NotificationKey]models.Notification{},
	}
}

func (g *memGraph) addNode(label, id string, props map[string]any) *memGraph {
	if props == nil {
		props = map[string]any{}
	}
	g.nodes[EntityRef{Label: label, ID: id}] = props
	return g
}

func (g *memGraph) addEdge(fromLabel, fromID, typ, toLabel, toID string) *memGraph {
	g.edges[edgeKey{EntityRef{fromLabel, fromID}, typ, EntityRef{toLabel, toID}}]++
	return g
}

func (g *memGraph) edgeCount(fromLabel, fromID, typ, toLabel, toID string) int64 {
	return g.edges[edgeKey{EntityRef{fromLabel, fromID}, typ, EntityRef{toLabel, toID}}]
}

// notificationsFor returns the live notifications of owner with type typ.
func (g *memGraph) notificationsFor(owner string, typ models.NotificationType) []models.Notification {
	var out []models.Notification
	for key, n := range g.notifications {
		if key.OwnerID == owner && key.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

type memState struct {
	edges         map[edgeKey]int64
	notifications map[NotificationKey]models.Notification
	nodes         map[EntityRef]map[string]any
}

func (g *memGraph) snapshot() memState {
	return memState{
		edges:         maps.Clone(g.edges),
		notifications: maps.Clone(g.notifications),
		nodes:         maps.Clone(g.nodes),
	}
}

func (g *memGraph) Write(ctx context.Context, work func(ctx context.Context, tx WriteTx) error) error {
	before := g.snapshot()
	tx := &memTx{g: g, calls: map[string]int{}}
	if err := work(ctx, tx); err != nil {
		g.edges, g.notifications, g.nodes = before.edges, before.notifications, before.nodes
		return err
	}
	return nil
}

type memTx struct {
	g     *memGraph
	calls map[string]int
}

func (t *memTx) fail(op string) error {
	t.calls[op]++
	if t.g.failOn == op && t.calls[op] >= t.g.failAfter {
		return errInjected
	}
	return nil
}

func (t *memTx) Resolve(_ context.Context, actorID string, target EntityRef, owner OwnerRule) (Participants, bool, error) {
	if err := t.fail("resolve"); err != nil {
		return Participants{}, false, err
	}
	props, ok := t.g.nodes[target]
	if !ok {
		return Participants{}, false, nil
	}

	p := Participants{}
	if actor, ok := t.g.nodes[EntityRef{LabelUser, actorID}]; ok {
		p.ActorName, _ = actor["username"].(string)
	}
	for _, name := range []string{"name", "title", "username"} {
		if v, _ := props[name].(string); v != "" {
			p.TargetName = v
			break
		}
	}

	switch {
	case owner.Property != "":
		id, _ := props[owner.Property].(string)
		if _, exists := t.g.nodes[EntityRef{LabelUser, id}]; exists {
			p.OwnerID = id
		}
	case owner.Edge != "":
		for key, n := range t.g.edges {
			if n > 0 && key.typ == owner.Edge && key.to == target && key.from.Label == LabelUser {
				p.OwnerID = key.from.ID
			}
		}
	default:
		p.OwnerID = target.ID
	}
	return p, true, nil
}

func (t *memTx) MergeEdge(_ context.Context, from EntityRef, edgeType string, to EntityRef, _ time.Time) error {
	if err := t.fail("merge_edge"); err != nil {
		return err
	}
	for _, ref := range []EntityRef{from, to} {
		if _, ok := t.g.nodes[ref]; !ok {
			t.g.nodes[ref] = map[string]any{}
		}
	}
	key := edgeKey{from, edgeType, to}
	if t.g.edges[key] == 0 {
		t.g.edges[key] = 1
	}
	return nil
}

func (t *memTx) DeleteEdge(_ context.Context, from EntityRef, edgeType string, to EntityRef) (int64, error) {
	if err := t.fail("delete_edge"); err != nil {
		return 0, err
	}
	key := edgeKey{from, edgeType, to}
	n := t.g.edges[key]
	delete(t.g.edges, key)
	return n, nil
}

func (t *memTx) CountEdges(_ context.Context, from EntityRef, edgeType string, to EntityRef) (int64, error) {
	if err := t.fail("count_edges"); err != nil {
		return 0, err
	}
	return t.g.edges[edgeKey{from, edgeType, to}], nil
}

func (t *memTx) MergeNotification(_ context.Context, key NotificationKey, n models.Notification) error {
	if err := t.fail("merge_notification"); err != nil {
		return err
	}
	if _, exists := t.g.notifications[key]; !exists {
		t.g.notifications[key] = n
	}
	return nil
}

func (t *memTx) DeleteNotification(_ context.Context, key NotificationKey) (int64, error) {
	if err := t.fail("delete_notification"); err != nil {
		return 0, err
	}
	if _, exists := t.g.notifications[key]; !exists {
		return 0, nil
	}
	delete(t.g.notifications, key)
	return 1, nil
}
