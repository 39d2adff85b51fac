package neosocial

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"

	"github.com/saulfrancisco-ruizacevedo/go-neosocial/models"
)

// Labels and relationship types cannot be bound as Cypher parameters. The
// statements below interpolate them from Interaction descriptors, which
// Machine validates as plain identifiers before any write starts. Ids and
// every other value are bound parameters.
const (
	resolveTmpl = `MATCH (t:%s {id: $targetId})
OPTIONAL MATCH (a:User {id: $actorId})
%s
RETURN a.username AS actorName, coalesce(t.name, t.title, t.username, '') AS targetName, o.id AS ownerId
LIMIT 1`

	ownerByPropertyTmpl = `OPTIONAL MATCH (o:User {id: t.%s})`
	ownerByEdgeTmpl     = `OPTIONAL MATCH (o:User)-[:%s]->(t)`
	ownerIsTargetClause = `WITH a, t, t AS o`

	mergeEdgeTmpl = `MERGE (a:%s {id: $fromId})
MERGE (b:%s {id: $toId})
MERGE (a)-[r:%s]->(b)
ON CREATE SET r.timestamp = $timestamp`

	deleteEdgeTmpl = `OPTIONAL MATCH (a:%s {id: $fromId})-[r:%s]->(b:%s {id: $toId})
WITH collect(r) AS rels
FOREACH (rel IN rels | DELETE rel)
RETURN size(rels) AS deleted`

	countEdgesTmpl = `OPTIONAL MATCH (a:%s {id: $fromId})-[r:%s]->(b:%s {id: $toId})
RETURN count(r) AS total`

	mergeNotificationQuery = `MERGE (o:User {id: $ownerId})
MERGE (o)-[:NOTIFIED_BY]->(n:Notification {relatedEntityId: $relatedEntityId, notificationType: $notificationType})
ON CREATE SET n.id = $id, n.actorId = $actorId, n.message = $message, n.link = $link, n.read = false, n.createdAt = $createdAt`
)

// CypherWriter is the Neo4j implementation of GraphWriter.
type CypherWriter struct {
	runner  TxRunner
	metrics *Metrics
}

// NewCypherWriter creates a GraphWriter running each unit of work as one
// managed write transaction of runner.
func NewCypherWriter(runner TxRunner, opts ...Option) *CypherWriter {
	o := buildOptions(opts)
	return &CypherWriter{runner: runner, metrics: o.metrics}
}

// Write implements GraphWriter.
func (w *CypherWriter) Write(ctx context.Context, work func(ctx context.Context, tx WriteTx) error) error {
	return w.runner.ExecuteWrite(ctx, func(ctx context.Context, tx DBRunner) error {
		return work(ctx, &cypherTx{runner: tx, metrics: w.metrics})
	})
}

type cypherTx struct {
	runner  DBRunner
	metrics *Metrics
}

func (c *cypherTx) run(ctx context.Context, op, query string, params map[string]interface{}) (*neo4j.EagerResult, error) {
	start := time.Now()
	result, err := c.runner.Run(ctx, query, params)
	c.metrics.observeQuery(op, start, err)
	if err != nil {
		return nil, storeErr(op, query, err)
	}
	if result == nil {
		result = &neo4j.EagerResult{}
	}
	return result, nil
}

func (c *cypherTx) Resolve(ctx context.Context, actorID string, target EntityRef, owner OwnerRule) (Participants, bool, error) {
	ownerClause := ownerIsTargetClause
	switch {
	case owner.Property != "":
		ownerClause = fmt.Sprintf(ownerByPropertyTmpl, owner.Property)
	case owner.Edge != "":
		ownerClause = fmt.Sprintf(ownerByEdgeTmpl, owner.Edge)
	}
	query := fmt.Sprintf(resolveTmpl, target.Label, ownerClause)

	result, err := c.run(ctx, "resolve", query, map[string]interface{}{
		"targetId": target.ID,
		"actorId":  actorID,
	})
	if err != nil {
		return Participants{}, false, err
	}
	if len(result.Records) == 0 {
		return Participants{}, false, nil
	}
	row := RowOf(result.Records[0])
	return Participants{
		ActorName:  stringValue(row.Get("actorName")),
		TargetName: stringValue(row.Get("targetName")),
		OwnerID:    stringValue(row.Get("ownerId")),
	}, true, nil
}

func (c *cypherTx) MergeEdge(ctx context.Context, from EntityRef, edgeType string, to EntityRef, at time.Time) error {
	query := fmt.Sprintf(mergeEdgeTmpl, from.Label, to.Label, edgeType)
	_, err := c.run(ctx, "merge_edge", query, map[string]interface{}{
		"fromId":    from.ID,
		"toId":      to.ID,
		"timestamp": at.UTC(),
	})
	return err
}

func (c *cypherTx) DeleteEdge(ctx context.Context, from EntityRef, edgeType string, to EntityRef) (int64, error) {
	query := fmt.Sprintf(deleteEdgeTmpl, from.Label, edgeType, to.Label)
	result, err := c.run(ctx, "delete_edge", query, map[string]interface{}{
		"fromId": from.ID,
		"toId":   to.ID,
	})
	if err != nil {
		return 0, err
	}
	return firstInteger(result, "deleted"), nil
}

func (c *cypherTx) CountEdges(ctx context.Context, from EntityRef, edgeType string, to EntityRef) (int64, error) {
	query := fmt.Sprintf(countEdgesTmpl, from.Label, edgeType, to.Label)
	result, err := c.run(ctx, "count_edges", query, map[string]interface{}{
		"fromId": from.ID,
		"toId":   to.ID,
	})
	if err != nil {
		return 0, err
	}
	return firstInteger(result, "total"), nil
}

func (c *cypherTx) MergeNotification(ctx context.Context, key NotificationKey, n models.Notification) error {
	_, err := c.run(ctx, "merge_notification", mergeNotificationQuery, map[string]interface{}{
		"ownerId":          key.OwnerID,
		"relatedEntityId":  key.RelatedEntityID,
		"notificationType": string(key.Type),
		"actorId":          n.ActorID,
		"id":               n.ID,
		"message":          n.Message,
		"link":             n.Link,
		"createdAt":        n.CreatedAt,
	})
	return err
}

func (c *cypherTx) DeleteNotification(ctx context.Context, key NotificationKey) (int64, error) {
	query, params, err := gocypher.NewQueryBuilder().
		Match(
			gocypher.N("o", LabelUser).WithProperties(map[string]interface{}{"id": key.OwnerID}),
			gocypher.R("nb", EdgeNotifiedBy).To(),
			gocypher.N("n", LabelNotification).WithProperties(map[string]interface{}{
				"relatedEntityId":  key.RelatedEntityID,
				"notificationType": string(key.Type),
			}),
		).
		DetachDelete("n").
		Build()
	if err != nil {
		return 0, fmt.Errorf("could not build notification delete: %w", err)
	}

	result, err := c.run(ctx, "delete_notification", query, params)
	if err != nil {
		return 0, err
	}
	if result.Summary == nil {
		return 0, nil
	}
	return int64(result.Summary.Counters().NodesDeleted()), nil
}

func stringValue(v Value) string {
	if s, ok := v.(Scalar); ok {
		if str, ok := s.V.(string); ok {
			return str
		}
	}
	return ""
}

func firstInteger(result *neo4j.EagerResult, column string) int64 {
	if len(result.Records) == 0 {
		return 0
	}
	n, _ := RowOf(result.Records[0]).Get(column).(Integer)
	return int64(n)
}
