package neosocial

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Query is a Cypher statement with its bound parameters. Values supplied by
// users always travel in Params, never in Text.
type Query struct {
	Text   string
	Params map[string]any
}

// Graph is the read side of the core: it executes selection queries and
// projects their rows.
type Graph struct {
	runner  DBRunner
	logger  *zap.Logger
	metrics *Metrics
}

// Option configures a Graph or a Machine.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
	newID   func() string
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records query and transition metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock overrides the time source used for edge and notification timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides the generator of notification ids.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop(), now: time.Now, newID: newUUID}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewGraph creates a Graph reading through runner.
func NewGraph(runner DBRunner, opts ...Option) *Graph {
	o := buildOptions(opts)
	return &Graph{runner: runner, logger: o.logger, metrics: o.metrics}
}

func (g *Graph) run(ctx context.Context, op string, q Query) ([]Row, error) {
	start := time.Now()
	result, err := g.runner.Run(ctx, q.Text, q.Params)
	g.metrics.observeQuery(op, start, err)
	if err != nil {
		return nil, storeErr(op, q.Text, err)
	}
	if result == nil {
		return []Row{}, nil
	}
	rows := make([]Row, 0, len(result.Records))
	for _, rec := range result.Records {
		rows = append(rows, RowOf(rec))
	}
	return rows, nil
}

// Query executes q and projects every row onto keep (see Project).
// Failures are returned as *StoreError.
func (g *Graph) Query(ctx context.Context, q Query, keep ...string) ([]Record, error) {
	rows, err := g.run(ctx, "query", q)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, Project(row, keep...))
	}
	return out, nil
}

// QueryOne executes q and returns its single projected record. label names
// the entity in the NotFoundError returned for zero rows.
func (g *Graph) QueryOne(ctx context.Context, q Query, label string, keep ...string) (Record, error) {
	records, err := g.Query(ctx, q, keep...)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Label: label}
	}
	return records[0], nil
}

// QueryOrEmpty is Query for endpoints that treat a failure like an empty
// result. The failure is logged and an empty slice returned.
func (g *Graph) QueryOrEmpty(ctx context.Context, q Query, keep ...string) []Record {
	records, err := g.Query(ctx, q, keep...)
	if err != nil {
		g.logger.Error("graph query failed, returning empty result",
			zap.Error(err),
			zap.String("query", q.Text),
		)
		return []Record{}
	}
	return records
}

// QueryNested executes q and resolves the polymorphic column of every row
// (see ProjectNested).
func (g *Graph) QueryNested(ctx context.Context, q Query, keep []string, polymorphic string, inline []string) ([]Record, error) {
	rows, err := g.run(ctx, "query_nested", q)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, ProjectNested(row, keep, polymorphic, inline))
	}
	return out, nil
}
