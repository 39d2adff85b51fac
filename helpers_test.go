package neosocial

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/mock"

	"github.com/saulfrancisco-ruizacevedo/go-neosocial/session"
)

// mockRunner is a testify mock of TxRunner. ExecuteWrite hands the mock
// itself to the work function, so statements issued inside and outside a
// transaction share one set of expectations.
type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error) {
	args := m.Called(ctx, query, params)
	result, _ := args.Get(0).(*neo4j.EagerResult)
	return result, args.Error(1)
}

func (m *mockRunner) ExecuteWrite(ctx context.Context, work func(ctx context.Context, tx DBRunner) error) error {
	return work(ctx, m)
}

// call is one statement seen by recordingRunner.
type call struct {
	query  string
	params map[string]interface{}
}

// recordingRunner records every statement and answers each with the next
// scripted result, or an empty one when the script is exhausted.
type recordingRunner struct {
	calls   []call
	results []*neo4j.EagerResult
	err     error
}

func (r *recordingRunner) Run(_ context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error) {
	r.calls = append(r.calls, call{query: query, params: params})
	if r.err != nil {
		return nil, r.err
	}
	if len(r.results) == 0 {
		return &neo4j.EagerResult{}, nil
	}
	next := r.results[0]
	r.results = r.results[1:]
	return next, nil
}

func (r *recordingRunner) ExecuteWrite(ctx context.Context, work func(ctx context.Context, tx DBRunner) error) error {
	return work(ctx, r)
}

// result builds an eager result whose records all share keys.
func result(keys []string, rows ...[]any) *neo4j.EagerResult {
	res := &neo4j.EagerResult{Keys: keys}
	for _, values := range rows {
		res.Records = append(res.Records, &neo4j.Record{Keys: keys, Values: values})
	}
	return res
}

func row(keys []string, values ...any) Row {
	return RowOf(&neo4j.Record{Keys: keys, Values: values})
}

func node(id string, labels []string, props map[string]any) neo4j.Node {
	return neo4j.Node{ElementId: id, Labels: labels, Props: props}
}

func asActor(id, username string) context.Context {
	return session.WithActor(context.Background(), session.Actor{ID: id, Username: username})
}

// fakeSummary and fakeCounters stub the parts of the driver summary the
// package reads.
type fakeSummary struct {
	neo4j.ResultSummary
	counters fakeCounters
}

func (s fakeSummary) Counters() neo4j.Counters { return s.counters }

type fakeCounters struct {
	neo4j.Counters
	nodesDeleted int
}

func (c fakeCounters) NodesDeleted() int { return c.nodesDeleted }
