// Package neosocial is the graph data-access core of a social network
// backend on top of the official Neo4j Go driver.
//
// It turns heterogeneous Cypher result rows into JSON-ready records, derives
// paginated and counted variants of a single selection query, and applies
// toggleable social interactions (likes, follows, joins...) together with the
// notification each of them owns, inside one write transaction.
package neosocial

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// DBRunner defines the interface for a generic query executor.
// It abstracts the execution of a Cypher query, allowing for different implementations
// or mocking in tests.
type DBRunner interface {
	// Run executes a given Cypher query with parameters and returns a fully-buffered result.
	Run(ctx context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error)
}

// TxRunner is a DBRunner that can also group several statements into one
// server-side write transaction.
type TxRunner interface {
	DBRunner
	// ExecuteWrite runs work inside a single write transaction. The runner
	// handed to work is only valid until work returns. The driver may retry
	// work on transient failures, so it must be safe to run more than once.
	ExecuteWrite(ctx context.Context, work func(ctx context.Context, tx DBRunner) error) error
}

//---

// Neo4jExecutor is a concrete implementation of the TxRunner interface that uses the
// official Neo4j Go driver. It manages the driver instance and the target database name.
type Neo4jExecutor struct {
	Driver neo4j.DriverWithContext
	DBName string
}

// NewNeo4jExecutor creates and initializes a new Neo4jExecutor.
// It establishes a connection driver with the provided credentials.
//
// Parameters:
//   - uri: The connection URI for the Neo4j instance (e.g., "neo4j://localhost:7687").
//   - username: The username for authentication.
//   - password: The password for authentication.
//   - dbName: The name of the database to connect to (e.g., "neo4j").
//
// Returns:
//
//	A pointer to the newly created Neo4jExecutor or an error if the driver creation fails.
func NewNeo4jExecutor(uri, username, password, dbName string) (*Neo4jExecutor, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("could not create Neo4j driver: %w", err)
	}
	return &Neo4jExecutor{Driver: driver, DBName: dbName}, nil
}

// Verify checks the connectivity to the Neo4j database.
func (e *Neo4jExecutor) Verify(ctx context.Context) error {
	return e.Driver.VerifyConnectivity(ctx)
}

// Close releases the driver and every pooled connection.
func (e *Neo4jExecutor) Close(ctx context.Context) error {
	return e.Driver.Close(ctx)
}

// Run executes a Cypher query using ExecuteQuery, which acquires and releases
// a session and transaction per call.
//
// Parameters:
//   - ctx: The context for the query execution. Cancelling it aborts the query.
//   - query: The Cypher query string to execute.
//   - params: A map of parameters to be used in the query.
//
// Returns:
//
//	An EagerResult containing all buffered records from the query, or an error if
//	the execution fails.
func (e *Neo4jExecutor) Run(ctx context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(
		ctx,
		e.Driver,
		query,
		params,
		neo4j.EagerResultTransformer, // Buffers all results in memory before returning.
		neo4j.ExecuteQueryWithDatabase(e.DBName),
	)

	if err != nil {
		return nil, fmt.Errorf("error executing neo4j query: %w", err)
	}

	return result, nil
}

// ExecuteWrite opens a short-lived session and runs work in one managed
// write transaction on it.
func (e *Neo4jExecutor) ExecuteWrite(ctx context.Context, work func(ctx context.Context, tx DBRunner) error) error {
	session := e.Driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: e.DBName,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)
	return executeWrite(ctx, session, work)
}

// OpenScope acquires one session for the duration of a request. The caller
// must Close the scope, typically with defer, whatever the outcome.
func (e *Neo4jExecutor) OpenScope(ctx context.Context, mode neo4j.AccessMode) *Scope {
	return &Scope{session: e.Driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: e.DBName,
		AccessMode:   mode,
	})}
}

// Scope is a request-bound session. It is not safe for concurrent use, which
// matches the one-request-one-session model.
type Scope struct {
	session neo4j.SessionWithContext
}

// Run executes query in an auto-commit transaction on the scope's session.
func (s *Scope) Run(ctx context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error) {
	result, err := s.session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("error executing neo4j query: %w", err)
	}
	return collect(ctx, result)
}

// ExecuteWrite runs work in one managed write transaction on the scope's session.
func (s *Scope) ExecuteWrite(ctx context.Context, work func(ctx context.Context, tx DBRunner) error) error {
	return executeWrite(ctx, s.session, work)
}

// Close releases the session back to the driver pool.
func (s *Scope) Close(ctx context.Context) error {
	return s.session.Close(ctx)
}

func executeWrite(ctx context.Context, session neo4j.SessionWithContext, work func(ctx context.Context, tx DBRunner) error) error {
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, work(ctx, managedTx{tx: tx})
	})
	return err
}

// managedTx adapts a driver transaction to DBRunner.
type managedTx struct {
	tx neo4j.ManagedTransaction
}

func (m managedTx) Run(ctx context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error) {
	result, err := m.tx.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("error executing neo4j query: %w", err)
	}
	return collect(ctx, result)
}

func collect(ctx context.Context, result neo4j.ResultWithContext) (*neo4j.EagerResult, error) {
	keys, err := result.Keys()
	if err != nil {
		return nil, fmt.Errorf("error reading result keys: %w", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("error collecting records: %w", err)
	}
	summary, err := result.Consume(ctx)
	if err != nil {
		return nil, fmt.Errorf("error consuming result: %w", err)
	}
	return &neo4j.EagerResult{Keys: keys, Records: records, Summary: summary}, nil
}
