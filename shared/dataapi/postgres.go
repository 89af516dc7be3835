package dataapi

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cdkworkshop/accounts/shared/utils"
	_ "github.com/lib/pq"
)

const (
	statusCommitted   = "Transaction Committed"
	statusRolledBack  = "Rollback Complete"
	transactionPrefix = "txn"
)

// PostgresClient serves the Client contract from a PostgreSQL database
// reached directly over database/sql. It exists for local development and
// integration environments where the managed Data API is not available.
// Transactions opened through it are held until committed or rolled back.
type PostgresClient struct {
	db *sql.DB

	mu  sync.Mutex
	txs map[string]*sql.Tx
}

var _ Client = (*PostgresClient)(nil)

func NewPostgresClient(db *sql.DB) *PostgresClient {
	return &PostgresClient{db: db, txs: make(map[string]*sql.Tx)}
}

// OpenPostgres connects with the lib/pq driver and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresClient, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPostgresClient(db), nil
}

// Close rolls back any transaction still open and closes the pool.
func (c *PostgresClient) Close() error {
	c.mu.Lock()
	for id, tx := range c.txs {
		_ = tx.Rollback()
		delete(c.txs, id)
	}
	c.mu.Unlock()
	return c.db.Close()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (c *PostgresClient) ExecuteStatement(ctx context.Context, req Request) (*StatementResult, error) {
	query, args, err := bindNamedParameters(req.SQL, req.Parameters)
	if err != nil {
		return nil, err
	}

	var q queryer = c.db
	if req.TransactionID != "" {
		tx, ok := c.lookup(req.TransactionID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTransaction, req.TransactionID)
		}
		q = tx
	}

	if !returnsRows(query) {
		res, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to check rows affected: %w", err)
		}
		return &StatementResult{Records: []Row{}, NumberOfRecordsUpdated: n}, nil
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	result := &StatementResult{Records: []Row{}}
	for rows.Next() {
		values := make([]any, len(colTypes))
		ptrs := make([]any, len(colTypes))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(Row, len(values))
		for i, v := range values {
			row[i] = fromDriverValue(v, colTypes[i].DatabaseTypeName())
		}
		result.Records = append(result.Records, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *PostgresClient) BeginTransaction(ctx context.Context, _ TransactionRequest) (string, error) {
	// The transaction outlives the request that opened it.
	tx, err := c.db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return "", err
	}
	id := utils.GenerateID(transactionPrefix)
	c.mu.Lock()
	c.txs[id] = tx
	c.mu.Unlock()
	return id, nil
}

func (c *PostgresClient) CommitTransaction(_ context.Context, req TransactionRequest) (string, error) {
	tx, ok := c.take(req.TransactionID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTransaction, req.TransactionID)
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return statusCommitted, nil
}

func (c *PostgresClient) RollbackTransaction(_ context.Context, req TransactionRequest) (string, error) {
	tx, ok := c.take(req.TransactionID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTransaction, req.TransactionID)
	}
	if err := tx.Rollback(); err != nil {
		return "", err
	}
	return statusRolledBack, nil
}

func (c *PostgresClient) lookup(id string) (*sql.Tx, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tx, ok := c.txs[id]
	return tx, ok
}

func (c *PostgresClient) take(id string) (*sql.Tx, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tx, ok := c.txs[id]
	if ok {
		delete(c.txs, id)
	}
	return tx, ok
}

// bindNamedParameters rewrites :name placeholders into PostgreSQL's $n form.
// Quoted text and :: casts are left alone. A name used twice reuses its
// position. Every parameter must be referenced and every placeholder bound.
func bindNamedParameters(query string, params []NamedParameter) (string, []any, error) {
	values := make(map[string]TypedValue, len(params))
	for _, p := range params {
		values[p.Name] = p.Value
	}

	positions := make(map[string]int, len(params))
	var args []any
	var b strings.Builder
	b.Grow(len(query))

	var quote byte
	for i := 0; i < len(query); i++ {
		ch := query[i]
		if quote != 0 {
			b.WriteByte(ch)
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch {
		case ch == '\'' || ch == '"':
			quote = ch
			b.WriteByte(ch)
		case ch == ':' && i+1 < len(query) && query[i+1] == ':':
			b.WriteString("::")
			i++
		case ch == ':' && i+1 < len(query) && isIdentStart(query[i+1]):
			j := i + 1
			for j < len(query) && isIdentPart(query[j]) {
				j++
			}
			name := query[i+1 : j]
			pos, seen := positions[name]
			if !seen {
				v, ok := values[name]
				if !ok {
					return "", nil, fmt.Errorf("%w: %s", ErrMissingParameter, name)
				}
				args = append(args, toDriverValue(v))
				pos = len(args)
				positions[name] = pos
			}
			b.WriteString("$" + strconv.Itoa(pos))
			i = j - 1
		default:
			b.WriteByte(ch)
		}
	}

	for name := range values {
		if _, ok := positions[name]; !ok {
			return "", nil, fmt.Errorf("parameter %q is not referenced by the statement", name)
		}
	}
	return b.String(), args, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

var rowKeywords = map[string]bool{
	"SELECT": true, "WITH": true, "VALUES": true, "SHOW": true, "TABLE": true, "EXPLAIN": true,
}

func returnsRows(query string) bool {
	words := strings.Fields(strings.ToUpper(query))
	if len(words) == 0 {
		return false
	}
	if rowKeywords[strings.TrimLeft(words[0], "(")] {
		return true
	}
	for _, w := range words {
		if w == "RETURNING" {
			return true
		}
	}
	return false
}

func toDriverValue(v TypedValue) any {
	switch v := v.(type) {
	case StringValue:
		return string(v)
	case LongValue:
		return int64(v)
	case DoubleValue:
		return float64(v)
	case BooleanValue:
		return bool(v)
	case BlobValue:
		return []byte(v)
	default:
		return nil
	}
}

func fromDriverValue(v any, dbType string) TypedValue {
	switch v := v.(type) {
	case nil:
		return NullValue{}
	case string:
		return StringValue(v)
	case []byte:
		if dbType == "BYTEA" {
			return BlobValue(v)
		}
		return StringValue(v)
	case int64:
		return LongValue(v)
	case float64:
		return DoubleValue(v)
	case bool:
		return BooleanValue(v)
	case time.Time:
		return StringValue(v.Format(time.RFC3339Nano))
	default:
		return StringValue(fmt.Sprint(v))
	}
}
