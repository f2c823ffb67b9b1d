package datarecording

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/tebeka/atexit"
)

// ClickHouseOptions tells a ClickHouse recorder where to connect.
type ClickHouseOptions struct {
	Host      string
	Port      int
	Database  string
	Username  string
	Password  string
	BatchSize int
}

// ClickHouseConn is the part of a ClickHouse connection the recorder uses.
// driver.Conn satisfies it.
type ClickHouseConn interface {
	Exec(ctx context.Context, query string, args ...any) error
	PrepareBatch(
		ctx context.Context,
		query string,
		opts ...driver.PrepareBatchOption,
	) (driver.Batch, error)
	Close() error
}

// ClickHouseRecorder is a DataRecorder that sends its batches to a ClickHouse
// server over the native protocol.
type ClickHouseRecorder struct {
	conn      ClickHouseConn
	mu        sync.Mutex
	batchSize int

	tables     map[string]*table
	entryCount int
}

// NewClickHouse connects to a ClickHouse server and returns a recorder that
// writes into it. It panics if the server cannot be reached.
func NewClickHouse(opts ClickHouseOptions) *ClickHouseRecorder {
	if opts.BatchSize == 0 {
		opts.BatchSize = defaultBatchSize
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", opts.Host, opts.Port)},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:      30 * time.Second,
		MaxOpenConns:     5,
		MaxIdleConns:     5,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	})
	if err != nil {
		panic(fmt.Errorf("failed to connect to ClickHouse: %w", err))
	}

	if err := conn.Ping(context.Background()); err != nil {
		panic(fmt.Errorf("failed to ping ClickHouse: %w", err))
	}

	r := NewClickHouseWithConn(conn, opts.BatchSize)

	atexit.Register(func() { r.Flush() })

	return r
}

// NewClickHouseWithConn creates a recorder over an open connection. A
// batchSize of 0 selects the default.
func NewClickHouseWithConn(
	conn ClickHouseConn,
	batchSize int,
) *ClickHouseRecorder {
	if batchSize == 0 {
		batchSize = defaultBatchSize
	}

	return &ClickHouseRecorder{
		conn:      conn,
		batchSize: batchSize,
		tables:    make(map[string]*table),
	}
}

// CreateTable creates a MergeTree table ordered by the first column.
func (r *ClickHouseRecorder) CreateTable(tableName string, sampleEntry any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ddl, err := clickHouseDDL(tableName, sampleEntry)
	if err != nil {
		panic(err)
	}

	if err := r.conn.Exec(context.Background(), ddl); err != nil {
		panic(fmt.Errorf("failed to create table %s: %w", tableName, err))
	}

	cols, _ := columnsOf(sampleEntry)
	r.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
		columns:    cols,
	}
}

// InsertData buffers an entry and flushes when the batch is full.
func (r *ClickHouseRecorder) InsertData(tableName string, entry any) {
	r.mu.Lock()
	table := mustFindTable(r.tables, tableName, entry)
	table.entries = append(table.entries, entry)
	r.entryCount++
	full := r.entryCount >= r.batchSize
	r.mu.Unlock()

	if full {
		r.Flush()
	}
}

// ListTables returns the names of the tables created so far.
func (r *ClickHouseRecorder) ListTables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return tableNames(r.tables)
}

// Flush sends one batch per non-empty table.
func (r *ClickHouseRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entryCount == 0 {
		return
	}

	ctx := context.Background()

	for tableName, table := range r.tables {
		if len(table.entries) == 0 {
			continue
		}

		batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO "+tableName)
		if err != nil {
			panic(fmt.Errorf("failed to prepare batch for %s: %w",
				tableName, err))
		}

		for _, entry := range table.entries {
			if err := batch.Append(fieldValues(entry)...); err != nil {
				panic(fmt.Errorf("failed to append to %s: %w", tableName, err))
			}
		}

		if err := batch.Send(); err != nil {
			panic(fmt.Errorf("failed to send batch for %s: %w", tableName, err))
		}

		table.entries = nil
	}

	r.entryCount = 0
}

// Close flushes the pending entries and closes the connection.
func (r *ClickHouseRecorder) Close() error {
	r.Flush()
	return r.conn.Close()
}

func clickHouseType(kind reflect.Kind) string {
	switch kind {
	case reflect.Bool:
		return "Bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Int64:
		return "Int64"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return "UInt64"
	case reflect.Float32, reflect.Float64:
		return "Float64"
	default:
		return "String"
	}
}

func clickHouseDDL(tableName string, sampleEntry any) (string, error) {
	cols, err := columnsOf(sampleEntry)
	if err != nil {
		return "", err
	}

	if len(cols) == 0 {
		return "", fmt.Errorf("%w: %T has no fields", ErrInvalidEntry, sampleEntry)
	}

	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = c.name + " " + clickHouseType(c.kind)
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s\n) ENGINE = MergeTree()\nORDER BY %s",
		tableName, strings.Join(defs, ",\n\t"), cols[0].name,
	), nil
}

var _ DataRecorder = (*ClickHouseRecorder)(nil)
