package cmd

import (
	"context"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

type fakeBatch struct {
	driver.Batch
}

func (b *fakeBatch) Append(...any) error { return nil }

func (b *fakeBatch) Send() error { return nil }

type fakeClickHouse struct {
	ddl     []string
	inserts []string
	closed  bool
}

func (c *fakeClickHouse) Exec(_ context.Context, query string, _ ...any) error {
	c.ddl = append(c.ddl, query)
	return nil
}

func (c *fakeClickHouse) PrepareBatch(
	_ context.Context,
	query string,
	_ ...driver.PrepareBatchOption,
) (driver.Batch, error) {
	c.inserts = append(c.inserts, query)
	return &fakeBatch{}, nil
}

func (c *fakeClickHouse) Close() error {
	c.closed = true
	return nil
}

// tables returns the names of the tables created through the connection.
func (c *fakeClickHouse) tables() []string {
	var names []string

	for _, ddl := range c.ddl {
		fields := strings.Fields(ddl)
		if len(fields) > 5 {
			names = append(names, fields[5])
		}
	}

	return names
}
