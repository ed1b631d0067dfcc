package routestats

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestClient_FlushBatch(t *testing.T) {
	client, mr := testClient(t)

	batch := NewBatch("finance/transactions")
	batch.Add(25)
	batch.Add(10)

	require.NoError(t, client.FlushBatch(context.Background(), batch))

	key := "refinery:routestats:finance/transactions"
	assert.Equal(t, "35", mr.HGet(key, "records"))
	assert.Equal(t, "2", mr.HGet(key, "objects"))
	assert.NotEmpty(t, mr.HGet(key, "last_write"))
}

func TestClient_FlushBatchAccumulates(t *testing.T) {
	client, mr := testClient(t)

	first := NewBatch("hr/employees")
	first.Add(5)
	require.NoError(t, client.FlushBatch(context.Background(), first))

	second := NewBatch("hr/employees")
	second.Add(7)
	require.NoError(t, client.FlushBatch(context.Background(), second))

	assert.Equal(t, "12", mr.HGet("refinery:routestats:hr/employees", "records"))
}

func TestCollector_RecordAndFlush(t *testing.T) {
	client, mr := testClient(t)

	collector := NewCollector(client, time.Hour, nil)
	defer collector.Stop()

	collector.Record("finance/transactions", 100)
	collector.Record("finance/transactions", 50)
	collector.Record("hr/employees", 3)

	stats := collector.Stats()
	assert.Equal(t, int64(150), stats["finance/transactions"])
	assert.Equal(t, int64(3), stats["hr/employees"])

	collector.FlushNow()

	assert.Equal(t, "150", mr.HGet("refinery:routestats:finance/transactions", "records"))
	assert.Equal(t, "2", mr.HGet("refinery:routestats:finance/transactions", "objects"))
	assert.Equal(t, "3", mr.HGet("refinery:routestats:hr/employees", "records"))

	// Accumulated stats reset after a successful flush
	assert.Empty(t, collector.Stats())
}

func TestBatch_Merge(t *testing.T) {
	a := NewBatch("r")
	a.Add(1)
	b := NewBatch("r")
	b.Add(2)
	b.Add(3)

	a.Merge(b)

	assert.Equal(t, int64(6), a.Records)
	assert.Equal(t, int64(3), a.Objects)
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := NewClient("not-a-url")
	assert.Error(t, err)
}
