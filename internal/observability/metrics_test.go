package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/dept/api/update/:id", "POST", 200, time.Millisecond)
	m.RecordRequest("/dept/api/update/:id", "POST", 200, time.Millisecond)
	m.RecordError("/dept/api/update/:id", "POST", "FORBIDDEN")
	m.RecordLedgerFailure("upsert")
	m.RecordNotificationFailure()

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/dept/api/update/:id|POST|200"])
	assert.Equal(t, int64(1), snap.Errors["/dept/api/update/:id|POST|FORBIDDEN"])
	assert.Equal(t, int64(1), snap.LedgerFailures["upsert"])
	assert.Equal(t, int64(1), snap.NotificationFailures)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordLedgerFailure("read")
	m.RecordNotificationFailure()
	assert.Empty(t, m.Snapshot().LedgerFailures)
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordLedgerFailure("upsert")
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), m.Snapshot().LedgerFailures["upsert"])
}
