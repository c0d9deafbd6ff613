package slabkit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}
	assert.Zero(t, m.GetStats().AllocAvgNanos)

	m.RecordAlloc(8, 10*time.Nanosecond, nil)
	m.RecordAlloc(8, 30*time.Nanosecond, errors.New("boom"))
	m.RecordFree(8, nil)
	m.RecordFree(8, ErrDoubleFree)
	m.RecordExhausted(8)

	s := m.GetStats()
	assert.Equal(t, int64(2), s.AllocCount)
	assert.Equal(t, int64(1), s.AllocErrors)
	assert.Equal(t, int64(20), s.AllocAvgNanos)
	assert.Equal(t, int64(2), s.FreeCount)
	assert.Equal(t, int64(1), s.FreeErrors)
	assert.Equal(t, int64(1), s.ExhaustedCount)
}

func TestNoopMetricsCollector(t *testing.T) {
	var m MetricsCollector = NoopMetricsCollector{}
	m.RecordAlloc(8, time.Second, nil)
	m.RecordFree(8, nil)
	m.RecordExhausted(8)
}
