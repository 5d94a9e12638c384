package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestActionsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewActions(reg)

	a.Observe("send_message", "ok", 10*time.Millisecond)
	a.Observe("send_message", "ok", 20*time.Millisecond)
	a.Observe("send_message", "not_found", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.total.WithLabelValues("send_message", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.total.WithLabelValues("send_message", "not_found")))
	assert.Equal(t, 1, testutil.CollectAndCount(a.duration))
}
