package database

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestPoolCollector_Describe(t *testing.T) {
	// Describe never touches the pool.
	c := NewPoolCollector(nil, "toolcatalog")
	var _ prometheus.Collector = c

	ch := make(chan *prometheus.Desc, 16)
	c.Describe(ch)
	close(ch)

	var all strings.Builder
	n := 0
	for d := range ch {
		all.WriteString(d.String())
		n++
	}
	assert.Equal(t, 8, n)

	for _, want := range []string{
		"toolcatalog_db_pool_acquired_connections",
		"toolcatalog_db_pool_idle_connections",
		"toolcatalog_db_pool_max_connections",
		"toolcatalog_db_pool_acquire_total",
		"toolcatalog_db_pool_canceled_acquire_total",
	} {
		assert.Contains(t, all.String(), `"`+want+`"`)
	}
}
