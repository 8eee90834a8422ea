package obs

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solverforge/chronicle-solver/search"
)

func TestObserveAddsStatisticsToCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test")

	m.Observe(search.Statistics{
		Decisions:      5,
		Conflicts:      3,
		Restarts:       1,
		LearnedClauses: 2,
		DeletedClauses: 1,
	})

	var out dto.Metric
	require.NoError(t, m.Conflicts.Write(&out))
	assert.Equal(t, float64(3), out.GetCounter().GetValue())
}

func TestNewLoggerHonorsLevel(t *testing.T) {
	entry := NewLogger(logrus.DebugLevel)
	assert.Equal(t, logrus.DebugLevel, entry.Logger.GetLevel())
	assert.Equal(t, "chronicle-solver", entry.Data["component"])
}
