package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetric(t *testing.T) {
	for _, s := range []string{"cosine", "dot_product", "euclidean"} {
		m, err := ParseMetric(s)
		require.NoError(t, err)
		assert.Equal(t, Metric(s), m)
	}

	_, err := ParseMetric("manhattan")
	assert.Error(t, err)
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("pgvector")
	require.NoError(t, err)
	assert.Equal(t, BackendPgvector, b)

	_, err = ParseBackend("sqlite")
	assert.Error(t, err)
}

func TestMetricMappings(t *testing.T) {
	tests := []struct {
		metric     Metric
		opClass    string
		op         string
		similarity string
	}{
		{MetricCosine, "vector_cosine_ops", "<=>", "cosine"},
		{MetricDotProduct, "vector_ip_ops", "<#>", "dotProduct"},
		{MetricEuclidean, "vector_l2_ops", "<->", "euclidean"},
	}

	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			assert.Equal(t, tt.opClass, tt.metric.opClass())
			op, _ := tt.metric.distanceOperator()
			assert.Equal(t, tt.op, op)
			assert.Equal(t, tt.similarity, tt.metric.similarity())
		})
	}
}
