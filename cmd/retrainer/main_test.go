package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"cybercafe-demand-api/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushMetrics(t *testing.T) {
	var method, path string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.RetrainsTotal)
	metrics.RetrainsTotal.Inc()

	require.NoError(t, pushMetrics(srv.URL, "demand_retrainer", reg))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/demand_retrainer", path)
	assert.NotEmpty(t, body)
}

func TestPushMetricsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	assert.Error(t, pushMetrics(srv.URL, "demand_retrainer", prometheus.NewRegistry()))
}
