package metrics_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/ridekit/internal/pkg/metrics"
)

func family(t *testing.T, name string) *dto.MetricFamily {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func hasLabels(f *dto.MetricFamily, want map[string]string) bool {
	if f == nil {
		return false
	}
	for _, m := range f.GetMetric() {
		got := map[string]string{}
		for _, l := range m.GetLabel() {
			got[l.GetName()] = l.GetValue()
		}
		match := true
		for k, v := range want {
			if got[k] != v {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())
	app.Get("/things/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/things/42", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/wp-admin.php", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 404, resp.StatusCode)

	f := family(t, "ridekit_http_requests_total")
	assert.True(t, hasLabels(f, map[string]string{"method": "GET", "path": "/things/:id", "status": "200"}))
	assert.True(t, hasLabels(f, map[string]string{"path": "unmatched", "status": "404"}))
	assert.False(t, hasLabels(f, map[string]string{"path": "/wp-admin.php"}))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ridekit_http_requests_total")
}

func TestObserveExternal_Outcomes(t *testing.T) {
	start := time.Now()
	metrics.ObserveExternal("test-svc", start, nil)
	metrics.ObserveExternal("test-svc", start, context.DeadlineExceeded)
	metrics.ObserveExternal("test-svc", start, errors.New("boom"))

	f := family(t, "ridekit_external_queries_total")
	for _, outcome := range []string{"ok", "timeout", "error"} {
		assert.True(t, hasLabels(f, map[string]string{"service": "test-svc", "outcome": outcome}), outcome)
	}
}

type poolStat struct{ acquired, idle, total int32 }

func (p poolStat) AcquiredConns() int32 { return p.acquired }
func (p poolStat) IdleConns() int32     { return p.idle }
func (p poolStat) TotalConns() int32    { return p.total }

func TestUpdateDBPoolMetrics(t *testing.T) {
	metrics.UpdateDBPoolMetrics(poolStat{acquired: 2, idle: 3, total: 5})

	f := family(t, "ridekit_db_pool_conns_open")
	require.NotNil(t, f)
	assert.InDelta(t, 5, f.GetMetric()[0].GetGauge().GetValue(), 1e-9)
}
