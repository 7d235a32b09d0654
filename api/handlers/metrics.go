package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/linesmerrill/video-hearings-api/api"
	"github.com/linesmerrill/video-hearings-api/config"
)

// MetricsHandler handles metrics dashboard requests
type MetricsHandler struct {
	Collector *api.MetricsCollector
}

func (m MetricsHandler) collector() *api.MetricsCollector {
	if m.Collector != nil {
		return m.Collector
	}
	return api.GetMetrics()
}

// formatRoutes converts durations to milliseconds
func formatRoutes(routes []api.RouteMetrics) []map[string]interface{} {
	result := make([]map[string]interface{}, len(routes))
	for i, route := range routes {
		result[i] = map[string]interface{}{
			"method":        route.Method,
			"path":          route.Path,
			"count":         route.Count,
			"errorCount":    route.ErrorCount,
			"avgTime":       route.AvgTime.Milliseconds(),
			"minTime":       route.MinTime.Milliseconds(),
			"maxTime":       route.MaxTime.Milliseconds(),
			"p50Time":       route.P50Time.Milliseconds(),
			"p95Time":       route.P95Time.Milliseconds(),
			"p99Time":       route.P99Time.Milliseconds(),
			"bridgeCalls":   route.BridgeCalls,
			"bridgeErrors":  route.BridgeErrors,
			"upstreamTotal": route.UpstreamTotal.Milliseconds(),
			"lastRequest":   route.LastRequest,
		}
	}
	return result
}

// GetMetricsSummary returns the summary metrics
func (m MetricsHandler) GetMetricsSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, m.collector().GetSummary())
}

// GetRoutesHandler returns the slowest and most frequent routes, paged
func (m MetricsHandler) GetRoutesHandler(w http.ResponseWriter, r *http.Request) {
	metrics := m.collector()

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	since := time.Now().Add(-1 * time.Hour)
	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		parsed, err := time.ParseDuration(sinceStr)
		if err != nil {
			config.ErrorStatus("invalid since duration", http.StatusBadRequest, w, err)
			return
		}
		since = time.Now().Add(-parsed)
	}

	total := len(metrics.GetRouteMetrics())
	writeJSON(w, map[string]interface{}{
		"slowest":      formatRoutes(metrics.GetSlowestRoutes(limit, offset)),
		"mostFrequent": formatRoutes(metrics.GetMostFrequentRoutes(limit, offset)),
		"recentTraces": metrics.GetTraces(limit, since),
		"pagination": map[string]interface{}{
			"limit":   limit,
			"offset":  offset,
			"total":   total,
			"hasMore": offset+limit < total,
		},
	})
}
