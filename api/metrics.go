package api

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// Upstream kinds a request trace can record
const (
	UpstreamMongo  = "mongo"
	UpstreamBridge = "videobridge"
)

// RequestTrace tracks timing for a single request
type RequestTrace struct {
	RequestID     string            `json:"requestId"`
	Method        string            `json:"method"`
	Path          string            `json:"path"`
	Status        int               `json:"status"`
	StartTime     time.Time         `json:"startTime"`
	EndTime       time.Time         `json:"endTime"`
	TotalDuration time.Duration     `json:"totalDuration"`
	Upstream      []UpstreamCall    `json:"upstream"`
	UpstreamTime  time.Duration     `json:"upstreamTime"`
	Error         string            `json:"error,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// UpstreamCall tracks one call the request made to mongo or the video bridge
type UpstreamCall struct {
	Kind      string        `json:"kind"`
	Operation string        `json:"operation"`
	Target    string        `json:"target"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// RouteMetrics aggregates metrics for a specific route
type RouteMetrics struct {
	Method        string        `json:"method"`
	Path          string        `json:"path"`
	Count         int64         `json:"count"`
	ErrorCount    int64         `json:"errorCount"`
	TotalTime     time.Duration `json:"totalTime"`
	AvgTime       time.Duration `json:"avgTime"`
	MinTime       time.Duration `json:"minTime"`
	MaxTime       time.Duration `json:"maxTime"`
	P50Time       time.Duration `json:"p50Time"`
	P95Time       time.Duration `json:"p95Time"`
	P99Time       time.Duration `json:"p99Time"`
	BridgeCalls   int64         `json:"bridgeCalls"`
	BridgeErrors  int64         `json:"bridgeErrors"`
	UpstreamTotal time.Duration `json:"upstreamTotal"`
	LastRequest   time.Time     `json:"lastRequest"`
}

// Summary is the overall view over the current window
type Summary struct {
	TotalRequests  int64     `json:"totalRequests"`
	TotalErrors    int64     `json:"totalErrors"`
	ErrorRate      float64   `json:"errorRate"`
	TPS            float64   `json:"tps"`
	TotalDBQueries int64     `json:"totalDBQueries"`
	TotalBridge    int64     `json:"totalBridgeCalls"`
	BridgeErrors   int64     `json:"bridgeErrors"`
	UpstreamTime   string    `json:"upstreamTime"`
	WindowStart    time.Time `json:"windowStart"`
	WindowEnd      time.Time `json:"windowEnd"`
	RouteCount     int       `json:"routeCount"`
	TraceCount     int       `json:"traceCount"`
}

// MetricsCollector collects and aggregates request metrics. Traces are queued
// on a buffered channel and dropped when it is full so recording never blocks
// a request.
type MetricsCollector struct {
	mu             sync.RWMutex
	traces         []RequestTrace
	maxTraces      int
	routeMetrics   map[string]*RouteMetrics
	windowStart    time.Time
	windowDuration time.Duration
	totalRequests  int64
	totalErrors    int64
	totalDBQueries int64
	totalBridge    int64
	bridgeErrors   int64
	upstreamTime   time.Duration
	traceChan      chan RequestTrace
	stopChan       chan struct{}
	stopOnce       sync.Once
}

var (
	globalMetrics *MetricsCollector
	metricsOnce   sync.Once
)

// NewMetricsCollector starts a collector keeping at most maxTraces within window
func NewMetricsCollector(maxTraces int, window time.Duration) *MetricsCollector {
	mc := &MetricsCollector{
		traces:         make([]RequestTrace, 0, maxTraces),
		maxTraces:      maxTraces,
		routeMetrics:   make(map[string]*RouteMetrics),
		windowStart:    time.Now(),
		windowDuration: window,
		traceChan:      make(chan RequestTrace, 1000),
		stopChan:       make(chan struct{}),
	}
	go mc.processTraces()
	go mc.cleanup()
	return mc
}

// GetMetrics returns the process wide collector
func GetMetrics() *MetricsCollector {
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsCollector(10000, time.Hour)
	})
	return globalMetrics
}

// Stop ends the background goroutines
func (mc *MetricsCollector) Stop() {
	mc.stopOnce.Do(func() { close(mc.stopChan) })
}

// RecordTrace queues a trace, dropping it if the queue is full
func (mc *MetricsCollector) RecordTrace(trace RequestTrace) {
	select {
	case mc.traceChan <- trace:
	default:
	}
}

func (mc *MetricsCollector) processTraces() {
	for {
		select {
		case trace := <-mc.traceChan:
			mc.processTrace(trace)
		case <-mc.stopChan:
			return
		}
	}
}

func (mc *MetricsCollector) processTrace(trace RequestTrace) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if len(mc.traces) >= mc.maxTraces {
		mc.traces = mc.traces[1:]
	}
	trace.Path = normalizeRoutePath(trace.Path)
	mc.traces = append(mc.traces, trace)

	routeKey := trace.Method + " " + trace.Path
	metrics, exists := mc.routeMetrics[routeKey]
	if !exists {
		metrics = &RouteMetrics{
			Method:  trace.Method,
			Path:    trace.Path,
			MinTime: trace.TotalDuration,
		}
		mc.routeMetrics[routeKey] = metrics
	}

	metrics.Count++
	metrics.TotalTime += trace.TotalDuration
	metrics.AvgTime = metrics.TotalTime / time.Duration(metrics.Count)
	metrics.LastRequest = trace.StartTime
	if trace.TotalDuration < metrics.MinTime {
		metrics.MinTime = trace.TotalDuration
	}
	if trace.TotalDuration > metrics.MaxTime {
		metrics.MaxTime = trace.TotalDuration
	}
	if trace.Status >= 400 {
		metrics.ErrorCount++
		mc.totalErrors++
	}

	for _, call := range trace.Upstream {
		switch call.Kind {
		case UpstreamMongo:
			mc.totalDBQueries++
		case UpstreamBridge:
			metrics.BridgeCalls++
			mc.totalBridge++
			if call.Error != "" {
				metrics.BridgeErrors++
				mc.bridgeErrors++
			}
		}
	}
	metrics.UpstreamTotal += trace.UpstreamTime
	mc.upstreamTime += trace.UpstreamTime
	mc.totalRequests++

	// percentiles are recomputed every 100 requests per route
	if metrics.Count%100 == 0 {
		mc.calculatePercentiles(routeKey)
	}
}

// GetTraces returns up to limit traces started after since, oldest first
func (mc *MetricsCollector) GetTraces(limit int, since time.Time) []RequestTrace {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	var filtered []RequestTrace
	for i := len(mc.traces) - 1; i >= 0 && len(filtered) < limit; i-- {
		if mc.traces[i].StartTime.After(since) {
			filtered = append(filtered, mc.traces[i])
		}
	}
	for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
		filtered[i], filtered[j] = filtered[j], filtered[i]
	}
	return filtered
}

// GetRouteMetrics returns a copy of the aggregates for every route
func (mc *MetricsCollector) GetRouteMetrics() map[string]RouteMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make(map[string]RouteMetrics, len(mc.routeMetrics))
	for k, v := range mc.routeMetrics {
		result[k] = *v
	}
	return result
}

// GetSummary returns overall summary metrics
func (mc *MetricsCollector) GetSummary() Summary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	elapsed := time.Since(mc.windowStart)
	if elapsed > mc.windowDuration {
		elapsed = mc.windowDuration
	}
	s := Summary{
		TotalRequests:  mc.totalRequests,
		TotalErrors:    mc.totalErrors,
		TotalDBQueries: mc.totalDBQueries,
		TotalBridge:    mc.totalBridge,
		BridgeErrors:   mc.bridgeErrors,
		UpstreamTime:   mc.upstreamTime.String(),
		WindowStart:    mc.windowStart,
		WindowEnd:      mc.windowStart.Add(mc.windowDuration),
		RouteCount:     len(mc.routeMetrics),
		TraceCount:     len(mc.traces),
	}
	if elapsed.Seconds() > 0 {
		s.TPS = float64(mc.totalRequests) / elapsed.Seconds()
	}
	if mc.totalRequests > 0 {
		s.ErrorRate = float64(mc.totalErrors) / float64(mc.totalRequests)
	}
	return s
}

// GetSlowestRoutes returns routes by average time, slowest first
func (mc *MetricsCollector) GetSlowestRoutes(limit, offset int) []RouteMetrics {
	return mc.sortedRoutes(limit, offset, func(a, b RouteMetrics) bool { return a.AvgTime > b.AvgTime })
}

// GetMostFrequentRoutes returns routes by request count, busiest first
func (mc *MetricsCollector) GetMostFrequentRoutes(limit, offset int) []RouteMetrics {
	return mc.sortedRoutes(limit, offset, func(a, b RouteMetrics) bool { return a.Count > b.Count })
}

func (mc *MetricsCollector) sortedRoutes(limit, offset int, less func(a, b RouteMetrics) bool) []RouteMetrics {
	mc.mu.RLock()
	routes := make([]RouteMetrics, 0, len(mc.routeMetrics))
	for _, m := range mc.routeMetrics {
		routes = append(routes, *m)
	}
	mc.mu.RUnlock()

	sort.Slice(routes, func(i, j int) bool {
		if less(routes[i], routes[j]) != less(routes[j], routes[i]) {
			return less(routes[i], routes[j])
		}
		return routes[i].Method+routes[i].Path < routes[j].Method+routes[j].Path
	})
	if offset >= len(routes) {
		return []RouteMetrics{}
	}
	end := offset + limit
	if end > len(routes) {
		end = len(routes)
	}
	return routes[offset:end]
}

func (mc *MetricsCollector) calculatePercentiles(routeKey string) {
	metrics := mc.routeMetrics[routeKey]
	var durations []time.Duration
	for _, trace := range mc.traces {
		if trace.Method+" "+trace.Path == routeKey {
			durations = append(durations, trace.TotalDuration)
		}
	}
	if len(durations) == 0 {
		return
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	at := func(q float64) time.Duration {
		idx := int(float64(len(durations)) * q)
		if idx >= len(durations) {
			idx = len(durations) - 1
		}
		return durations[idx]
	}
	metrics.P50Time = at(0.50)
	metrics.P95Time = at(0.95)
	metrics.P99Time = at(0.99)
}

// cleanup drops traces older than the window and rolls the window over
func (mc *MetricsCollector) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-mc.stopChan:
			return
		case now := <-ticker.C:
			mc.mu.Lock()
			cutoff := now.Add(-mc.windowDuration)
			kept := mc.traces[:0]
			for _, trace := range mc.traces {
				if trace.StartTime.After(cutoff) {
					kept = append(kept, trace)
				}
			}
			mc.traces = kept
			if now.Sub(mc.windowStart) > mc.windowDuration {
				mc.windowStart = now
			}
			mc.mu.Unlock()
		}
	}
}

var (
	uuidSegment   = regexp.MustCompile(`/[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}(/|$)`)
	objectSegment = regexp.MustCompile(`/[0-9a-fA-F]{24}(/|$)`)
)

// normalizeRoutePath folds ids into {id} so one route aggregates as one
//   - /api/v1/hearings/6f1c.../participants/9ab2.../leave -> /api/v1/hearings/{id}/participants/{id}/leave
func normalizeRoutePath(path string) string {
	for _, re := range []*regexp.Regexp{uuidSegment, objectSegment} {
		// ReplaceAll does not revisit the shared slash between two adjacent ids
		for re.MatchString(path) {
			path = re.ReplaceAllString(path, "/{id}$1")
		}
	}
	path = strings.ReplaceAll(path, "//", "/")
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}

type requestTraceContextKey struct{}

// requestTraceContext holds a trace being built during request processing
type requestTraceContext struct {
	trace *RequestTrace
	mu    sync.Mutex
}

func getRequestTraceFromContext(ctx context.Context) *requestTraceContext {
	if val, ok := ctx.Value(requestTraceContextKey{}).(*requestTraceContext); ok {
		return val
	}
	return nil
}

// WithRequestTrace adds request trace to context
func WithRequestTrace(ctx context.Context, trace *RequestTrace) context.Context {
	return context.WithValue(ctx, requestTraceContextKey{}, &requestTraceContext{trace: trace})
}

// RecordUpstreamFromContext appends an upstream call to the request's trace.
// Contexts without a trace are ignored.
func RecordUpstreamFromContext(ctx context.Context, kind, operation, target string, duration time.Duration, err error) {
	reqTrace := getRequestTraceFromContext(ctx)
	if reqTrace == nil || reqTrace.trace == nil {
		return
	}

	call := UpstreamCall{
		Kind:      kind,
		Operation: operation,
		Target:    target,
		Duration:  duration,
		Timestamp: time.Now(),
	}
	if err != nil {
		call.Error = err.Error()
	}
	reqTrace.mu.Lock()
	reqTrace.trace.Upstream = append(reqTrace.trace.Upstream, call)
	reqTrace.trace.UpstreamTime += duration
	reqTrace.mu.Unlock()
}

// RecordDBQuery matches databases.QueryObserver
func RecordDBQuery(ctx context.Context, collection, operation string, took time.Duration, err error) {
	RecordUpstreamFromContext(ctx, UpstreamMongo, operation, collection, took, err)
}

// RecordBridgeCall matches videobridge.CallObserver
func RecordBridgeCall(ctx context.Context, operation, target string, took time.Duration, err error) {
	RecordUpstreamFromContext(ctx, UpstreamBridge, operation, target, took, err)
}
