package httpapi

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// counterVec is a Prometheus counter family. Series are keyed by their label
// values joined with labelSep.
type counterVec struct {
	name   string
	help   string
	labels []string
	series map[string]uint64
}

const labelSep = "\x00"

func (c *counterVec) add(n uint64, values ...string) {
	c.series[strings.Join(values, labelSep)] += n
}

func (c *counterVec) writeTo(b *strings.Builder) {
	b.WriteString("# HELP " + c.name + " " + c.help + "\n")
	b.WriteString("# TYPE " + c.name + " counter\n")
	if len(c.labels) == 0 {
		b.WriteString(c.name + " " + strconv.FormatUint(c.series[""], 10) + "\n")
		return
	}
	keys := make([]string, 0, len(c.series))
	for k := range c.series {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		pairs := make([]string, len(c.labels))
		for i, v := range strings.Split(k, labelSep) {
			pairs[i] = c.labels[i] + `="` + promLabelEscape(v) + `"`
		}
		b.WriteString(c.name + "{" + strings.Join(pairs, ",") + "} " + strconv.FormatUint(c.series[k], 10) + "\n")
	}
}

type metricsStore struct {
	mu sync.Mutex

	requests  *counterVec
	byPattern *counterVec
	appErrors *counterVec
	conflicts *counterVec
}

func newMetricsStore() *metricsStore {
	vec := func(name, help string, labels ...string) *counterVec {
		return &counterVec{name: name, help: help, labels: labels, series: make(map[string]uint64)}
	}
	return &metricsStore{
		requests:  vec("override_http_requests_total", "Total HTTP requests."),
		byPattern: vec("override_http_requests_by_pattern_total", "HTTP requests by ServeMux pattern and status.", "pattern", "status"),
		appErrors: vec("override_app_errors_total", "Application errors returned to clients.", "stage", "code"),
		conflicts: vec("override_conflicts_total", "Names skipped because a group, proxy or listener already used them."),
	}
}

var metrics = newMetricsStore()

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "(unknown)"
	}
	return s
}

func metricsIncRequest(pattern string, status int) {
	if status == 0 {
		status = http.StatusOK
	}
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	metrics.requests.add(1)
	metrics.byPattern.add(1, orUnknown(pattern), strconv.Itoa(status))
}

func metricsIncAppError(stage, code string) {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	metrics.appErrors.add(1, orUnknown(stage), orUnknown(code))
}

func metricsAddConflicts(n int) {
	if n <= 0 {
		return
	}
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	metrics.conflicts.add(uint64(n))
}

// handleMetrics writes the Prometheus text exposition format.
func handleMetrics(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	metrics.mu.Lock()
	for _, c := range []*counterVec{metrics.requests, metrics.byPattern, metrics.appErrors, metrics.conflicts} {
		c.writeTo(&b)
	}
	metrics.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(b.String()))
}

func promLabelEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(s)
}
