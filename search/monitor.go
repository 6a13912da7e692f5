package search

import (
	"log/slog"

	"github.com/poiesic/noteshelf/core"
)

// SearchMonitor provides hooks to observe the search process.
// Callbacks run on the goroutine that called Search, after all per-type
// lookups have completed.
type SearchMonitor interface {
	Start(req Request)
	AfterTypeSearch(kind core.EntityType, hits int)
	Finish(resp *Response)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Request)                        {}
func (n *noopMonitor) AfterTypeSearch(_ core.EntityType, _ int) {}
func (n *noopMonitor) Finish(_ *Response)                      {}

// LogMonitor reports every stage at debug level.
type LogMonitor struct {
	Logger *slog.Logger
}

var _ SearchMonitor = (*LogMonitor)(nil)

func (m *LogMonitor) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

func (m *LogMonitor) Start(req Request) {
	m.logger().Debug("search started", "user", req.UserID, "query", req.Query, "labels", req.Labels)
}

func (m *LogMonitor) AfterTypeSearch(kind core.EntityType, hits int) {
	m.logger().Debug("type searched", "kind", kind, "hits", hits)
}

func (m *LogMonitor) Finish(resp *Response) {
	m.logger().Debug("search finished", "total", resp.TotalResults)
}
