package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/faysalsarker-dev/piercing-cms/internal/observability/metrics"
)

// StatusResponse summarises upstream health for the admin status page.
type StatusResponse struct {
	Workspaces int                     `json:"workspaces"`
	Upstream   []metrics.EntityLatency `json:"upstream"`
}

// WorkspaceCounter reports mounted workspaces.
type WorkspaceCounter interface {
	Len() int
}

// Status handles GET /api/status.
func Status(gatherer prometheus.Gatherer, workspaces WorkspaceCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{Upstream: metrics.UpstreamSnapshot(gatherer)}
		if resp.Upstream == nil {
			resp.Upstream = []metrics.EntityLatency{}
		}
		if workspaces != nil {
			resp.Workspaces = workspaces.Len()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
