package naming

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cubbit/dnfs/internal/logger"
	"github.com/cubbit/dnfs/internal/path"
	"github.com/cubbit/dnfs/internal/treeindex"
)

// DebugServer exposes a read-only /debug status endpoint over the tree
// index, grounded in the teacher's pkg/metadata/testing pattern of
// exposing repository internals for verification. GET /debug returns the
// current Snapshot; GET /debug?path=/some/path additionally resolves
// Stat for that path.
type DebugServer struct {
	svc          *Service
	server       *http.Server
	shutdownOnce sync.Once
}

type debugResponse struct {
	Snapshot     treeindex.Snapshot `json:"snapshot"`
	Path         string             `json:"path,omitempty"`
	IsDirectory  *bool              `json:"is_directory,omitempty"`
	ReplicaCount *int               `json:"replica_count,omitempty"`
	StatError    string             `json:"stat_error,omitempty"`
}

// NewDebugServer builds a DebugServer bound to addr, serving svc's status.
func NewDebugServer(addr string, svc *Service) *DebugServer {
	d := &DebugServer{svc: svc}
	mux := http.NewServeMux()
	mux.HandleFunc("/debug", d.handleDebug)
	d.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return d
}

func (d *DebugServer) handleDebug(w http.ResponseWriter, r *http.Request) {
	resp := debugResponse{
		Snapshot: d.svc.Index().TakeSnapshot(),
	}

	if raw := r.URL.Query().Get("path"); raw != "" {
		resp.Path = raw
		p, err := path.Parse(raw)
		if err != nil {
			resp.StatError = err.Error()
		} else if isDir, count, err := d.svc.Stat(p); err != nil {
			resp.StatError = err.Error()
		} else {
			resp.IsDirectory = &isDir
			resp.ReplicaCount = &count
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Start serves debug status until ctx is cancelled, then shuts down
// gracefully. Mirrors pkg/metrics.Server's Start/Stop shape.
func (d *DebugServer) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("debug status server listening on %s", d.server.Addr)
		if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return d.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("debug status server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times.
func (d *DebugServer) Stop(ctx context.Context) error {
	var shutdownErr error
	d.shutdownOnce.Do(func() {
		if err := d.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("debug status server shutdown error: %w", err)
		}
	})
	return shutdownErr
}
