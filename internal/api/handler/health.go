package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/daap14/coachgate/internal/api/middleware"
	"github.com/daap14/coachgate/internal/api/response"
	"github.com/daap14/coachgate/internal/k8s"
)

const pingTimeout = 2 * time.Second

// StoragePinger checks that the backing store answers.
type StoragePinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to StoragePinger.
type PingFunc func(ctx context.Context) error

// Ping calls f(ctx).
func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	pinger     StoragePinger
	backend    string
	k8sChecker k8s.HealthChecker
	version    string
}

// NewHealthHandler creates a new HealthHandler. checker may be nil when the
// catalog is not read from the cluster.
func NewHealthHandler(pinger StoragePinger, backend string, checker k8s.HealthChecker, version string) *HealthHandler {
	return &HealthHandler{
		pinger:     pinger,
		backend:    backend,
		k8sChecker: checker,
		version:    version,
	}
}

type storageStatus struct {
	Backend   string `json:"backend"`
	Connected bool   `json:"connected"`
}

type kubernetesStatus struct {
	Connected bool    `json:"connected"`
	Version   *string `json:"version"`
}

type healthData struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Storage    storageStatus     `json:"storage"`
	Kubernetes *kubernetesStatus `json:"kubernetes,omitempty"`
}

// ServeHTTP handles the health check request. An unreachable store answers
// 503 so load balancers stop routing to an instance that would fail closed.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	data := healthData{
		Status:  "healthy",
		Version: h.version,
		Storage: storageStatus{Backend: h.backend, Connected: true},
	}
	status := http.StatusOK

	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			data.Storage.Connected = false
			data.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	if h.k8sChecker != nil {
		connectivity := h.k8sChecker.CheckConnectivity(r.Context())
		data.Kubernetes = &kubernetesStatus{Connected: connectivity.Connected}
		if connectivity.Connected {
			data.Kubernetes.Version = &connectivity.Version
		} else if data.Status == "healthy" {
			data.Status = "degraded"
		}
	}

	response.Success(w, status, data, requestID)
}
