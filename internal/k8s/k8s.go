// Package k8s reads coachgate's tool catalog from a Kubernetes ConfigMap.
package k8s

import "context"

// HealthChecker provides Kubernetes connectivity checking.
type HealthChecker interface {
	CheckConnectivity(ctx context.Context) ConnectivityStatus
}
