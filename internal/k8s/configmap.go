package k8s

import (
	"context"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"

	"github.com/daap14/coachgate/internal/catalog"
)

var configMapGVR = schema.GroupVersionResource{
	Group:    "",
	Version:  "v1",
	Resource: "configmaps",
}

// ConfigMapRef names a ConfigMap as "namespace/name".
type ConfigMapRef struct {
	Namespace string
	Name      string
}

func (r ConfigMapRef) String() string {
	return r.Namespace + "/" + r.Name
}

// ParseConfigMapRef parses "namespace/name".
func ParseConfigMapRef(s string) (ConfigMapRef, error) {
	ns, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || ns == "" || name == "" || strings.Contains(name, "/") {
		return ConfigMapRef{}, fmt.Errorf("configmap reference %q must be namespace/name", s)
	}
	return ConfigMapRef{Namespace: ns, Name: name}, nil
}

// ConfigMapSource reads the tool catalog from one key of a ConfigMap.
type ConfigMapSource struct {
	dynamic dynamic.Interface
	ref     ConfigMapRef
	key     string
}

// NewConfigMapSource creates a catalog source reading ref's key.
func NewConfigMapSource(dyn dynamic.Interface, ref ConfigMapRef, key string) *ConfigMapSource {
	return &ConfigMapSource{dynamic: dyn, ref: ref, key: key}
}

// CatalogSource creates a ConfigMapSource on the client's connection.
func (c *Client) CatalogSource(ref ConfigMapRef, key string) *ConfigMapSource {
	return NewConfigMapSource(c.dynamic, ref, key)
}

// Load fetches the ConfigMap and parses the catalog document under the
// source's key. Both data and binaryData are consulted.
func (s *ConfigMapSource) Load(ctx context.Context) (*catalog.Catalog, error) {
	obj, err := s.dynamic.Resource(configMapGVR).Namespace(s.ref.Namespace).Get(ctx, s.ref.Name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting configmap %s: %w", s.ref, err)
	}

	var cm corev1.ConfigMap
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, &cm); err != nil {
		return nil, fmt.Errorf("converting configmap %s: %w", s.ref, err)
	}

	var doc []byte
	if v, ok := cm.Data[s.key]; ok {
		doc = []byte(v)
	} else if v, ok := cm.BinaryData[s.key]; ok {
		doc = v
	} else {
		return nil, fmt.Errorf("configmap %s has no key %q", s.ref, s.key)
	}

	c, err := catalog.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("catalog in configmap %s: %w", s.ref, err)
	}
	return c, nil
}
