package k8s_test

import (
	"context"
	"strings"
	"testing"

	"github.com/devantler-tech/scalebench/pkg/k8s"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
)

const workload = `# burst of pause pods
apiVersion: apps/v1
kind: Deployment
metadata:
  name: pause
  namespace: ignored
spec:
  replicas: 3
  selector:
    matchLabels:
      app: pause
  template:
    metadata:
      labels:
        app: pause
    spec:
      containers:
      - name: pause
        image: registry.k8s.io/pause:3.9
---
# only a comment
---
apiVersion: v1
kind: ConfigMap
metadata:
  name: settings
data:
  mode: burst
`

var (
	deploymentGVR = schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "deployments"}
	configMapGVR  = schema.GroupVersionResource{Version: "v1", Resource: "configmaps"}
)

func newMapper() meta.RESTMapper {
	mapper := meta.NewDefaultRESTMapper(nil)
	mapper.Add(schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"}, meta.RESTScopeNamespace)
	mapper.Add(schema.GroupVersionKind{Version: "v1", Kind: "ConfigMap"}, meta.RESTScopeNamespace)
	mapper.Add(schema.GroupVersionKind{Version: "v1", Kind: "Namespace"}, meta.RESTScopeRoot)

	return mapper
}

func TestDecodeManifests(t *testing.T) {
	t.Parallel()

	objects, err := k8s.DecodeManifests(strings.NewReader(workload))
	require.NoError(t, err)
	require.Len(t, objects, 2)

	assert.Equal(t, "Deployment", objects[0].GetKind())
	assert.Equal(t, "pause", objects[0].GetName())

	replicas, found, err := unstructured.NestedInt64(objects[0].Object, "spec", "replicas")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(3), replicas)

	assert.Equal(t, "ConfigMap", objects[1].GetKind())
}

func TestDecodeManifests_JSON(t *testing.T) {
	t.Parallel()

	objects, err := k8s.DecodeManifests(strings.NewReader(
		`{"apiVersion":"v1","kind":"ConfigMap","metadata":{"name":"json"}}`))
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "json", objects[0].GetName())
}

func TestDecodeManifests_Invalid(t *testing.T) {
	t.Parallel()

	testCases := map[string]string{
		"no kind":    "apiVersion: v1\nmetadata:\n  name: x\n",
		"empty kind": "apiVersion: v1\nkind: \"\"\nmetadata:\n  name: x\n",
		"no name":    "apiVersion: v1\nkind: ConfigMap\n",
		"not yaml":   "kind: [unclosed\n",
		"scalar":     "just a string\n",
		"no version": "kind: ConfigMap\nmetadata:\n  name: x\n",
	}

	for name, manifest := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := k8s.DecodeManifests(strings.NewReader(manifest))
			require.ErrorIs(t, err, k8s.ErrInvalidManifest)
		})
	}
}

func TestApplier_Apply_OverridesNamespace(t *testing.T) {
	t.Parallel()

	objects, err := k8s.DecodeManifests(strings.NewReader(workload))
	require.NoError(t, err)

	client := dynamicfake.NewSimpleDynamicClient(runtime.NewScheme())
	applier := k8s.NewApplier(client, newMapper())

	require.NoError(t, applier.Apply(context.Background(), "scalebench-1234abcd", objects))

	deployment, err := client.Resource(deploymentGVR).Namespace("scalebench-1234abcd").
		Get(context.Background(), "pause", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "scalebench-1234abcd", deployment.GetNamespace())

	_, err = client.Resource(configMapGVR).Namespace("scalebench-1234abcd").
		Get(context.Background(), "settings", metav1.GetOptions{})
	require.NoError(t, err)

	assert.Equal(t, "ignored", objects[0].GetNamespace(), "decoded objects are not mutated")
}

func TestApplier_Apply_RejectsClusterScoped(t *testing.T) {
	t.Parallel()

	objects, err := k8s.DecodeManifests(strings.NewReader("apiVersion: v1\nkind: Namespace\nmetadata:\n  name: escape\n"))
	require.NoError(t, err)

	applier := k8s.NewApplier(dynamicfake.NewSimpleDynamicClient(runtime.NewScheme()), newMapper())

	err = applier.Apply(context.Background(), "scalebench-1234abcd", objects)
	require.ErrorIs(t, err, k8s.ErrClusterScopedResource)
}

func TestApplier_Apply_UnknownKind(t *testing.T) {
	t.Parallel()

	objects, err := k8s.DecodeManifests(strings.NewReader("apiVersion: example.com/v1\nkind: Widget\nmetadata:\n  name: w\n"))
	require.NoError(t, err)

	applier := k8s.NewApplier(dynamicfake.NewSimpleDynamicClient(runtime.NewScheme()), newMapper())

	err = applier.Apply(context.Background(), "scalebench-1234abcd", objects)
	require.Error(t, err)
	assert.True(t, meta.IsNoMatchError(err))
}

func TestApplier_Apply_EmptyNamespace(t *testing.T) {
	t.Parallel()

	applier := k8s.NewApplier(dynamicfake.NewSimpleDynamicClient(runtime.NewScheme()), newMapper())

	require.ErrorIs(t, applier.Apply(context.Background(), "", nil), k8s.ErrNamespaceEmpty)
}
