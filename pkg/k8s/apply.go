package k8s

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/dynamic"
	"sigs.k8s.io/yaml"
)

// FieldManager identifies scalebench as the writer of applied objects.
const FieldManager = "scalebench"

// DecodeManifests splits multi-document YAML (or JSON) into objects.
// Empty documents are skipped.
func DecodeManifests(reader io.Reader) ([]*unstructured.Unstructured, error) {
	documents := utilyaml.NewYAMLReader(bufio.NewReader(reader))

	var objects []*unstructured.Unstructured

	for index := 0; ; index++ {
		document, err := documents.Read()
		if errors.Is(err, io.EOF) {
			return objects, nil
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read document %d: %w", index, err)
		}

		jsonDocument, err := yaml.YAMLToJSON(document)
		if err != nil {
			return nil, fmt.Errorf("%w: document %d: %w", ErrInvalidManifest, index, err)
		}

		jsonDocument = bytes.TrimSpace(jsonDocument)
		if len(jsonDocument) == 0 || bytes.Equal(jsonDocument, []byte("null")) {
			continue
		}

		object := &unstructured.Unstructured{}

		err = object.UnmarshalJSON(jsonDocument)
		if err != nil {
			return nil, fmt.Errorf("%w: document %d: %w", ErrInvalidManifest, index, err)
		}

		if object.GetAPIVersion() == "" || object.GetKind() == "" ||
			(object.GetName() == "" && object.GetGenerateName() == "") {
			return nil, fmt.Errorf("%w: document %d needs apiVersion, kind and metadata.name",
				ErrInvalidManifest, index)
		}

		objects = append(objects, object)
	}
}

// Applier creates decoded objects in a namespace through the dynamic client.
type Applier struct {
	client dynamic.Interface
	mapper meta.RESTMapper
}

// NewApplier creates an Applier.
func NewApplier(client dynamic.Interface, mapper meta.RESTMapper) *Applier {
	return &Applier{client: client, mapper: mapper}
}

// Apply creates every object in namespace, overriding any namespace set in the
// manifest. It stops at the first failure.
func (a *Applier) Apply(
	ctx context.Context,
	namespace string,
	objects []*unstructured.Unstructured,
) error {
	if namespace == "" {
		return ErrNamespaceEmpty
	}

	for _, object := range objects {
		gvk := object.GroupVersionKind()

		mapping, err := a.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", gvk.String(), err)
		}

		if mapping.Scope.Name() != meta.RESTScopeNameNamespace {
			return fmt.Errorf("%w: %s %s", ErrClusterScopedResource, gvk.Kind, object.GetName())
		}

		toCreate := object.DeepCopy()
		toCreate.SetNamespace(namespace)

		_, err = a.client.Resource(mapping.Resource).Namespace(namespace).Create(
			ctx, toCreate, metav1.CreateOptions{FieldManager: FieldManager},
		)
		if err != nil {
			return fmt.Errorf("failed to create %s %s: %w", gvk.Kind, object.GetName(), err)
		}
	}

	return nil
}
