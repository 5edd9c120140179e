package middleware

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const (
	unknownService   = "unknown-service"
	defaultNamespace = "default"
	namespaceFile    = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"
)

// serviceIdentity names this process in traces and profiles
type serviceIdentity struct {
	Name      string
	Namespace string
}

// detectIdentity picks the first non-empty name from OTEL_SERVICE_NAME, the deployment
// name behind POD_NAME, and the configured name.
func detectIdentity(configured string) serviceIdentity {
	return serviceIdentity{
		Name: cmp.Or(
			os.Getenv("OTEL_SERVICE_NAME"),
			deploymentName(os.Getenv("POD_NAME")),
			configured,
			unknownService,
		),
		Namespace: cmp.Or(
			resourceAttr(os.Getenv("OTEL_RESOURCE_ATTRIBUTES"), "service.namespace"),
			readNamespaceFile(),
			os.Getenv("POD_NAMESPACE"),
			defaultNamespace,
		),
	}
}

// deploymentName drops the replicaset and pod suffixes:
// "classifieds-api-75c98b4b9c-kdv2n" -> "classifieds-api".
func deploymentName(pod string) string {
	if pod == "" {
		return ""
	}
	parts := strings.Split(pod, "-")
	if len(parts) < 3 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-2], "-")
}

// resourceAttr looks key up in a "k1=v1,k2=v2" attribute list
func resourceAttr(list, key string) string {
	for pair := range strings.SplitSeq(list, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && k == key {
			return v
		}
	}
	return ""
}

func readNamespaceFile() string {
	data, err := os.ReadFile(namespaceFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (id serviceIdentity) attributes(version string) resource.Option {
	return resource.WithAttributes(
		semconv.ServiceNameKey.String(id.Name),
		semconv.ServiceNamespaceKey.String(id.Namespace),
		semconv.ServiceVersionKey.String(version),
	)
}

// createResource builds the tracer provider resource. When host or container detection
// partly fails it still returns a resource carrying the service identity.
func createResource(ctx context.Context, configuredName, version string) (*resource.Resource, serviceIdentity, error) {
	id := detectIdentity(configuredName)
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithOS(),
		resource.WithContainer(),
		resource.WithHost(),
		id.attributes(version),
	)
	if err != nil {
		minimal, _ := resource.New(ctx, id.attributes(version))
		return minimal, id, fmt.Errorf("detect resource for %s: %w", id.Name, err)
	}
	return res, id, nil
}
