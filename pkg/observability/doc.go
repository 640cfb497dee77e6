// Package observability wires logging, metrics, tracing and health checks.
//
// # Logging
//
// NewLogger builds a logrus logger with JSON or text output. Components take
// a logrus.FieldLogger and attach their own fields. Trigger ids travel in the
// context (WithTriggerID) and FromContext adds them, along with the active
// trace and span ids, to a logger.
//
// # Metrics
//
// Metrics registers the chatprune_* Prometheus collectors on a registry;
// RegisterMetricsEndpoint exposes them on a gorilla/mux router.
//
// # Tracing
//
// InitOTel installs a global OTLP/gRPC tracer provider. The engine starts one
// span per handler invocation.
//
// # Health
//
// HealthChecker reports database and Redis status for /healthz and /readyz.
package observability
