// Package otel provides an OpenTelemetry observer plugin for scopes and
// sized semaphores. For now it ships only a no-op observer.
package otel
