package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

func TestCollectorHost(t *testing.T) {
	assert.Equal(t, "localhost:4318", collectorHost("http://localhost:4318"))
	assert.Equal(t, "otel.internal:4318", collectorHost("https://otel.internal:4318"))
	assert.Equal(t, "localhost:4318", collectorHost("localhost:4318"))
}

func TestNewResourceServiceName(t *testing.T) {
	res := newResource("")
	v, ok := res.Set().Value(semconv.ServiceNameKey)
	assert.True(t, ok)
	assert.Equal(t, "timesheet", v.AsString())

	res = newResource("timesheet-worker")
	v, _ = res.Set().Value(semconv.ServiceNameKey)
	assert.Equal(t, "timesheet-worker", v.AsString())
}
