package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunMetricsStopsOnContextClose(t *testing.T) {
	s := &Server{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.RunMetrics(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("metrics listener did not stop on context close")
	}
}

func TestConfigOTELDisabledWithoutEndpoint(t *testing.T) {
	assert := assert.New(t)
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	shutdown, err := configOTEL("becasmod-test")
	assert.NoError(err)
	assert.NotNil(shutdown)
	assert.NotPanics(func() { shutdown() })
}
