package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeHealthChecker(t *testing.T) {
	t.Run("no checks registered is healthy", func(t *testing.T) {
		checker := NewCompositeHealthChecker("v1")
		status := checker.Check(context.Background())

		assert.True(t, status.Healthy)
		assert.True(t, status.Ready)
	})

	t.Run("all passing checks are healthy", func(t *testing.T) {
		checker := NewCompositeHealthChecker("v1")
		checker.AddCheck("database", func(ctx context.Context) error { return nil })
		checker.AddCheck("cache", func(ctx context.Context) error { return nil })

		status := checker.Check(context.Background())

		require.True(t, status.Healthy)
		assert.Len(t, status.Checks, 2)
		assert.True(t, status.Checks["database"].Healthy)
		assert.True(t, status.Checks["cache"].Healthy)
	})

	t.Run("one failing check makes the service unhealthy", func(t *testing.T) {
		checker := NewCompositeHealthChecker("v1")
		checker.AddCheck("database", func(ctx context.Context) error { return nil })
		checker.AddCheck("cache", func(ctx context.Context) error {
			return errors.New("connection refused")
		})

		status := checker.Check(context.Background())

		assert.False(t, status.Healthy)
		assert.False(t, status.Ready)
		assert.True(t, status.Checks["database"].Healthy)
		assert.False(t, status.Checks["cache"].Healthy)
		assert.Contains(t, status.Checks["cache"].Message, "connection refused")
	})

	t.Run("removed check no longer runs", func(t *testing.T) {
		checker := NewCompositeHealthChecker("v1")
		checker.AddCheck("flaky", func(ctx context.Context) error {
			return errors.New("always failing")
		})
		checker.RemoveCheck("flaky")

		status := checker.Check(context.Background())

		assert.True(t, status.Healthy)
	})
}
