// statscache/cache_test.go
package statscache

import (
	"context"
	"testing"
	"time"

	"learning-platform/models"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCacheHitAndInvalidate(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)

	dc := &models.DashboardContext{TotalCourses: 2}
	c.Set(ctx, 1, dc)

	got, ok := c.Get(ctx, 1)
	assert.True(t, ok)
	assert.Equal(t, 2, got.TotalCourses)

	// Other users never see it.
	_, ok = c.Get(ctx, 2)
	assert.False(t, ok)

	c.Invalidate(ctx, 1)
	_, ok = c.Get(ctx, 1)
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemory(10 * time.Millisecond)
	ctx := context.Background()

	c.Set(ctx, 1, &models.DashboardContext{})
	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok, "entries expire after the TTL")
}
