package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-route-optimizer/internal/domain"
)

func TestMemoryGeocodeCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryGeocodeCache()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			addr := fmt.Sprintf("addr-%d", i)
			_ = c.PutMany(ctx, map[string]domain.Coordinates{addr: {Lat: float64(i), Lng: float64(i)}})
			_, _ = c.GetMany(ctx, []string{addr, "addr-0"})
		}(i)
	}
	wg.Wait()

	got, err := c.GetMany(ctx, []string{"addr-3", "addr-15", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Coordinates{
		"addr-3":  {Lat: 3, Lng: 3},
		"addr-15": {Lat: 15, Lng: 15},
	}, got)
}
