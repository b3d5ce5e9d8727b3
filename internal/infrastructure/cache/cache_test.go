package cache_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Compras-api/internal/infrastructure/cache"
)

// ──────────────────────────────────────────────────────────────────────────────
// LRU instrumentado: desalojo, hit rate, ocupación y estado de salud.
// ──────────────────────────────────────────────────────────────────────────────

func TestCache_DesalojaAlExcederCapacidad(t *testing.T) {
	c, err := cache.New[string, int](2, 250)
	require.NoError(t, err)

	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3) // desaloja "a", el menos usado

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "la clave más vieja debe haberse desalojado")
	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	report := c.Metrics()
	assert.Equal(t, int64(1), report.Evictions)
}

func TestCache_GetRecienteRetieneLaClave(t *testing.T) {
	c, err := cache.New[string, int](2, 250)
	require.NoError(t, err)

	c.Add("a", 1)
	c.Add("b", 2)
	c.Get("a")    // "a" pasa a ser la más reciente
	c.Add("c", 3) // debe desalojar "b"

	_, ok := c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestCache_RemoveInvalida(t *testing.T) {
	c, err := cache.New[string, string](4, 250)
	require.NoError(t, err)

	c.Add("k", "v")
	c.Remove("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestMetrics_HitRate(t *testing.T) {
	c, err := cache.New[string, int](8, 250)
	require.NoError(t, err)

	c.Add("a", 1)
	c.Get("a")    // hit
	c.Get("a")    // hit
	c.Get("nope") // miss

	report := c.Metrics()
	// Add también cuenta como acierto en la ventana de duraciones.
	assert.Equal(t, int64(3), report.Hits)
	assert.Equal(t, int64(1), report.Misses)
	assert.InDelta(t, 0.75, report.HitRate, 0.001)
	assert.GreaterOrEqual(t, report.AvgMs, 0.0)
	assert.GreaterOrEqual(t, report.P95Ms, 0.0)
}

func TestMetrics_EstadoOKConOcupacionBaja(t *testing.T) {
	c, err := cache.New[string, int](100, 250)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		c.Add(fmt.Sprintf("k%d", i), i)
	}
	report := c.Metrics()
	assert.Equal(t, cache.StatusOK, report.Status)
	assert.InDelta(t, 10.0, report.OccupancyPct, 0.001)
	assert.Empty(t, report.Recommendation)
}

// Sobre el 90% de ocupación el estado pasa a warning con recomendación de
// aumentar la capacidad.
func TestMetrics_WarningPorOcupacion(t *testing.T) {
	c, err := cache.New[string, int](10, 250)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		c.Add(fmt.Sprintf("k%d", i), i)
	}
	report := c.Metrics()
	assert.Equal(t, 10, report.Entries)
	assert.InDelta(t, 100.0, report.OccupancyPct, 0.001)
	assert.Equal(t, cache.StatusWarning, report.Status)
	assert.NotEmpty(t, report.Recommendation)
}

func TestNew_CapacidadInvalidaUsaElDefault(t *testing.T) {
	c, err := cache.New[string, int](0, 250)
	require.NoError(t, err)

	report := c.Metrics()
	assert.Equal(t, 128, report.Capacity)
}
