// Package cache envuelve un LRU de tamaño fijo con instrumentación: hit
// rate, duración por operación (media y p95), ocupación y un estado de
// salud derivado con recomendación textual.
package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Estados de salud del caché.
const (
	StatusOK       = "ok"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// cuántas duraciones recientes se retienen para los percentiles
const sampleWindow = 1024

// Cache LRU instrumentado. Seguro para uso concurrente.
type Cache[K comparable, V any] struct {
	lru      *lru.Cache[K, V]
	capacity int
	critical time.Duration

	mu        sync.Mutex
	hits      int64
	misses    int64
	evictions int64
	samples   []time.Duration // ventana circular de duraciones
	next      int
	filled    bool
}

// New crea un caché LRU de capacidad fija. criticalMs es el umbral de
// latencia p95 a partir del cual el estado pasa a critical.
func New[K comparable, V any](capacity, criticalMs int) (*Cache[K, V], error) {
	if capacity <= 0 {
		capacity = 128
	}
	c := &Cache[K, V]{
		capacity: capacity,
		critical: time.Duration(criticalMs) * time.Millisecond,
		samples:  make([]time.Duration, sampleWindow),
	}
	inner, err := lru.NewWithEvict[K, V](capacity, func(K, V) {
		c.mu.Lock()
		c.evictions++
		c.mu.Unlock()
	})
	if err != nil {
		return nil, fmt.Errorf("crear LRU: %w", err)
	}
	c.lru = inner
	return c, nil
}

// Get busca una clave y registra hit/miss con su duración.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	start := time.Now()
	v, ok := c.lru.Get(key)
	c.observe(start, ok)
	return v, ok
}

// Add inserta o actualiza una clave.
func (c *Cache[K, V]) Add(key K, value V) {
	start := time.Now()
	c.lru.Add(key, value)
	c.observe(start, true)
}

// Remove invalida una clave (las escrituras del dominio llaman aquí).
func (c *Cache[K, V]) Remove(key K) {
	c.lru.Remove(key)
}

// Len devuelve las entradas vivas.
func (c *Cache[K, V]) Len() int {
	return c.lru.Len()
}

func (c *Cache[K, V]) observe(start time.Time, hit bool) {
	d := time.Since(start)
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.samples[c.next] = d
	c.next++
	if c.next == len(c.samples) {
		c.next = 0
		c.filled = true
	}
}

// Report estado observable del caché en un instante.
type Report struct {
	Capacity       int     `json:"capacity"`
	Entries        int     `json:"entries"`
	OccupancyPct   float64 `json:"occupancy_pct"`
	Hits           int64   `json:"hits"`
	Misses         int64   `json:"misses"`
	HitRate        float64 `json:"hit_rate"`
	Evictions      int64   `json:"evictions"`
	AvgMs          float64 `json:"avg_ms"`
	P95Ms          float64 `json:"p95_ms"`
	Status         string  `json:"status"`
	Recommendation string  `json:"recommendation,omitempty"`
}

// Metrics calcula el reporte: ocupación, hit rate, media y p95 de duración,
// y el estado derivado. warning = ocupación sobre 90%; critical = p95 sobre
// el umbral configurado.
func (c *Cache[K, V]) Metrics() Report {
	// Len se lee antes de tomar el mutex: el callback de desalojo corre bajo
	// el lock interno del LRU y toma c.mu, en el orden inverso.
	entries := c.lru.Len()

	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.next
	if c.filled {
		n = len(c.samples)
	}
	var avg, p95 float64
	if n > 0 {
		window := make([]time.Duration, n)
		copy(window, c.samples[:n])
		sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
		var sum time.Duration
		for _, d := range window {
			sum += d
		}
		avg = float64(sum.Microseconds()) / float64(n) / 1000
		idx := (n * 95) / 100
		if idx >= n {
			idx = n - 1
		}
		p95 = float64(window[idx].Microseconds()) / 1000
	}

	occupancy := float64(entries) / float64(c.capacity) * 100
	var hitRate float64
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	report := Report{
		Capacity:     c.capacity,
		Entries:      entries,
		OccupancyPct: occupancy,
		Hits:         c.hits,
		Misses:       c.misses,
		HitRate:      hitRate,
		Evictions:    c.evictions,
		AvgMs:        avg,
		P95Ms:        p95,
		Status:       StatusOK,
	}
	switch {
	case c.critical > 0 && p95 > float64(c.critical.Milliseconds()):
		report.Status = StatusCritical
		report.Recommendation = "la latencia p95 del caché excede el umbral: revisar contención o tamaño de los valores"
	case occupancy > 90:
		report.Status = StatusWarning
		report.Recommendation = "el caché está sobre el 90% de ocupación: considerar aumentar CACHE_CAPACITY"
	}
	return report
}
