package cache

import (
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt int64
}

// Cache es un mapa con expiración usado para los listados públicos
// y para el estado de las importaciones en curso
type Cache struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// New crea un caché y arranca la limpieza periódica de entradas vencidas
func New(defaultTTL time.Duration, cleanupEvery time.Duration) *Cache {
	c := &Cache{
		items: make(map[string]entry),
		ttl:   defaultTTL,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if cleanupEvery > 0 {
		go c.cleanupExpired(cleanupEvery)
	}
	return c
}

// Set guarda un valor; sin ttl explícito usa el del caché
func (c *Cache) Set(key string, value any, ttl ...time.Duration) {
	duration := c.ttl
	if len(ttl) > 0 {
		duration = ttl[0]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{value: value, expiresAt: c.now().Add(duration).UnixNano()}
}

// Get obtiene un valor si existe y no venció
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found || c.now().UnixNano() > item.expiresAt {
		return nil, false
	}
	return item.value, true
}

// Delete elimina una clave
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// DeleteByPrefix elimina todas las claves que empiecen con el prefijo
func (c *Cache) DeleteByPrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}

// Len retorna el número de entradas, vencidas o no
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close detiene la limpieza periódica
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.purge()
		}
	}
}

func (c *Cache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UnixNano()
	for key, item := range c.items {
		if now > item.expiresAt {
			delete(c.items, key)
		}
	}
}
