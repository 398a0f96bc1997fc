package cache

import (
	"slices"
	"sync"

	"github.com/OCAP2/beamcore/internal/beam"
)

// WeaponCache holds the weapon registry by name so fire commands and recorders
// resolve weapons without touching storage.
// Weapons are read-only once added; callers must not mutate a cached weapon.
type WeaponCache struct {
	m       sync.RWMutex
	Weapons map[string]*beam.Weapon
}

func NewWeaponCache() *WeaponCache {
	return &WeaponCache{
		Weapons: make(map[string]*beam.Weapon),
	}
}

func (c *WeaponCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.Weapons = make(map[string]*beam.Weapon)
}

// Add registers w under its name, replacing any previous entry. Nil weapons
// and weapons without a name are ignored.
func (c *WeaponCache) Add(w *beam.Weapon) bool {
	if w == nil || w.Name == "" {
		return false
	}
	c.m.Lock()
	defer c.m.Unlock()
	c.Weapons[w.Name] = w
	return true
}

func (c *WeaponCache) Get(name string) (*beam.Weapon, bool) {
	c.m.RLock()
	defer c.m.RUnlock()
	w, ok := c.Weapons[name]
	return w, ok
}

func (c *WeaponCache) Len() int {
	c.m.RLock()
	defer c.m.RUnlock()
	return len(c.Weapons)
}

// Names returns the registered weapon names in sorted order.
func (c *WeaponCache) Names() []string {
	c.m.RLock()
	defer c.m.RUnlock()
	names := make([]string, 0, len(c.Weapons))
	for name := range c.Weapons {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
