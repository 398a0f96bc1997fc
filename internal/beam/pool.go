package beam

import (
	"math/rand/v2"

	"github.com/OCAP2/beamcore/internal/arena"
	"github.com/OCAP2/beamcore/pkg/core"
)

// pool is the beam slot allocator. Slots released during a frame are recycled
// at the next frame start.
type pool struct {
	slots *arena.Arena[Beam]
}

// newPool preallocates every slot's collision, cooldown and shot buffers and
// its random source; initBeam reuses them so firing does not allocate.
func newPool(capacity, maxCollisions, maxShots int) *pool {
	return &pool{slots: arena.NewRetained(capacity, func(b *Beam) {
		b.collisions = make([]Collision, 0, maxCollisions)
		b.recent = make([]recentHit, 0, maxCollisions)
		b.aim.ShotAim = make([]core.Vec3, 0, maxShots)
		b.src = rand.NewPCG(0, 0)
		b.rng = rand.New(b.src)
	})}
}

func (p *pool) acquire() (*Beam, error) {
	h, b, err := p.slots.Acquire()
	if err != nil {
		return nil, ErrPoolExhausted
	}
	b.handle = h
	return b, nil
}

func (p *pool) release(h core.Handle) bool {
	return p.slots.Release(h)
}

func (p *pool) get(h core.Handle) (*Beam, bool) {
	return p.slots.Get(h)
}

func (p *pool) recycle() int {
	return p.slots.Recycle()
}

// live returns the active beams in slot order.
func (p *pool) live() []*Beam {
	out := make([]*Beam, 0, p.slots.Active())
	p.slots.Each(func(_ core.Handle, b *Beam) bool {
		out = append(out, b)
		return true
	})
	return out
}

func (p *pool) active() int { return p.slots.Active() }
