// Package beam implements the beam weapon core: slot pool, per-type aiming and
// movement, the per-frame collision pipeline, damage and impulse application,
// and the warmup, firing and warmdown lifecycle.
package beam

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/OCAP2/beamcore/pkg/core"
)

// Frame describes one simulation tick.
type Frame struct {
	Number uint64
	Delta  time.Duration
	Paused bool
}

// Option configures a System.
type Option func(*System)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *System) {
		s.logger = l
	}
}

// WithSink sets the event sink. Defaults to NopSink.
func WithSink(sink EventSink) Option {
	return func(s *System) {
		s.sink = sink
	}
}

// WithClock sets the wall clock used to stamp events.
func WithClock(clock func() time.Time) Option {
	return func(s *System) {
		s.clock = clock
	}
}

type aimKey struct {
	shooter     core.Handle
	target      core.Handle
	targetPoint core.Vec3
	weapon      string
}

type frameStats struct {
	collisions int
	firing     int
	damage     float64
	rejected   int
}

// System owns every live beam. All methods must be called from the
// simulation thread, except ActiveCount and Stats.
type System struct {
	settings Settings
	pool     *pool
	logger   *slog.Logger
	sink     EventSink
	metrics  *metrics
	clock    func() time.Time

	now     time.Duration
	frame   uint64
	paused  bool
	nextSig uint64

	sharedAim map[aimKey]aimRecord
	burstSrc  *rand.PCG
	burstRng  *rand.Rand

	stats  frameStats
	last   atomic.Pointer[core.FrameStats]
	active atomic.Int64
}

// NewSystem creates a beam system with a pool of settings.MaxBeams slots.
func NewSystem(settings Settings, opts ...Option) (*System, error) {
	settings = settings.normalize()
	s := &System{
		settings:  settings,
		pool:      newPool(settings.MaxBeams, settings.MaxFrameCollisions, settings.MaxShots),
		logger:    slog.Default(),
		sink:      NopSink{},
		clock:     time.Now,
		sharedAim: make(map[aimKey]aimRecord),
		burstSrc:  rand.NewPCG(0, 0),
	}
	s.burstRng = rand.New(s.burstSrc)
	for _, opt := range opts {
		opt(s)
	}
	s.last.Store(&core.FrameStats{})

	m, err := newMetrics(s)
	if err != nil {
		return nil, err
	}
	s.metrics = m
	return s, nil
}

// Close releases the system's metric registrations. Beams still in the pool
// are left as they are. Safe to call more than once.
func (s *System) Close() error {
	if err := s.metrics.unregister(); err != nil {
		return fmt.Errorf("unregistering beam metrics: %w", err)
	}
	return nil
}

// Settings returns the normalized settings.
func (s *System) Settings() Settings { return s.settings }

// Now returns the simulation clock, which stops while paused.
func (s *System) Now() time.Duration { return s.now }

func (s *System) wallTime() time.Time { return s.clock() }

// Fire creates a beam in WARMUP.
func (s *System) Fire(ctx Context, req FireRequest) (core.Handle, error) {
	return s.fire(ctx, req, false)
}

// FireTargeting creates a targeting beam, which fires immediately and is
// removed when its life runs out. A weapon with no life lasts one frame.
func (s *System) FireTargeting(ctx Context, req FireRequest) (core.Handle, error) {
	return s.fire(ctx, req, true)
}

func (s *System) fire(ctx Context, req FireRequest, targeting bool) (core.Handle, error) {
	_, _, err := req.validate(ctx, targeting)
	if err != nil {
		s.reject(err)
		return core.NilHandle, fmt.Errorf("fire: %w", err)
	}

	b, err := s.pool.acquire()
	if err != nil {
		s.logger.Warn("beam pool exhausted", "weapon", req.Weapon.Name, "max", s.settings.MaxBeams)
		s.reject(err)
		return core.NilHandle, err
	}
	s.nextSig++
	s.initBeam(ctx, b, req, s.nextSig, targeting)
	s.active.Store(int64(s.pool.active()))

	start, orient, _ := origin(ctx, b)
	b.start = start
	s.resolveAim(ctx, b, orient)
	b.kind.advance(s, ctx, b, orient)

	s.metrics.addFired(b.weapon.Name)
	s.logger.Debug("beam fired",
		"beam", b.handle, "signature", b.signature, "weapon", b.weapon.Name,
		"type", b.weapon.Type, "shooter", b.shooter, "target", b.target)
	s.sink.BeamFired(core.BeamFiredEvent{
		Signature:    b.signature,
		Time:         s.wallTime(),
		Frame:        s.frame,
		Weapon:       b.weapon.Name,
		BeamType:     b.weapon.Type,
		Shooter:      b.shooter,
		Target:       b.target,
		Team:         b.team,
		Seed:         b.seed,
		Start:        b.start,
		End:          b.end,
		LifeTotal:    b.lifeTotal,
		Targeting:    targeting,
		SharedAim:    b.caps.has(capSharedAim),
		AimDirection: orient.ToWorld(b.aim.DirA).Normalize(),
	})
	return b.handle, nil
}

func (s *System) initBeam(ctx Context, b *Beam, req FireRequest, sig uint64, targeting bool) {
	h := b.handle
	collisions, recent, shots := b.collisions[:0], b.recent[:0], b.aim.ShotAim[:0]
	src, rng := b.src, b.rng
	*b = Beam{
		handle:     h,
		signature:  sig,
		weapon:     req.Weapon,
		kind:       aimerFor(req.Weapon.Type),
		shooter:    req.Shooter,
		mount:      req.Mount,
		target:     req.Target,
		subsystem:  noSubsystem,
		team:       req.Team,
		accuracy:   req.Accuracy,
		widthScale: 1,
		lifeTotal:  req.Weapon.Life,
		lifeLeft:   req.Weapon.Life,
		collisions: collisions,
		recent:     recent,
		src:        src,
		rng:        rng,
		seed:       req.Seed,
		burstSeed:  req.BurstSeed,
		burstShot:  req.BurstShot,
	}
	if req.Subsystem != nil {
		b.subsystem = *req.Subsystem
	}
	if b.seed == 0 {
		b.seed = sig
	}
	if b.burstSeed == 0 {
		b.burstSeed = b.seed
	}
	b.aim.ShotAim = shots
	seedSource(b.src, b.seed)

	if req.floating() {
		b.caps |= capFloating
		b.startPoint = *req.StartPoint
	} else if m, ok := ctx.Mount(req.Shooter, req.Mount); ok && m.Fighter {
		b.caps |= capFighter
	}
	if req.Target.IsNil() && req.TargetPoint != nil {
		b.caps |= capExplicitTarget
		b.targetPoint = *req.TargetPoint
	}
	if req.SlashPoints != nil {
		b.slashPoints = *req.SlashPoints
		b.hasSlash = true
	}
	if req.ForceFire {
		b.caps |= capForceFire
	}
	if req.SharedAim {
		b.caps |= capSharedAim
	}

	if targeting {
		b.state = core.StateFiring
		if b.lifeTotal <= 0 {
			b.caps |= capSingleFrame
		}
		return
	}
	b.state = core.StateWarmup
	b.warmupDeadline = s.now + req.Weapon.Warmup
}

// resolveAim computes the beam's firing geometry, or copies it from the first
// beam fired this frame by the same shooter with the same weapon at the same
// target object or target point.
func (s *System) resolveAim(ctx Context, b *Beam, orient core.Matrix) {
	if !b.caps.has(capSharedAim) {
		b.aim = b.kind.computeAim(s, ctx, b, orient)
		return
	}
	key := aimKey{shooter: b.shooter, target: b.target, weapon: b.weapon.Name}
	if b.caps.has(capExplicitTarget) {
		key.targetPoint = b.targetPoint
	}
	if ref, ok := s.sharedAim[key]; ok {
		shots := b.aim.ShotAim[:0]
		b.aim = ref
		b.aim.ShotAim = append(shots, ref.ShotAim...)
		return
	}
	b.aim = b.kind.computeAim(s, ctx, b, orient)
	s.sharedAim[key] = b.aim
}

func (s *System) reject(err error) {
	s.stats.rejected++
	s.metrics.addRejected(rejectReason(err))
}

// Stop requests a graceful warmdown.
func (s *System) Stop(h core.Handle) error {
	b, ok := s.pool.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	s.beginWarmdown(b, ReasonStopped)
	return nil
}

// Kill destroys a beam immediately, skipping warmdown.
func (s *System) Kill(h core.Handle) error {
	b, ok := s.pool.get(h)
	if !ok {
		return ErrInvalidHandle
	}
	s.destroy(b, ReasonKilled)
	return nil
}

// StopAll warms down every beam fired by shooter and returns how many were stopped.
func (s *System) StopAll(shooter core.Handle) int {
	n := 0
	for _, b := range s.pool.live() {
		if b.shooter != shooter || b.state == core.StateWarmdown {
			continue
		}
		s.beginWarmdown(b, ReasonStopped)
		n++
	}
	return n
}

// PreMove runs after every other body has moved: it recycles slots released
// last frame, validates shooters, advances warmup and warmdown, tracks origins
// and moves firing beams.
func (s *System) PreMove(ctx Context, f Frame) {
	s.frame = f.Number
	s.paused = f.Paused
	if !f.Paused {
		s.now += f.Delta
	}
	s.pool.recycle()
	clear(s.sharedAim)
	s.stats = frameStats{}

	for _, b := range s.pool.live() {
		b.collisions = b.collisions[:0]

		if !s.shooterValid(ctx, b) {
			s.logger.Debug("beam shooter invalid", "beam", b.handle, "shooter", b.shooter)
			s.destroy(b, ReasonShooterInvalid)
			continue
		}

		start, orient, _ := origin(ctx, b)
		b.start = start

		switch b.state {
		case core.StateWarmup:
			if s.now < b.warmupDeadline {
				continue
			}
			if ok, reason := s.okToFire(ctx, b); ok {
				s.startFiring(ctx, b, orient)
			} else {
				s.beginWarmdown(b, reason)
			}
		case core.StateWarmdown:
			if s.now >= b.warmdownDeadline {
				s.destroy(b, ReasonWarmdownDone)
			}
		case core.StateFiring:
			b.kind.advance(s, ctx, b, orient)
		}
	}
}

// CheckCollisions runs the collision pipeline for every firing beam against
// the frame's candidate bodies.
func (s *System) CheckCollisions(ctx Context) {
	candidates := ctx.Candidates()
	for _, b := range s.pool.live() {
		s.collideBeam(ctx, b, candidates)
		s.stats.collisions += len(b.collisions)
	}
}

// PostMove applies the frame's hits, counts down life and runs the lifecycle
// transitions that depend on it.
func (s *System) PostMove(ctx Context, f Frame) {
	for _, b := range s.pool.live() {
		if b.state != core.StateFiring {
			continue
		}
		s.stats.firing++

		if s.settings.Authoritative() && !f.Paused {
			s.applyHits(ctx, b, f.Delta)
			if !s.drainEnergy(ctx, b, f.Delta) {
				s.beginWarmdown(b, ReasonNoEnergy)
				continue
			}
		}

		if !f.Paused {
			dec := f.Delta
			if s.shooterDying(ctx, b) {
				dec *= 2
			}
			b.lifeLeft -= dec
			s.updateWidth(b, f.Delta)
		}

		if b.lifeLeft <= 0 {
			b.lifeLeft = 0
			if b.caps.has(capSingleFrame) || b.weapon.Type == core.BeamTargeting {
				s.destroy(b, ReasonLifeExpired)
			} else {
				s.beginWarmdown(b, ReasonLifeExpired)
			}
			continue
		}

		if ok, reason := s.okToFire(ctx, b); !ok {
			s.beginWarmdown(b, reason)
		}
	}

	s.last.Store(&core.FrameStats{
		Time:           s.wallTime(),
		Frame:          s.frame,
		ActiveBeams:    s.pool.active(),
		Firing:         s.stats.firing,
		Collisions:     s.stats.collisions,
		DamageApplied:  s.stats.damage,
		Rejected:       s.stats.rejected,
		FrameTimeMilli: float32(f.Delta.Seconds() * 1000),
	})
}

// Step runs a whole frame.
func (s *System) Step(ctx Context, f Frame) {
	s.PreMove(ctx, f)
	s.CheckCollisions(ctx)
	s.PostMove(ctx, f)
}

// State returns the lifecycle state of a live beam.
func (s *System) State(h core.Handle) (core.BeamState, bool) {
	b, ok := s.pool.get(h)
	if !ok {
		return core.StateDestroyed, false
	}
	return b.state, true
}

// Snapshot returns the render-facing view of a live beam.
func (s *System) Snapshot(h core.Handle) (Snapshot, bool) {
	b, ok := s.pool.get(h)
	if !ok {
		return Snapshot{}, false
	}
	snap := Snapshot{
		Handle:     b.handle,
		Signature:  b.signature,
		Weapon:     b.weapon.Name,
		Type:       b.weapon.Type,
		State:      b.state,
		Shooter:    b.shooter,
		Target:     b.target,
		Start:      b.start,
		End:        b.end,
		WidthScale: b.widthScale,
		LifeLeft:   b.lifeLeft,
		LifeTotal:  b.lifeTotal,
		Safe:       b.safe,
		ShotIndex:  b.aim.ShotIndex,
		ShotCount:  b.aim.ShotCount,
	}
	switch b.state {
	case core.StateWarmup:
		snap.WarmupFraction = phaseFraction(b.warmupDeadline, b.weapon.Warmup, s.now)
	case core.StateWarmdown:
		snap.WarmdownFraction = phaseFraction(b.warmdownDeadline, b.weapon.Warmdown, s.now)
	case core.StateFiring:
		snap.WarmupFraction = 1
	}
	return snap, true
}

func phaseFraction(deadline, length, now time.Duration) float64 {
	if length <= 0 {
		return 1
	}
	left := deadline - now
	if left <= 0 {
		return 1
	}
	return 1 - float64(left)/float64(length)
}

// CollisionCount returns the number of resolved collisions this frame.
func (s *System) CollisionCount(h core.Handle) int {
	b, ok := s.pool.get(h)
	if !ok {
		return 0
	}
	return len(b.collisions)
}

// Collision returns the i-th resolved collision of this frame, nearest first.
func (s *System) Collision(h core.Handle, i int) (Collision, bool) {
	b, ok := s.pool.get(h)
	if !ok || i < 0 || i >= len(b.collisions) {
		return Collision{}, false
	}
	return b.collisions[i], true
}

// Handles returns every live beam in slot order.
func (s *System) Handles() []core.Handle {
	out := make([]core.Handle, 0, s.pool.active())
	for _, b := range s.pool.live() {
		out = append(out, b.handle)
	}
	return out
}

// ActiveCount returns the number of beams holding a pool slot.
func (s *System) ActiveCount() int {
	return int(s.active.Load())
}

// Stats returns the statistics of the last completed frame.
func (s *System) Stats() core.FrameStats {
	return *s.last.Load()
}
