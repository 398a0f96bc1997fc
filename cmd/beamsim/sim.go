package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/OCAP2/beamcore/internal/beam"
	"github.com/OCAP2/beamcore/internal/config"
	"github.com/OCAP2/beamcore/internal/dispatcher"
	"github.com/OCAP2/beamcore/internal/logging"
	"github.com/OCAP2/beamcore/internal/monitor"
	"github.com/OCAP2/beamcore/internal/world"
	"github.com/OCAP2/beamcore/internal/worker"
	"github.com/OCAP2/beamcore/pkg/core"
)

// worldCapacity bounds the reference world; the scenario uses a handful of slots.
const worldCapacity = 256

// simOptions control one simulation run.
type simOptions struct {
	Frames     uint64
	FPS        int
	Seed       uint64
	StatsEvery uint64
}

func simOptionsFromConfig() simOptions {
	return simOptions{
		Frames:     uint64(max(config.GetInt("sim.frames"), 0)),
		FPS:        config.GetInt("sim.fps"),
		Seed:       uint64(max(config.GetInt("sim.seed"), 0)),
		StatsEvery: uint64(max(config.GetInt("sim.statsEvery"), 0)),
	}
}

func (o simOptions) delta() time.Duration {
	if o.FPS <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(o.FPS)
}

// beamSettings maps configuration onto the core's tuning.
func beamSettings(c config.BeamSettings) beam.Settings {
	return beam.Settings{
		MaxBeams:           c.MaxBeams,
		MaxFrameCollisions: c.MaxFrameCollisions,
		MaxShots:           c.MaxShots,
		DamageTime:         c.DamageTime,
		ToolingTime:        c.ToolingTime,
		AreaPercent:        c.AreaPercent,
		SkillLevel:         c.SkillLevel,
		FriendlyCap:        c.FriendlyCap,
		NonAuthoritative:   !c.Authoritative,
		Whack: beam.WhackSettings{
			Small:           c.Whack.Small,
			Big:             c.Whack.Big,
			DamageThreshold: c.Whack.Damage,
			LegacyMass:      c.Whack.LegacyMass,
		},
	}
}

// simulator steps the reference world and the beam system frame by frame.
type simulator struct {
	logger     *slog.Logger
	world      *world.World
	system     *beam.System
	dispatcher *dispatcher.Dispatcher
	monitor    *monitor.Service
	tracker    *logging.FrameTracker
	scenario   *scenario
}

// runSummary reports the outcome of a run.
type runSummary struct {
	Frames    uint64
	Commands  int
	Rejected  int
	Destroyed []string
	Hull      map[string]float64
}

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// run plays the scenario. It stops early when ctx is cancelled.
func (s *simulator) run(ctx context.Context, opts simOptions) runSummary {
	sum := runSummary{Hull: make(map[string]float64)}
	delta := opts.delta()
	dying := make(map[core.Handle]bool)

	for frame := uint64(1); frame <= opts.Frames; frame++ {
		if ctx.Err() != nil {
			s.logger.Warn("Simulation interrupted", "frame", frame)
			break
		}
		s.tracker.SetFrame(frame)

		for _, sh := range s.scenario.shotsAt(frame) {
			sum.Commands++
			res, err := s.dispatcher.Dispatch(dispatcher.Event{
				Command:   worker.CmdFire,
				Args:      sh.Args,
				Frame:     frame,
				Timestamp: time.Now(),
			})
			if err != nil {
				sum.Rejected++
				s.logger.Debug("Fire command rejected", "weapon", sh.Args[0], "error", err)
				continue
			}
			s.logger.Debug("Beam fired", "weapon", sh.Args[0], "beam", res)
		}

		// bodies move first so beam origins track this frame's poses
		f := beam.Frame{Number: frame, Delta: delta}
		s.world.Move(delta.Seconds())
		s.system.PreMove(s.world, f)
		s.system.CheckCollisions(s.world)
		s.system.PostMove(s.world, f)

		for name, h := range s.scenario.Ships {
			o, ok := s.world.Object(h)
			if !ok || dying[h] || o.Hull > 0 {
				continue
			}
			dying[h] = true
			o.Dying = true
			stopped := s.system.StopAll(h)
			sum.Destroyed = append(sum.Destroyed, name)
			s.logger.Info("Ship destroyed", "ship", name, "beamsStopped", stopped)
		}

		if s.monitor != nil {
			s.monitor.OnFrame(frame)
		}
		sum.Frames = frame
	}

	for name, h := range s.scenario.Ships {
		sum.Hull[name] = s.world.Hull(h)
	}
	return sum
}
