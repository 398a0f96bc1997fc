package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/OCAP2/beamcore/internal/beam"
	"github.com/OCAP2/beamcore/internal/cache"
	"github.com/OCAP2/beamcore/internal/util"
	"github.com/OCAP2/beamcore/pkg/core"
)

// ErrUnknownWeapon is returned when a fire command names a weapon missing from
// the registry.
var ErrUnknownWeapon = errors.New("unknown weapon")

// Service turns text commands into typed requests.
type Service interface {
	ParseFireRequest(args []string) (ParsedFireRequest, error)
}

// parseUintFromFloat parses a string that may be an integer ("32") or float ("32.00") into uint64.
// Senders without an integer type may serialize numbers as floats.
func parseUintFromFloat(s string) (uint64, error) {
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(uint64(f)) {
		return 0, fmt.Errorf("parseUintFromFloat: %q is not a valid uint64", s)
	}
	return uint64(f), nil
}

// parseIntFromFloat parses a string that may be an integer or float into int64.
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int64", s)
	}
	return int64(f), nil
}

// parseHandle reads the "index#generation" form written by core.Handle.String.
// Empty strings and "nil" yield the nil handle.
func parseHandle(s string) (core.Handle, error) {
	if s == "" || s == "nil" {
		return core.NilHandle, nil
	}
	idx, gen, ok := strings.Cut(s, "#")
	if !ok {
		return core.NilHandle, fmt.Errorf("handle %q: missing generation", s)
	}
	i, err := parseUintFromFloat(idx)
	if err != nil || i > 1<<32-1 {
		return core.NilHandle, fmt.Errorf("handle %q: bad index", s)
	}
	g, err := parseUintFromFloat(gen)
	if err != nil || g == 0 || g > 1<<32-1 {
		return core.NilHandle, fmt.Errorf("handle %q: bad generation", s)
	}
	return core.Handle{Index: uint32(i), Generation: uint32(g)}, nil
}

// Parser provides pure []string -> request conversion.
// It depends only on a logger and the weapon registry.
type Parser struct {
	logger  *slog.Logger
	weapons *cache.WeaponCache
}

// NewParser creates a new parser resolving weapons from the given registry
func NewParser(logger *slog.Logger, weapons *cache.WeaponCache) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger:  logger,
		weapons: weapons,
	}
}

// ParseFireRequest parses a replicated fire command.
//
// Arguments: weapon, shooter, mount, target, seed, burst seed, burst shot,
// team, then optional accuracy (default 1) and an optional JSON options object.
// Handles use the "index#generation" form; "nil" marks a floating beam or a
// beam without a target object.
func (p *Parser) ParseFireRequest(args []string) (ParsedFireRequest, error) {
	var out ParsedFireRequest

	if len(args) < minFireArgs {
		return out, fmt.Errorf("fire command: expected at least %d args, got %d", minFireArgs, len(args))
	}
	data := util.CleanArgs(args)

	w, ok := p.weapons.Get(data[argFireWeapon])
	if !ok {
		return out, fmt.Errorf("fire command %q: %w", data[argFireWeapon], ErrUnknownWeapon)
	}
	req := beam.FireRequest{Weapon: w, Accuracy: 1}

	var err error
	if req.Shooter, err = parseHandle(data[argFireShooter]); err != nil {
		return out, fmt.Errorf("error parsing shooter: %w", err)
	}
	mount, err := parseIntFromFloat(data[argFireMount])
	if err != nil {
		return out, fmt.Errorf("error parsing mount: %w", err)
	}
	req.Mount = int(mount)
	if req.Target, err = parseHandle(data[argFireTarget]); err != nil {
		return out, fmt.Errorf("error parsing target: %w", err)
	}
	if req.Seed, err = parseUintFromFloat(data[argFireSeed]); err != nil {
		return out, fmt.Errorf("error parsing seed: %w", err)
	}
	if req.BurstSeed, err = parseUintFromFloat(data[argFireBurstSeed]); err != nil {
		return out, fmt.Errorf("error parsing burst seed: %w", err)
	}
	shot, err := parseIntFromFloat(data[argFireBurstShot])
	if err != nil {
		return out, fmt.Errorf("error parsing burst shot: %w", err)
	}
	req.BurstShot = int(shot)
	team, err := parseIntFromFloat(data[argFireTeam])
	if err != nil {
		return out, fmt.Errorf("error parsing team: %w", err)
	}
	req.Team = int(team)

	if len(data) > argFireAccuracy && data[argFireAccuracy] != "" {
		req.Accuracy, err = strconv.ParseFloat(data[argFireAccuracy], 64)
		if err != nil {
			return out, fmt.Errorf("error parsing accuracy: %w", err)
		}
	}

	if len(data) > argFireOptions && data[argFireOptions] != "" {
		var opts fireOptions
		if err := json.Unmarshal([]byte(data[argFireOptions]), &opts); err != nil {
			return out, fmt.Errorf("error unmarshalling fire options: %w", err)
		}
		if err := applyOptions(&req, opts); err != nil {
			return out, err
		}
	}

	out.Request = req
	out.Targeting = w.Type == core.BeamTargeting

	p.logger.Debug("Parsed fire request",
		"weapon", w.Name,
		"shooter", req.Shooter.String(),
		"target", req.Target.String(),
		"seed", req.Seed)

	return out, nil
}

func applyOptions(req *beam.FireRequest, opts fireOptions) error {
	req.Subsystem = opts.Subsystem
	req.TargetPoint = opts.TargetPoint
	req.StartPoint = opts.StartPoint
	req.ForceFire = opts.ForceFire
	req.SharedAim = opts.SharedAim

	switch len(opts.SlashPoints) {
	case 0:
	case 2:
		pts := [2]core.Vec3{opts.SlashPoints[0], opts.SlashPoints[1]}
		req.SlashPoints = &pts
	default:
		return fmt.Errorf("fire options: slashPoints needs 2 points, got %d", len(opts.SlashPoints))
	}
	return nil
}
