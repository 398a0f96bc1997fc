package parser

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/beamcore/internal/beam"
	"github.com/OCAP2/beamcore/internal/cache"
	"github.com/OCAP2/beamcore/pkg/core"
)

func newTestParser() *Parser {
	weapons := cache.NewWeaponCache()
	weapons.Add(&beam.Weapon{Name: "SRed", Type: core.BeamDirectFire, Range: 2500, Life: 3 * time.Second})
	weapons.Add(&beam.Weapon{Name: "TargetLaser", Type: core.BeamTargeting, Range: 1500})
	weapons.Add(&beam.Weapon{Name: "Slasher", Type: core.BeamSlashing, Range: 2000, Life: 2 * time.Second})
	return NewParser(slog.Default(), weapons)
}

func TestNewParser(t *testing.T) {
	p := newTestParser()
	require.NotNil(t, p)
}

func TestParseUintFromFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    uint64
		wantErr bool
	}{
		{"integer", "32", 32, false},
		{"zero", "0", 0, false},
		{"float with decimals", "32.00", 32, false},
		{"float with trailing zero", "30.0", 30, false},
		{"large integer", "65535", 65535, false},
		{"large float", "65535.00", 65535, false},
		{"fractional rejects", "10.99", 0, true},
		{"empty string", "", 0, true},
		{"non-numeric", "abc", 0, true},
		{"negative", "-1", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseUintFromFloat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseIntFromFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"integer", "32", 32, false},
		{"zero", "0", 0, false},
		{"negative integer", "-1", -1, false},
		{"float with decimals", "32.00", 32, false},
		{"negative float", "-1.00", -1, false},
		{"large integer", "65535", 65535, false},
		{"fractional rejects", "10.99", 0, true},
		{"empty string", "", 0, true},
		{"non-numeric", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIntFromFloat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseHandle(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    core.Handle
		wantErr bool
	}{
		{"nil word", "nil", core.NilHandle, false},
		{"empty", "", core.NilHandle, false},
		{"index and generation", "12#3", core.Handle{Index: 12, Generation: 3}, false},
		{"float encoded", "12.00#3.0", core.Handle{Index: 12, Generation: 3}, false},
		{"missing generation", "12", core.NilHandle, true},
		{"zero generation", "12#0", core.NilHandle, true},
		{"bad index", "x#1", core.NilHandle, true},
		{"overflow", "4294967296#1", core.NilHandle, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHandle(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFireRequest(t *testing.T) {
	p := newTestParser()

	got, err := p.ParseFireRequest([]string{`"SRed"`, "4#1", "2", "7#2", "991", "17", "0", "1"})
	require.NoError(t, err)

	req := got.Request
	assert.False(t, got.Targeting)
	assert.Equal(t, "SRed", req.Weapon.Name)
	assert.Equal(t, core.Handle{Index: 4, Generation: 1}, req.Shooter)
	assert.Equal(t, 2, req.Mount)
	assert.Equal(t, core.Handle{Index: 7, Generation: 2}, req.Target)
	assert.Equal(t, uint64(991), req.Seed)
	assert.Equal(t, uint64(17), req.BurstSeed)
	assert.Equal(t, 0, req.BurstShot)
	assert.Equal(t, 1, req.Team)
	assert.Equal(t, 1.0, req.Accuracy)
	assert.Nil(t, req.SlashPoints)
}

func TestParseFireRequest_Targeting(t *testing.T) {
	p := newTestParser()

	got, err := p.ParseFireRequest([]string{"TargetLaser", "4#1", "0", "nil", "5", "0", "0", "2", "0.5"})
	require.NoError(t, err)

	assert.True(t, got.Targeting)
	assert.True(t, got.Request.Target.IsNil())
	assert.Equal(t, 0.5, got.Request.Accuracy)
}

func TestParseFireRequest_Options(t *testing.T) {
	p := newTestParser()

	opts := `"{""subsystem"":3,""startPoint"":[1,2,3],""slashPoints"":[[0,0,100],[50,0,100]],""forceFire"":true,""sharedAim"":true}"`
	got, err := p.ParseFireRequest([]string{"Slasher", "nil", "0", "nil", "5", "0", "0", "2", "", opts})
	require.NoError(t, err)

	req := got.Request
	assert.True(t, req.Shooter.IsNil())
	require.NotNil(t, req.Subsystem)
	assert.Equal(t, 3, *req.Subsystem)
	require.NotNil(t, req.StartPoint)
	assert.Equal(t, core.Vec3{1, 2, 3}, *req.StartPoint)
	require.NotNil(t, req.SlashPoints)
	assert.Equal(t, core.Vec3{50, 0, 100}, req.SlashPoints[1])
	assert.True(t, req.ForceFire)
	assert.True(t, req.SharedAim)
	assert.Equal(t, 1.0, req.Accuracy, "empty accuracy keeps the default")
}

func TestParseFireRequest_Errors(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name string
		args []string
		is   error
	}{
		{"too few args", []string{"SRed", "4#1"}, nil},
		{"unknown weapon", []string{"Nope", "4#1", "0", "7#2", "1", "0", "0", "1"}, ErrUnknownWeapon},
		{"bad shooter", []string{"SRed", "4", "0", "7#2", "1", "0", "0", "1"}, nil},
		{"bad mount", []string{"SRed", "4#1", "x", "7#2", "1", "0", "0", "1"}, nil},
		{"bad seed", []string{"SRed", "4#1", "0", "7#2", "-1", "0", "0", "1"}, nil},
		{"bad accuracy", []string{"SRed", "4#1", "0", "7#2", "1", "0", "0", "1", "fast"}, nil},
		{"bad options", []string{"SRed", "4#1", "0", "7#2", "1", "0", "0", "1", "", "{"}, nil},
		{"one slash point", []string{"SRed", "4#1", "0", "7#2", "1", "0", "0", "1", "", `{"slashPoints":[[1,0,0]]}`}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseFireRequest(tt.args)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestParser_ImplementsService(t *testing.T) {
	var _ Service = newTestParser()
}
