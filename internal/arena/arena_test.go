package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/beamcore/pkg/core"
)

type payload struct {
	Name string
}

func TestAcquire_UntilExhausted(t *testing.T) {
	a := New[payload](3)
	for i := 0; i < 3; i++ {
		h, v, err := a.Acquire()
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, uint32(i), h.Index, "lowest index first")
	}
	assert.Equal(t, 3, a.Active())

	_, _, err := a.Acquire()
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 3, a.Active())
}

func TestRelease_StaleImmediately(t *testing.T) {
	a := New[payload](2)
	h, v, err := a.Acquire()
	require.NoError(t, err)
	v.Name = "alpha"

	require.True(t, a.Release(h))
	_, ok := a.Get(h)
	assert.False(t, ok)
	assert.False(t, a.Valid(h))
	assert.Equal(t, 0, a.Active())
}

func TestRelease_DoubleReleaseIsNoop(t *testing.T) {
	a := New[payload](2)
	h, _, _ := a.Acquire()

	assert.True(t, a.Release(h))
	assert.False(t, a.Release(h))
	assert.Equal(t, 1, a.Pending())
	assert.Equal(t, 0, a.Active())
}

func TestRelease_NotReusableUntilRecycle(t *testing.T) {
	a := New[payload](1)
	h, _, _ := a.Acquire()
	a.Release(h)

	_, _, err := a.Acquire()
	assert.ErrorIs(t, err, ErrExhausted, "pending slot must not be reused within the frame")

	assert.Equal(t, 1, a.Recycle())
	h2, v, err := a.Acquire()
	require.NoError(t, err)
	assert.Equal(t, h.Index, h2.Index)
	assert.NotEqual(t, h.Generation, h2.Generation)
	assert.Equal(t, payload{}, *v, "recycled slot is zeroed")

	_, ok := a.Get(h)
	assert.False(t, ok, "old handle does not resolve to the new occupant")
}

func TestGet_NilAndOutOfRange(t *testing.T) {
	a := New[payload](1)
	_, ok := a.Get(core.NilHandle)
	assert.False(t, ok)
	_, ok = a.Get(core.Handle{Index: 7, Generation: 1})
	assert.False(t, ok)
	assert.False(t, a.Release(core.NilHandle))
}

func TestEach_IndexOrderAndEarlyStop(t *testing.T) {
	a := New[payload](4)
	var hs []core.Handle
	for _, name := range []string{"a", "b", "c", "d"} {
		h, v, _ := a.Acquire()
		v.Name = name
		hs = append(hs, h)
	}
	a.Release(hs[1])

	var names []string
	a.Each(func(_ core.Handle, v *payload) bool {
		names = append(names, v.Name)
		return true
	})
	assert.Equal(t, []string{"a", "c", "d"}, names)

	count := 0
	a.Each(func(core.Handle, *payload) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
	assert.Equal(t, []core.Handle{hs[0], hs[2], hs[3]}, a.Handles())
}

func TestCap(t *testing.T) {
	assert.Equal(t, 5, New[int](5).Cap())
}

func TestNewRetained_KeepsValueAcrossRecycle(t *testing.T) {
	prepared := 0
	a := NewRetained(2, func(p *payload) {
		prepared++
		p.Name = "buffer"
	})
	assert.Equal(t, 2, prepared)

	h, v, err := a.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "buffer", v.Name)
	v.Name = "first owner"
	a.Release(h)
	a.Recycle()

	h2, v2, err := a.Acquire()
	require.NoError(t, err)
	assert.Equal(t, h.Index, h2.Index)
	assert.Equal(t, "first owner", v2.Name, "retained slot is handed over untouched")
	assert.False(t, a.Valid(h))
}
