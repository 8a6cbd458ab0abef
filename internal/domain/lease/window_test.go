//go:build unit

package lease_test

import (
	"testing"
	"time"

	"slotlease/internal/domain/lease"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWindow(t *testing.T, start, end time.Time) lease.Window {
	t.Helper()
	w, err := lease.NewWindow(start, end)
	require.NoError(t, err)
	return w
}

func TestNewWindow(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := lease.NewWindow(base, base.Add(24*time.Hour))
	assert.NoError(t, err)

	_, err = lease.NewWindow(base, base)
	assert.ErrorIs(t, err, lease.ErrInvalidWindow)

	_, err = lease.NewWindow(base.Add(time.Hour), base)
	assert.ErrorIs(t, err, lease.ErrInvalidWindow)
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name string
		a    lease.Window
		b    lease.Window
		want bool
	}{
		{
			name: "identical windows overlap",
			a:    mustWindow(t, base, base.Add(day)),
			b:    mustWindow(t, base, base.Add(day)),
			want: true,
		},
		{
			name: "partial overlap",
			a:    mustWindow(t, base, base.Add(day)),
			b:    mustWindow(t, base.Add(12*time.Hour), base.Add(36*time.Hour)),
			want: true,
		},
		{
			name: "containment overlaps",
			a:    mustWindow(t, base, base.Add(3*day)),
			b:    mustWindow(t, base.Add(day), base.Add(2*day)),
			want: true,
		},
		{
			name: "back to back does not overlap",
			a:    mustWindow(t, base, base.Add(day)),
			b:    mustWindow(t, base.Add(day), base.Add(2*day)),
			want: false,
		},
		{
			name: "disjoint",
			a:    mustWindow(t, base, base.Add(day)),
			b:    mustWindow(t, base.Add(2*day), base.Add(3*day)),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestContains(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	w := mustWindow(t, base, base.Add(24*time.Hour))

	assert.True(t, w.Contains(base), "start is inside the half-open interval")
	assert.True(t, w.Contains(base.Add(23*time.Hour)))
	assert.False(t, w.Contains(base.Add(24*time.Hour)), "end is outside")
	assert.False(t, w.Contains(base.Add(-time.Second)))
}
