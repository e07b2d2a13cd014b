package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	moerr "github.com/matzehuels/moto/pkg/errors"
	"github.com/matzehuels/moto/pkg/records"
)

func strPtr(s string) *string { return &s }

func seed(t *testing.T) *records.MemoryStore {
	t.Helper()
	ctx := context.Background()
	s := records.NewMemoryStore()
	require.NoError(t, s.Insert(ctx, &records.Profile{ID: "u1", FullName: strPtr("Ada")}))
	require.NoError(t, s.Insert(ctx, &records.Stats{ID: "s1", UserID: "u1", Goal: "$10k", Income: "2500", Clients: 3}))
	return s
}

func TestLoad(t *testing.T) {
	svc := New(seed(t), nil)
	v, err := svc.Load(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, "Welcome, Ada", v.Welcome())
	assert.Equal(t, NoWebsite, v.Website())
	assert.True(t, v.Editable())
	assert.Equal(t, Edit{Goal: "$10k", Income: "2500", Clients: 3}, v.Form())
}

func TestLoadMissingRows(t *testing.T) {
	svc := New(records.NewMemoryStore(), nil)
	v, err := svc.Load(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, v.Profile)
	assert.Nil(t, v.Stats)
	assert.Equal(t, "Welcome, ", v.Welcome())
	assert.False(t, v.Editable())
	assert.Equal(t, Edit{}, v.Form())

	err = svc.Save(context.Background(), v, Edit{Goal: "x"})
	assert.Equal(t, moerr.ErrCodeNotFound, moerr.GetCode(err))

	_, err = svc.Load(context.Background(), "")
	assert.Equal(t, moerr.ErrCodeUnauthorized, moerr.GetCode(err))
}

func TestWebsite(t *testing.T) {
	v := &View{Profile: &records.Profile{Website: strPtr("moto.ai")}}
	assert.Equal(t, "moto.ai", v.Website())
	v.Profile.Website = strPtr("")
	assert.Equal(t, NoWebsite, v.Website())
}

func TestSave(t *testing.T) {
	store := seed(t)
	svc := New(store, nil)
	ctx := context.Background()

	v, err := svc.Load(ctx, "u1")
	require.NoError(t, err)
	before := v.Stats

	require.NoError(t, svc.Save(ctx, v, Edit{Goal: " 20k ", Income: "4k", Clients: 9}))
	assert.Equal(t, "20k", v.Stats.Goal)
	assert.Equal(t, 9, v.Stats.Clients)
	assert.Equal(t, 3, before.Clients, "previous stats value must not be mutated")

	again, err := svc.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Edit{Goal: "20k", Income: "4k", Clients: 9}, again.Form())
}

func TestSaveRejectsInvalidStats(t *testing.T) {
	svc := New(seed(t), nil)
	ctx := context.Background()
	v, err := svc.Load(ctx, "u1")
	require.NoError(t, err)

	err = svc.Save(ctx, v, Edit{Clients: -1})
	assert.Equal(t, moerr.ErrCodeInvalidStats, moerr.GetCode(err))
	assert.Equal(t, 3, v.Stats.Clients)
}

func TestSaveMissingRow(t *testing.T) {
	svc := New(records.NewMemoryStore(), nil)
	v := &View{Stats: &records.Stats{ID: "gone", UserID: "u1"}}
	err := svc.Save(context.Background(), v, Edit{Goal: "1"})
	assert.Equal(t, moerr.ErrCodeNotFound, moerr.GetCode(err))
	assert.Equal(t, "", v.Stats.Goal)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"10000", 10000, true},
		{"$12,500.50/mo", 12500.5, true},
		{"1.2.3", 1.2, true},
		{".5", 0.5, true},
		{"", 0, false},
		{"ten", 0, false},
		{"...", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMetricsFor(t *testing.T) {
	m := MetricsFor(Edit{Goal: "", Income: "2500", Clients: 0})
	assert.Equal(t, DefaultGoal, m.Goal)
	assert.InDelta(t, 0.25, m.Progress, 1e-9)
	assert.False(t, m.GoalMet)
	assert.Equal(t, "25.0%", m.FlowRate())
	assert.InDelta(t, 0.45, m.Glow, 1e-9)
	assert.Equal(t, 20.0, m.Rotation)
	assert.Equal(t, DefaultOrbits, m.Orbits)

	m = MetricsFor(Edit{Goal: "1000", Income: "5000", Clients: 50})
	assert.True(t, m.GoalMet)
	assert.Equal(t, 1.5, m.Glow)
	assert.Equal(t, MinRotationSecs, m.Rotation)
	assert.Equal(t, MaxOrbits, m.Orbits)

	m = MetricsFor(Edit{Goal: "0", Income: "5"})
	assert.Zero(t, m.Progress)
}
