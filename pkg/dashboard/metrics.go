package dashboard

import (
	"math"
	"strconv"
	"strings"
)

// Visualizer defaults.
const (
	DefaultGoal      = 10000.0
	MaxOrbits        = 20
	DefaultOrbits    = 5
	MinRotationSecs  = 2.0
	BaseRotationSecs = 20.0
)

// Metrics are the derived figures of the flow-rate visualizer.
type Metrics struct {
	Goal     float64 `json:"goal"`     // parsed goal, DefaultGoal when unparseable
	Income   float64 `json:"income"`   // parsed income, 0 when unparseable
	Progress float64 `json:"progress"` // Income/Goal, 0 when Goal <= 0
	GoalMet  bool    `json:"goal_met"`
	Glow     float64 `json:"glow"`     // min(Progress+0.2, 1.5)
	Rotation float64 `json:"rotation"` // seconds per orbit; more clients spin faster
	Orbits   int     `json:"orbits"`   // satellites drawn around the core
}

// FlowRate formats Progress as a percentage with one decimal.
func (m Metrics) FlowRate() string {
	return strconv.FormatFloat(m.Progress*100, 'f', 1, 64) + "%"
}

// MetricsFor derives the visualizer figures from the free-text form values.
func MetricsFor(e Edit) Metrics {
	m := Metrics{Goal: DefaultGoal}
	if v, ok := ParseAmount(e.Goal); ok {
		m.Goal = v
	}
	if v, ok := ParseAmount(e.Income); ok {
		m.Income = v
	}
	if m.Goal > 0 {
		m.Progress = m.Income / m.Goal
	}
	m.GoalMet = m.Progress >= 1
	m.Glow = math.Min(m.Progress+0.2, 1.5)
	m.Rotation = math.Max(BaseRotationSecs-float64(e.Clients)*0.5, MinRotationSecs)
	m.Orbits = e.Clients
	if m.Orbits == 0 {
		m.Orbits = DefaultOrbits
	}
	m.Orbits = max(min(m.Orbits, MaxOrbits), 0)
	return m
}

// ParseAmount reads a number out of text like "$12,500.50/mo". Everything
// but digits and dots is dropped, then the longest leading decimal is
// parsed, so "1.2.3" reads as 1.2.
func ParseAmount(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if r == '.' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	end, dot := 0, false
	for end < len(digits) {
		if digits[end] == '.' {
			if dot {
				break
			}
			dot = true
		}
		end++
	}
	digits = digits[:end]
	if digits == "" || digits == "." {
		return 0, false
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
