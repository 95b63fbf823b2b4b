package loyalty

import "math"

// Curve defines a shop's XP growth parameters. Level 1 is reached at 0 XP;
// the step from level n-1 to n (n >= 2) costs round(base * rate^(n-2)) XP.
type Curve struct {
	BaseXP     int     `json:"base_xp"`
	GrowthRate float64 `json:"growth_rate"`
	MaxLevel   int     `json:"max_level"`
}

// Progress describes where a given XP total sits on the curve.
type Progress struct {
	Level         int     `json:"level"`
	XPIntoLevel   int     `json:"xp_into_level"`
	XPForNext     int     `json:"xp_for_next"`
	PercentToNext float64 `json:"percent_to_next"`
	TotalXP       int     `json:"total_xp"`
}

// XPForSpend converts an order total into XP: one point per whole dollar.
func XPForSpend(totalCents int) int {
	if totalCents <= 0 {
		return 0
	}
	return totalCents / 100
}

// StepFor returns the XP cost of the step that reaches level. Levels below 2
// cost nothing.
func (c Curve) StepFor(level int) int {
	if level < 2 {
		return 0
	}
	return int(math.Round(float64(c.BaseXP) * math.Pow(c.GrowthRate, float64(level-2))))
}

// CumulativeFor returns the total XP needed to reach level.
func (c Curve) CumulativeFor(level int) int {
	total := 0
	for l := 2; l <= level; l++ {
		total += c.StepFor(l)
	}
	return total
}

// ProgressFor locates xp on the curve. At the max level the percent is pinned
// to 100 and the next step is zero.
func (c Curve) ProgressFor(xp int) Progress {
	if xp < 0 {
		xp = 0
	}

	level := 1
	floor := 0
	for level < c.MaxLevel {
		step := c.StepFor(level + 1)
		if xp < floor+step {
			break
		}
		floor += step
		level++
	}

	if level >= c.MaxLevel {
		return Progress{
			Level:         c.MaxLevel,
			XPIntoLevel:   xp - floor,
			XPForNext:     0,
			PercentToNext: 100,
			TotalXP:       xp,
		}
	}

	step := c.StepFor(level + 1)
	into := xp - floor
	percent := 0.0
	if step > 0 {
		percent = math.Round(float64(into)/float64(step)*10000) / 100
	}
	return Progress{
		Level:         level,
		XPIntoLevel:   into,
		XPForNext:     step,
		PercentToNext: percent,
		TotalXP:       xp,
	}
}
