package coefficients

// 2026 grid expectations.
// Tier 1: McLaren, Ferrari, Mercedes. Tier 2: Red Bull, Aston Martin.
//
//nolint:gochecknoglobals // static tables
var (
	tier1Drivers  = []string{"NOR", "PIA", "LEC", "HAM", "RUS", "ANT"}
	tier2Drivers  = []string{"VER", "HAD", "ALO", "STR"}
	eliteDrivers  = []string{"VER", "NOR", "HAM", "LEC", "ALO", "RUS"}
	rookieDrivers = []string{"ANT", "BEA", "HAD", "BOR", "LIN", "COL"}
	otherDrivers  = []string{
		"GAS", "OCO", "ALB", "SAI", "HUL", "LAW", "PER", "BOT",
	}
)

const (
	tier1Bonus       = -0.25
	tier2Bonus       = -0.15
	eliteSkillBonus  = -0.1
	eliteConsistency = 0.25
)

// Season2026 returns the built-in tables.
func Season2026() *Tables {
	drivers := map[string]Driver{}
	upd := func(ids []string, f func(d *Driver)) {
		for _, id := range ids {
			d := drivers[id]
			f(&d)
			drivers[id] = d
		}
	}
	upd(otherDrivers, func(d *Driver) {})
	upd(tier1Drivers, func(d *Driver) { d.TierBonus = ptr(tier1Bonus) })
	upd(tier2Drivers, func(d *Driver) { d.TierBonus = ptr(tier2Bonus) })
	upd(eliteDrivers, func(d *Driver) {
		d.SkillBonus = ptr(eliteSkillBonus)
		d.Consistency = ptr(eliteConsistency)
		d.ElitePasser = true
	})
	upd(rookieDrivers, func(d *Driver) { d.Rookie = true })

	tracks := map[string]Track{
		"Monaco":        {PassDifficulty: ptr(0.95), LapCount: ptr(78), SafetyCarProbability: ptr(0.8)},
		"Singapore":     {PassDifficulty: ptr(0.85), LapCount: ptr(62), SafetyCarProbability: ptr(1.0)},
		"Madrid":        {PassDifficulty: ptr(0.85), LapCount: ptr(55), SafetyCarProbability: ptr(0.9)},
		"Hungary":       {PassDifficulty: ptr(0.7)},
		"Great Britain": {PassDifficulty: ptr(0.4), LapCount: ptr(52), SafetyCarProbability: ptr(0.6)},
		"Belgium":       {PassDifficulty: ptr(0.2), LapCount: ptr(44)},
		"Bahrain":       {PassDifficulty: ptr(0.3)},
		"Las Vegas":     {LapCount: ptr(50)},
	}
	return NewTables(drivers, tracks, StandardDefaults())
}

func ptr[T any](v T) *T {
	return &v
}
