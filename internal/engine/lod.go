package engine

// DetailTier is the rendering fidelity selected for the current zoom level.
type DetailTier int

const (
	// TierAbstract renders objects as simple markers (zoomed far out).
	TierAbstract DetailTier = iota
	// TierMedium renders titles and outlines.
	TierMedium
	// TierFull renders complete object content (zoomed in).
	TierFull
)

func (t DetailTier) String() string {
	switch t {
	case TierFull:
		return "full"
	case TierMedium:
		return "medium"
	default:
		return "abstract"
	}
}

// LODConfig holds the scale thresholds between detail tiers. The defaults
// come from tuning against typical note sizes; both are configurable.
type LODConfig struct {
	// FullAbove is the scale above which objects render at full detail.
	FullAbove float64
	// AbstractBelow is the scale at or below which objects render as
	// abstract markers.
	AbstractBelow float64
}

// DefaultLODConfig returns the thresholds used when none are configured.
func DefaultLODConfig() LODConfig {
	return LODConfig{FullAbove: 1.5, AbstractBelow: 0.5}
}

func (c LODConfig) withDefaults() LODConfig {
	d := DefaultLODConfig()
	if c.FullAbove <= 0 {
		c.FullAbove = d.FullAbove
	}
	if c.AbstractBelow <= 0 {
		c.AbstractBelow = d.AbstractBelow
	}
	return c
}

// DetailLevel maps a camera scale to a detail tier. Boundaries are exclusive
// upward: a scale exactly at FullAbove is still Medium, and a scale exactly
// at AbstractBelow is Abstract. The same scale always yields the same tier.
func (c LODConfig) DetailLevel(scale float64) DetailTier {
	switch {
	case scale > c.FullAbove:
		return TierFull
	case scale > c.AbstractBelow:
		return TierMedium
	default:
		return TierAbstract
	}
}
