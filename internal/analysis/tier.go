package analysis

// Tier is the declared reliability of the extraction engine that produced a text.
// Lower ordinals are more reliable.
type Tier int

const (
	// TierNone marks the placeholder outcome returned when no engine produced text.
	TierNone Tier = iota
	TierStructured
	TierPage
	TierVision
	TierRaw
)

func (t Tier) String() string {
	switch t {
	case TierStructured:
		return "structured"
	case TierPage:
		return "page"
	case TierVision:
		return "vision"
	case TierRaw:
		return "raw"
	default:
		return "none"
	}
}

// base is the starting confidence of text produced by the tier.
func (t Tier) base() float64 {
	switch t {
	case TierStructured:
		return 0.85
	case TierVision:
		return 0.65
	case TierPage:
		return 0.70
	case TierRaw:
		return 0.50
	default:
		return 0.10
	}
}

// ceiling caps the confidence of text produced by the tier. The structured
// tier may reach MaxConfidence only when it recovered at least one table row.
func (t Tier) ceiling(tableRows int) float64 {
	switch t {
	case TierStructured:
		if tableRows > 0 {
			return MaxConfidence
		}
		return 0.95
	case TierPage, TierVision:
		return 0.95
	case TierRaw:
		return 0.60
	default:
		return 0.10
	}
}
