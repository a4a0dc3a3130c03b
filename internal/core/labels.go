package core

import "fmt"

// ptBRMonths are the pt-BR short month names used for cohort labels.
var ptBRMonths = [12]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// CohortLabel renders a "YYYY-MM" key as "mmm/yy" ("2023-03" -> "mar/23").
// Keys that do not parse are returned unchanged.
func CohortLabel(key string) string {
	t, ok := ParseMonthKey(key)
	if !ok {
		return key
	}
	return fmt.Sprintf("%s/%02d", ptBRMonths[t.Month()-1], t.Year()%100)
}

// HeatTier buckets a retention fraction for heatmap display.
type HeatTier int

const (
	TierEmpty HeatTier = iota
	TierCritical
	TierRisk
	TierAttention
	TierGood
	TierGreat
	TierExcellent
)

// Tier returns the heatmap bucket for a fraction in [0,1].
func Tier(ratio float64) HeatTier {
	switch {
	case ratio >= 0.95:
		return TierExcellent
	case ratio >= 0.85:
		return TierGreat
	case ratio >= 0.70:
		return TierGood
	case ratio >= 0.50:
		return TierAttention
	case ratio >= 0.30:
		return TierRisk
	case ratio > 0:
		return TierCritical
	default:
		return TierEmpty
	}
}

// Color is the fill color of the tier as a hex RGB string.
func (t HeatTier) Color() string {
	switch t {
	case TierExcellent:
		return "16A34A"
	case TierGreat:
		return "22C55E"
	case TierGood:
		return "86EFAC"
	case TierAttention:
		return "FACC15"
	case TierRisk:
		return "FB923C"
	case TierCritical:
		return "EF4444"
	default:
		return "F1F5F9"
	}
}

// LightText reports whether text on this tier should be white.
func (t HeatTier) LightText() bool {
	switch t {
	case TierExcellent, TierGreat, TierRisk, TierCritical:
		return true
	default:
		return false
	}
}

// growthDeadBand is the magnitude under which growth is shown as flat.
const growthDeadBand = 0.0001

// Trend classifies a growth value.
type Trend int

const (
	TrendFlat Trend = iota
	TrendUp
	TrendDown
)

// GrowthTrend returns the display direction of a growth delta.
func GrowthTrend(g float64) Trend {
	switch {
	case g > growthDeadBand:
		return TrendUp
	case g < -growthDeadBand:
		return TrendDown
	default:
		return TrendFlat
	}
}

// FormatPercent renders a fraction as a percentage with two decimals.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.2f%%", f*100)
}
