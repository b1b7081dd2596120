package dataset

// Quality labels for the detailed four-tier classification.
const (
	QualityExcellent = "Excellent"
	QualityGood      = "Good"
	QualityFair      = "Fair"
	QualityPoor      = "Poor"
	QualityUnrated   = "Unrated"
)

// Quality labels for the simplified three-tier classification.
const (
	TierHigh   = "High"
	TierMedium = "Medium"
	TierLow    = "Low"
)

// QualityCategory maps an average rating to the detailed four-tier label.
// rated is false when the row has no rating at all (no match or failed
// lookup), which is distinct from a literal rating of zero.
func QualityCategory(rating float64, rated bool) string {
	switch {
	case !rated:
		return QualityUnrated
	case rating >= 8.0:
		return QualityExcellent
	case rating >= 7.0:
		return QualityGood
	case rating >= 6.0:
		return QualityFair
	default:
		return QualityPoor
	}
}

// QualityTier maps an average rating to the simplified three-tier label.
// This is an independent classification over the same field, not a grouping
// of the four-tier categories.
func QualityTier(rating float64, rated bool) string {
	switch {
	case !rated:
		return QualityUnrated
	case rating >= 7.5:
		return TierHigh
	case rating >= 6.0:
		return TierMedium
	default:
		return TierLow
	}
}
