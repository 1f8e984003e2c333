package features

import "fmt"

// Tier selects the segmentation level the features were computed over
type Tier string

const (
	TierWord    Tier = "word"
	TierPhoneme Tier = "phoneme"
	TierFull    Tier = "full"
)

// ParseTier validates a tier selector
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierWord, TierPhoneme, TierFull:
		return Tier(s), nil
	case "":
		return TierWord, nil
	default:
		return "", fmt.Errorf("unsupported tier %q (want word, phoneme or full)", s)
	}
}

// LabelColumn returns the label column name for segment-level tiers, or ""
// for whole-file analysis
func (t Tier) LabelColumn() string {
	switch t {
	case TierPhoneme:
		return "phoneme"
	case TierFull:
		return ""
	default:
		return "word"
	}
}

// Segmented reports whether rows correspond to labeled segments
func (t Tier) Segmented() bool {
	return t != TierFull
}
