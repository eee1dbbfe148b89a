package boxes

import (
	"fmt"
	"strconv"
	"strings"

	api "github.com/etesami/face-attribute-eval/api"
)

// AgeBuckets are the output classes of the Levi-Hassner age network, in order.
var AgeBuckets = []string{"(0-2)", "(4-6)", "(8-12)", "(15-20)", "(25-32)", "(38-43)", "(48-53)", "(60-100)"}

// Genders are the output classes of the gender network, in order.
var Genders = []api.Gender{api.GenderMale, api.GenderFemale}

// ParseAgeBucket parses labels like "(25-32)".
func ParseAgeBucket(label string) (api.AgeRange, error) {
	s := strings.TrimSpace(label)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return api.AgeRange{}, fmt.Errorf("invalid age bucket %q", label)
	}
	low, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return api.AgeRange{}, fmt.Errorf("invalid age bucket %q: %w", label, err)
	}
	high, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return api.AgeRange{}, fmt.Errorf("invalid age bucket %q: %w", label, err)
	}
	r, err := NewAgeRange(low, high)
	if err != nil {
		return api.AgeRange{}, fmt.Errorf("invalid age bucket %q: %w", label, err)
	}
	return r, nil
}

// NewAgeRange checks 0 <= low <= high.
func NewAgeRange(low, high int) (api.AgeRange, error) {
	if low < 0 || low > high {
		return api.AgeRange{}, fmt.Errorf("invalid age range %d-%d", low, high)
	}
	return api.AgeRange{Low: low, High: high}, nil
}

// AgeFromScores picks the age bucket with the highest score.
func AgeFromScores(scores []float32) (api.AgeRange, error) {
	if len(scores) != len(AgeBuckets) {
		return api.AgeRange{}, fmt.Errorf("age network returned %d scores, want %d", len(scores), len(AgeBuckets))
	}
	idx, _ := ArgMax(scores)
	return ParseAgeBucket(AgeBuckets[idx])
}

// GenderFromScores picks the gender with the highest score.
func GenderFromScores(scores []float32) (api.Gender, error) {
	if len(scores) != len(Genders) {
		return api.GenderUnknown, fmt.Errorf("gender network returned %d scores, want %d", len(scores), len(Genders))
	}
	idx, _ := ArgMax(scores)
	return Genders[idx], nil
}
