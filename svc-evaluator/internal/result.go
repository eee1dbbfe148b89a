package internal

import (
	"encoding/json"
	"fmt"
	"io"
)

type counts struct {
	total      int
	both       int
	genderOnly int
	ageOnly    int
	neither    int
	noFace     int
	unlabeled  int
}

func (c *counts) add(o Outcome) {
	switch o {
	case OutcomeBoth:
		c.both++
	case OutcomeGenderOnly:
		c.genderOnly++
	case OutcomeAgeOnly:
		c.ageOnly++
	case OutcomeNeither:
		c.neither++
	default:
		return
	}
	c.total++
}

func (c *counts) result() (*Result, error) {
	if c.total == 0 {
		return nil, ErrNoValidSamples
	}
	total := float64(c.total)
	return &Result{
		Total:          c.total,
		BothCorrect:    c.both,
		GenderOnly:     c.genderOnly,
		AgeOnly:        c.ageOnly,
		Neither:        c.neither,
		NoFace:         c.noFace,
		Unlabeled:      c.unlabeled,
		NetAccuracy:    (float64(c.both) + 0.5*float64(c.ageOnly) + 0.5*float64(c.genderOnly)) / total * 100,
		AgeAccuracy:    float64(c.both+c.ageOnly) / total * 100,
		GenderAccuracy: float64(c.both+c.genderOnly) / total * 100,
	}, nil
}

// Result holds the evaluation counts. NoFace and Unlabeled are files that
// were skipped and are not part of Total.
type Result struct {
	Total       int `json:"total"`
	BothCorrect int `json:"both_correct"`
	GenderOnly  int `json:"gender_only"`
	AgeOnly     int `json:"age_only"`
	Neither     int `json:"neither"`
	NoFace      int `json:"no_face"`
	Unlabeled   int `json:"unlabeled"`

	NetAccuracy    float64 `json:"net_accuracy"`
	AgeAccuracy    float64 `json:"age_accuracy"`
	GenderAccuracy float64 `json:"gender_accuracy"`
}

func (r *Result) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Total samples:         %d\n"+
			"Both correct:          %d\n"+
			"Only gender correct:   %d\n"+
			"Only age correct:      %d\n"+
			"None correct:          %d\n"+
			"Skipped (no face):     %d\n"+
			"Skipped (unlabeled):   %d\n"+
			"Net accuracy:          %.2f%%\n"+
			"Age accuracy:          %.2f%%\n"+
			"Gender accuracy:       %.2f%%\n",
		r.Total, r.BothCorrect, r.GenderOnly, r.AgeOnly, r.Neither, r.NoFace, r.Unlabeled,
		r.NetAccuracy, r.AgeAccuracy, r.GenderAccuracy)
	return err
}

func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
