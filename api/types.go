package api

import (
	"fmt"
	"strings"
)

type Gender string

const (
	GenderUnknown Gender = ""
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
)

// ParseGender accepts any casing of "male" or "female".
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male":
		return GenderMale, nil
	case "female":
		return GenderFemale, nil
	}
	return GenderUnknown, fmt.Errorf("unknown gender %q", s)
}

// Title returns the label drawn on annotated frames ("Male", "Female").
func (g Gender) Title() string {
	if g == GenderUnknown {
		return "Unknown"
	}
	return strings.ToUpper(string(g[:1])) + string(g[1:])
}

// AgeRange is a closed age interval produced by the age classifier.
type AgeRange struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

func (r AgeRange) Contains(age int) bool {
	return r.Low <= age && age <= r.High
}

func (r AgeRange) String() string {
	return fmt.Sprintf("(%d-%d)", r.Low, r.High)
}

// Prediction is what the face/age/gender oracle returns for one image.
// A zero Gender or a nil Age means no face was detected.
type Prediction struct {
	Gender Gender    `json:"gender,omitempty"`
	Age    *AgeRange `json:"age,omitempty"`
}

func (p Prediction) Detected() bool {
	return p.Gender != GenderUnknown && p.Age != nil
}

func (p Prediction) Label() string {
	if !p.Detected() {
		return "no face"
	}
	return fmt.Sprintf("%s, %s", p.Gender.Title(), p.Age)
}

// LabeledSample is an image whose file name carries the ground truth,
// e.g. "female_23.jpg".
type LabeledSample struct {
	FileName string
	Path     string
	Gender   Gender
	Age      int
}
