package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	api "github.com/etesami/face-attribute-eval/api"
)

var (
	// ErrNoValidSamples is returned when no labeled image produced a prediction,
	// so no accuracy can be computed.
	ErrNoValidSamples = errors.New("no valid samples")
	// ErrReadDir wraps failures to list the sample directory.
	ErrReadDir = errors.New("cannot read sample directory")
)

// Predictor is the face/age/gender oracle the evaluator scores.
type Predictor interface {
	Predict(path string) (api.Prediction, error)
}

// PredictorFunc adapts a plain function to Predictor.
type PredictorFunc func(path string) (api.Prediction, error)

func (f PredictorFunc) Predict(path string) (api.Prediction, error) {
	return f(path)
}

type Outcome string

const (
	OutcomeBoth       Outcome = "both"
	OutcomeGenderOnly Outcome = "gender_only"
	OutcomeAgeOnly    Outcome = "age_only"
	OutcomeNeither    Outcome = "neither"
	OutcomeNoFace     Outcome = "no_face"
	OutcomeUnlabeled  Outcome = "unlabeled"
)

// Observer is told about every file the evaluator looks at.
type Observer interface {
	ObserveSample(outcome Outcome, elapsed time.Duration)
}

type Evaluator struct {
	Predictor Predictor
	Observer  Observer
	Verbose   bool
}

func classify(s api.LabeledSample, p api.Prediction) Outcome {
	correctGender := strings.EqualFold(string(s.Gender), string(p.Gender))
	correctAge := p.Age.Contains(s.Age)
	switch {
	case correctGender && correctAge:
		return OutcomeBoth
	case correctGender:
		return OutcomeGenderOnly
	case correctAge:
		return OutcomeAgeOnly
	default:
		return OutcomeNeither
	}
}

// Evaluate scores the predictor against every "<gender>_<age>.jpg" file in dir.
func (e *Evaluator) Evaluate(dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrReadDir, dir, err)
	}

	var c counts
	for _, entry := range entries {
		if !isJpeg(entry.Name()) || !isRegularFile(dir, entry) {
			continue
		}
		sample, ok := parseSample(dir, entry.Name())
		if !ok {
			c.unlabeled++
			e.observe(OutcomeUnlabeled, 0)
			continue
		}

		st := time.Now()
		pred, err := e.Predictor.Predict(sample.Path)
		elapsed := time.Since(st)
		if err != nil {
			return nil, fmt.Errorf("predict %s: %w", sample.FileName, err)
		}
		if !pred.Detected() {
			c.noFace++
			e.observe(OutcomeNoFace, elapsed)
			if e.Verbose {
				log.Printf("Skipped [%s]: no face detected", sample.FileName)
			}
			continue
		}

		outcome := classify(sample, pred)
		c.add(outcome)
		e.observe(outcome, elapsed)
		if e.Verbose {
			log.Printf("Sample [%s]: real [%s, %d] predicted [%s] -> %s",
				sample.FileName, sample.Gender, sample.Age, pred.Label(), outcome)
		}
	}

	return c.result()
}

// isRegularFile also accepts symlinks that resolve to regular files.
func isRegularFile(dir string, entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}

func (e *Evaluator) observe(o Outcome, elapsed time.Duration) {
	if e.Observer != nil {
		e.Observer.ObserveSample(o, elapsed)
	}
}

// Evaluate is a shorthand for an Evaluator without an observer.
func Evaluate(dir string, p Predictor) (*Result, error) {
	e := &Evaluator{Predictor: p}
	return e.Evaluate(dir)
}
