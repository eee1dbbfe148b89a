package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	api "github.com/etesami/face-attribute-eval/api"
	"github.com/stretchr/testify/require"
)

func pred(g api.Gender, low, high int) api.Prediction {
	return api.Prediction{Gender: g, Age: &api.AgeRange{Low: low, High: high}}
}

// fakeOracle answers by base file name; unknown files yield no face.
type fakeOracle struct {
	answers map[string]api.Prediction
	calls   []string
}

func (f *fakeOracle) Predict(path string) (api.Prediction, error) {
	name := filepath.Base(path)
	f.calls = append(f.calls, name)
	return f.answers[name], nil
}

func sampleDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("jpeg"), 0o644))
	}
	return dir
}

func TestEvaluateBuckets(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		predict api.Prediction
		check   func(t *testing.T, r *Result)
	}{
		{
			name:    "both correct",
			file:    "male_30.jpg",
			predict: pred(api.GenderMale, 25, 34),
			check:   func(t *testing.T, r *Result) { require.Equal(t, 1, r.BothCorrect) },
		},
		{
			name:    "age only",
			file:    "female_10.jpg",
			predict: pred(api.GenderMale, 8, 13),
			check:   func(t *testing.T, r *Result) { require.Equal(t, 1, r.AgeOnly) },
		},
		{
			name:    "neither",
			file:    "male_5.jpg",
			predict: pred(api.GenderFemale, 8, 13),
			check:   func(t *testing.T, r *Result) { require.Equal(t, 1, r.Neither) },
		},
		{
			name:    "gender only",
			file:    "female_50.jpg",
			predict: pred(api.GenderFemale, 25, 32),
			check:   func(t *testing.T, r *Result) { require.Equal(t, 1, r.GenderOnly) },
		},
		{
			name:    "gender compared case-insensitively",
			file:    "male_30.jpg",
			predict: pred(api.Gender("Male"), 25, 34),
			check:   func(t *testing.T, r *Result) { require.Equal(t, 1, r.BothCorrect) },
		},
		{
			name:    "bucket bounds are inclusive",
			file:    "male_32.jpg",
			predict: pred(api.GenderMale, 25, 32),
			check:   func(t *testing.T, r *Result) { require.Equal(t, 1, r.BothCorrect) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := sampleDir(t, tt.file)
			oracle := &fakeOracle{answers: map[string]api.Prediction{tt.file: tt.predict}}

			r, err := Evaluate(dir, oracle)
			require.NoError(t, err)
			require.Equal(t, 1, r.Total)
			tt.check(t, r)
		})
	}
}

func TestEvaluateAccuracy(t *testing.T) {
	dir := sampleDir(t, "male_30.jpg", "female_10.jpg", "male_5.jpg", "female_50.jpg")
	oracle := &fakeOracle{answers: map[string]api.Prediction{
		"male_30.jpg":   pred(api.GenderMale, 25, 34),
		"female_10.jpg": pred(api.GenderMale, 8, 13),
		"male_5.jpg":    pred(api.GenderFemale, 8, 13),
		"female_50.jpg": pred(api.GenderFemale, 25, 32),
	}}

	r, err := Evaluate(dir, oracle)
	require.NoError(t, err)
	require.Equal(t, 4, r.Total)
	require.Equal(t, r.Total, r.BothCorrect+r.GenderOnly+r.AgeOnly+r.Neither)
	require.InDelta(t, 50.0, r.NetAccuracy, 1e-9)
	require.InDelta(t, 50.0, r.AgeAccuracy, 1e-9)
	require.InDelta(t, 50.0, r.GenderAccuracy, 1e-9)
}

func TestEvaluateSkipsUndetected(t *testing.T) {
	dir := sampleDir(t, "male_30.jpg", "female_20.jpg", "male_40.jpg")
	oracle := &fakeOracle{answers: map[string]api.Prediction{
		"male_30.jpg": pred(api.GenderMale, 25, 32),
		// gender without age is still "no face"
		"male_40.jpg": {Gender: api.GenderMale},
	}}

	r, err := Evaluate(dir, oracle)
	require.NoError(t, err)
	require.Equal(t, 1, r.Total)
	require.Equal(t, 2, r.NoFace)
	require.InDelta(t, 100.0, r.NetAccuracy, 1e-9)
}

func TestEvaluateFiltersFileNames(t *testing.T) {
	dir := sampleDir(t,
		"MALE_40.JPG",
		"notes.txt",
		"male_40.png",
		"person_12.jpg",
		"male_x.jpg",
		"female_7.jpeg",
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "female_9.jpg"), 0o755))

	oracle := &fakeOracle{answers: map[string]api.Prediction{
		"MALE_40.JPG": pred(api.GenderMale, 38, 43),
	}}

	r, err := Evaluate(dir, oracle)
	require.NoError(t, err)
	require.Equal(t, []string{"MALE_40.JPG"}, oracle.calls)
	require.Equal(t, 1, r.Total)
	require.Equal(t, 1, r.BothCorrect)
	require.Equal(t, 2, r.Unlabeled)
}

func TestEvaluateFollowsSymlinks(t *testing.T) {
	src := sampleDir(t, "photo.jpg")
	dir := t.TempDir()
	if err := os.Symlink(filepath.Join(src, "photo.jpg"), filepath.Join(dir, "male_30.jpg")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	// dangling link and link to a directory are not samples
	require.NoError(t, os.Symlink(filepath.Join(src, "gone.jpg"), filepath.Join(dir, "female_20.jpg")))
	require.NoError(t, os.Symlink(src, filepath.Join(dir, "female_21.jpg")))

	oracle := &fakeOracle{answers: map[string]api.Prediction{
		"male_30.jpg": pred(api.GenderMale, 25, 32),
	}}
	r, err := Evaluate(dir, oracle)
	require.NoError(t, err)
	require.Equal(t, []string{"male_30.jpg"}, oracle.calls)
	require.Equal(t, 1, r.BothCorrect)
}

func TestEvaluateNoValidSamples(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		_, err := Evaluate(t.TempDir(), &fakeOracle{})
		require.ErrorIs(t, err, ErrNoValidSamples)
	})
	t.Run("no faces", func(t *testing.T) {
		dir := sampleDir(t, "male_30.jpg", "female_22.jpg")
		_, err := Evaluate(dir, &fakeOracle{})
		require.ErrorIs(t, err, ErrNoValidSamples)
	})
}

func TestEvaluateMissingDirectory(t *testing.T) {
	_, err := Evaluate(filepath.Join(t.TempDir(), "missing"), &fakeOracle{})
	require.ErrorIs(t, err, ErrReadDir)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestEvaluatePredictorError(t *testing.T) {
	dir := sampleDir(t, "male_30.jpg")
	boom := errors.New("decode failed")
	_, err := Evaluate(dir, PredictorFunc(func(string) (api.Prediction, error) {
		return api.Prediction{}, boom
	}))
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "male_30.jpg")
}

type recorder struct {
	outcomes []Outcome
}

func (r *recorder) ObserveSample(o Outcome, _ time.Duration) {
	r.outcomes = append(r.outcomes, o)
}

func TestEvaluatorObserver(t *testing.T) {
	dir := sampleDir(t, "female_10.jpg", "male_30.jpg", "male_99.jpg", "cat.jpg")
	oracle := &fakeOracle{answers: map[string]api.Prediction{
		"female_10.jpg": pred(api.GenderFemale, 8, 12),
		"male_30.jpg":   pred(api.GenderFemale, 4, 6),
	}}
	rec := &recorder{}
	e := &Evaluator{Predictor: oracle, Observer: rec, Verbose: true}

	_, err := e.Evaluate(dir)
	require.NoError(t, err)
	// os.ReadDir returns entries sorted by name
	require.Equal(t, []Outcome{OutcomeUnlabeled, OutcomeBoth, OutcomeNeither, OutcomeNoFace}, rec.outcomes)
}

func TestResultAccuracyBounds(t *testing.T) {
	outcomes := []Outcome{OutcomeBoth, OutcomeGenderOnly, OutcomeAgeOnly, OutcomeNeither}
	for mask := 1; mask < 1<<len(outcomes); mask++ {
		var c counts
		for i, o := range outcomes {
			if mask&(1<<i) != 0 {
				c.add(o)
			}
		}
		r, err := c.result()
		require.NoError(t, err)
		for _, v := range []float64{r.NetAccuracy, r.AgeAccuracy, r.GenderAccuracy} {
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestResultRendering(t *testing.T) {
	r := &Result{Total: 4, BothCorrect: 1, GenderOnly: 1, AgeOnly: 1, Neither: 1,
		NetAccuracy: 50, AgeAccuracy: 50, GenderAccuracy: 50}

	var text bytes.Buffer
	require.NoError(t, r.WriteText(&text))
	require.True(t, strings.Contains(text.String(), "Net accuracy:          50.00%"))

	var out bytes.Buffer
	require.NoError(t, r.WriteJSON(&out))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Equal(t, 4.0, decoded["total"])
	require.Equal(t, 50.0, decoded["net_accuracy"])
}
