package boxes

import (
	"image"
	"testing"

	api "github.com/etesami/face-attribute-eval/api"
	"github.com/stretchr/testify/require"
)

func TestFaceBoxes(t *testing.T) {
	data := []float32{
		0, 1, 0.95, 0.25, 0.25, 0.5, 0.75, // kept
		0, 1, 0.30, 0.125, 0.125, 0.25, 0.25, // below threshold
		0, 1, 0.80, 0.75, 0.875, 1.25, 1.5, // clamped to frame
		0, 1, 0.99, 1.125, 1.125, 1.5, 1.5, // outside frame
		0, 1, 0.99, // truncated row is ignored
	}
	faces := FaceBoxes(data, 100, 200, 0.7)
	require.Len(t, faces, 2)
	require.Equal(t, image.Rect(25, 50, 50, 150), faces[0].Rect)
	require.InDelta(t, 0.95, faces[0].Confidence, 1e-6)
	require.Equal(t, image.Rect(75, 175, 100, 200), faces[1].Rect)
}

func TestBest(t *testing.T) {
	_, ok := Best(nil)
	require.False(t, ok)

	f, ok := Best([]Face{{Confidence: 0.7}, {Confidence: 0.9, Rect: image.Rect(1, 1, 2, 2)}, {Confidence: 0.8}})
	require.True(t, ok)
	require.Equal(t, image.Rect(1, 1, 2, 2), f.Rect)
}

func TestPad(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)
	require.Equal(t, image.Rect(20, 20, 80, 80), Pad(image.Rect(40, 40, 60, 60), 20, bounds))
	require.Equal(t, image.Rect(0, 0, 30, 30), Pad(image.Rect(5, 5, 10, 10), 20, bounds))
}

func TestYoloBoxes(t *testing.T) {
	// rows of [cx, cy, w, h, score0, score1]
	data := []float32{
		50, 50, 20, 10, 0.1, 0.9,
		10, 10, 4, 4, 0.3, 0.2,
		30, 40, 10, 20, 0.6, 0.5,
	}
	boxes, conf, ids := YoloBoxes(data, 3, 6, 0.5)
	require.Equal(t, []image.Rectangle{image.Rect(40, 45, 60, 55), image.Rect(25, 30, 35, 50)}, boxes)
	require.InDeltaSlice(t, []float32{0.9, 0.6}, conf, 1e-6)
	require.Equal(t, []int{1, 0}, ids)

	boxes, _, _ = YoloBoxes(data, 3, 4, 0.5)
	require.Empty(t, boxes)
}

func TestArgMax(t *testing.T) {
	idx, _ := ArgMax(nil)
	require.Equal(t, -1, idx)

	idx, v := ArgMax([]float32{0.1, 0.7, 0.2, 0.7})
	require.Equal(t, 1, idx)
	require.InDelta(t, 0.7, v, 1e-6)
}

func TestParseAgeBucket(t *testing.T) {
	r, err := ParseAgeBucket("(25-32)")
	require.NoError(t, err)
	require.Equal(t, api.AgeRange{Low: 25, High: 32}, r)

	for _, label := range AgeBuckets {
		_, err := ParseAgeBucket(label)
		require.NoError(t, err, label)
	}

	for _, bad := range []string{"", "(25)", "(a-3)", "(4-b)", "(9-3)"} {
		_, err := ParseAgeBucket(bad)
		require.Error(t, err, bad)
	}
}

func TestFromScores(t *testing.T) {
	age, err := AgeFromScores([]float32{0, 0, 0, 0, 0.1, 0.8, 0.1, 0})
	require.NoError(t, err)
	require.Equal(t, api.AgeRange{Low: 38, High: 43}, age)

	_, err = AgeFromScores(nil)
	require.Error(t, err)

	// a wrong-sized output is rejected even when its max lands on a valid bucket
	_, err = AgeFromScores([]float32{0, 0, 0, 0.9, 0, 0, 0, 0, 0.1})
	require.Error(t, err)

	g, err := GenderFromScores([]float32{0.2, 0.8})
	require.NoError(t, err)
	require.Equal(t, api.GenderFemale, g)

	_, err = GenderFromScores([]float32{0.1, 0.1, 0.8})
	require.Error(t, err)

	_, err = GenderFromScores([]float32{0.8, 0.1, 0.1})
	require.Error(t, err)
}

func TestNewAgeRange(t *testing.T) {
	r, err := NewAgeRange(60, 100)
	require.NoError(t, err)
	require.Equal(t, api.AgeRange{Low: 60, High: 100}, r)

	_, err = NewAgeRange(7, 7)
	require.NoError(t, err)

	for _, bad := range [][2]int{{9, 3}, {-1, 4}} {
		_, err := NewAgeRange(bad[0], bad[1])
		require.Error(t, err, bad)
	}
}
