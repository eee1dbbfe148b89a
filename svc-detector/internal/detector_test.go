package internal

import (
	"fmt"
	"testing"

	"github.com/etesami/face-attribute-eval/pkg/vision"
	"github.com/stretchr/testify/require"
)

func TestShouldSave(t *testing.T) {
	d := &Detector{DtConfig: &DtConfig{SaveImage: true, SaveImageFrequency: 3}}
	var saved []int64
	for n := int64(1); n <= 9; n++ {
		if d.shouldSave(n) {
			saved = append(saved, n)
		}
	}
	require.Equal(t, []int64{3, 6, 9}, saved)

	require.False(t, (&Detector{}).shouldSave(3))
	require.False(t, (&Detector{DtConfig: &DtConfig{SaveImage: false, SaveImageFrequency: 1}}).shouldSave(1))
	require.False(t, (&Detector{DtConfig: &DtConfig{SaveImage: true}}).shouldSave(1))
}

func TestIsBadImage(t *testing.T) {
	require.True(t, IsBadImage(fmt.Errorf("frame [2]: %w", vision.ErrNoImage)))
	require.False(t, IsBadImage(fmt.Errorf("forward failed")))
}
