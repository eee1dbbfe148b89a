package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/etesami/face-attribute-eval/pkg/vision"
	"github.com/stretchr/testify/require"
)

func TestAnnotateImageUnreadable(t *testing.T) {
	a := &Annotator{}

	err := a.AnnotateImage(filepath.Join(t.TempDir(), "missing.jpg"))
	require.ErrorIs(t, err, vision.ErrNoImage)

	garbage := filepath.Join(t.TempDir(), "garbage.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("not a jpeg"), 0o644))
	err = a.AnnotateImage(garbage)
	require.ErrorIs(t, err, vision.ErrNoImage)
}
