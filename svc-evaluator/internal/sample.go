package internal

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	api "github.com/etesami/face-attribute-eval/api"
)

var sampleName = regexp.MustCompile(`(?i)^(male|female)_(\d+)\.jpg$`)

func isJpeg(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".jpg")
}

// parseSample reads the ground truth out of names like "male_30.jpg".
// ok is false for names that do not follow the pattern.
func parseSample(dir, name string) (api.LabeledSample, bool) {
	m := sampleName.FindStringSubmatch(name)
	if m == nil {
		return api.LabeledSample{}, false
	}
	gender, err := api.ParseGender(m[1])
	if err != nil {
		return api.LabeledSample{}, false
	}
	age, err := strconv.Atoi(m[2])
	if err != nil {
		return api.LabeledSample{}, false
	}
	return api.LabeledSample{
		FileName: name,
		Path:     filepath.Join(dir, name),
		Gender:   gender,
		Age:      age,
	}, true
}
