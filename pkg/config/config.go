package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Models lists the pretrained network files and the thresholds used by the
// face/age/gender oracle.
type Models struct {
	FaceProto   string `yaml:"face_proto"`
	FaceModel   string `yaml:"face_model"`
	AgeProto    string `yaml:"age_proto"`
	AgeModel    string `yaml:"age_model"`
	GenderProto string `yaml:"gender_proto"`
	GenderModel string `yaml:"gender_model"`

	// Minimum face detector confidence
	ConfThreshold float32 `yaml:"conf_threshold"`
	// Pixels added around a detected face before classification
	Padding int `yaml:"padding"`
}

func Default() Models {
	return Models{
		FaceProto:     "models/opencv_face_detector.pbtxt",
		FaceModel:     "models/opencv_face_detector_uint8.pb",
		AgeProto:      "models/age_deploy.prototxt",
		AgeModel:      "models/age_net.caffemodel",
		GenderProto:   "models/gender_deploy.prototxt",
		GenderModel:   "models/gender_net.caffemodel",
		ConfThreshold: 0.7,
		Padding:       20,
	}
}

// Load reads a YAML model config on top of the defaults. An empty path
// returns the defaults. Environment overrides are applied last.
func Load(path string) (Models, error) {
	m := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Models{}, fmt.Errorf("failed to read model config: %w", err)
		}
		if err := yaml.Unmarshal(data, &m); err != nil {
			return Models{}, fmt.Errorf("failed to parse model config: %w", err)
		}
	}
	if err := m.applyEnv(); err != nil {
		return Models{}, err
	}
	return m, m.Validate()
}

func (m *Models) applyEnv() error {
	for env, field := range map[string]*string{
		"FACE_PROTO":   &m.FaceProto,
		"FACE_MODEL":   &m.FaceModel,
		"AGE_PROTO":    &m.AgeProto,
		"AGE_MODEL":    &m.AgeModel,
		"GENDER_PROTO": &m.GenderProto,
		"GENDER_MODEL": &m.GenderModel,
	} {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
	if v := os.Getenv("CONF_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("invalid CONF_THRESHOLD %q: %w", v, err)
		}
		m.ConfThreshold = float32(f)
	}
	if v := os.Getenv("FACE_PADDING"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FACE_PADDING %q: %w", v, err)
		}
		m.Padding = p
	}
	return nil
}

func (m Models) Validate() error {
	if m.ConfThreshold <= 0 || m.ConfThreshold > 1 {
		return fmt.Errorf("conf_threshold must be in (0, 1], got %v", m.ConfThreshold)
	}
	if m.Padding < 0 {
		return fmt.Errorf("padding must not be negative, got %d", m.Padding)
	}
	return nil
}
