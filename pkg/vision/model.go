package vision

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"sync"

	api "github.com/etesami/face-attribute-eval/api"
	"github.com/etesami/face-attribute-eval/pkg/boxes"
	"github.com/etesami/face-attribute-eval/pkg/config"

	"gocv.io/x/gocv"
)

var (
	ErrModelMissing = errors.New("model file is missing or empty")
	ErrNoImage      = errors.New("cannot decode image")
)

var (
	faceSize = image.Pt(300, 300)
	faceMean = gocv.NewScalar(104, 117, 123, 0)

	// age/gender nets were trained on 227x227 crops with this mean
	attrSize = image.Pt(227, 227)
	attrMean = gocv.NewScalar(78.4263377603, 87.7689143744, 114.895847746, 0)
)

// Model runs the face detector and the age and gender classifiers.
// gocv nets are not safe for concurrent use, so every call holds mu.
type Model struct {
	mu        sync.Mutex
	cfg       config.Models
	faceNet   gocv.Net
	ageNet    gocv.Net
	genderNet gocv.Net
}

func checkModelFile(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrModelMissing, path)
	}
	return nil
}

func NewModel(cfg config.Models) (*Model, error) {
	for _, f := range []string{cfg.FaceProto, cfg.FaceModel, cfg.AgeProto, cfg.AgeModel, cfg.GenderProto, cfg.GenderModel} {
		if err := checkModelFile(f); err != nil {
			return nil, err
		}
	}

	m := &Model{cfg: cfg}
	m.faceNet = gocv.ReadNet(cfg.FaceModel, cfg.FaceProto)
	m.ageNet = gocv.ReadNetFromCaffe(cfg.AgeProto, cfg.AgeModel)
	m.genderNet = gocv.ReadNetFromCaffe(cfg.GenderProto, cfg.GenderModel)

	for name, net := range map[string]*gocv.Net{"face": &m.faceNet, "age": &m.ageNet, "gender": &m.genderNet} {
		if net.Empty() {
			m.Close()
			return nil, fmt.Errorf("error reading %s network", name)
		}
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
	}
	log.Printf("Loaded face [%s], age [%s], gender [%s] networks", cfg.FaceModel, cfg.AgeModel, cfg.GenderModel)
	return m, nil
}

func (m *Model) Close() {
	m.faceNet.Close()
	m.ageNet.Close()
	m.genderNet.Close()
}

func (m *Model) detectFaces(img gocv.Mat) ([]boxes.Face, error) {
	blob := gocv.BlobFromImage(img, 1.0, faceSize, faceMean, true, false)
	defer blob.Close()

	m.faceNet.SetInput(blob, "")
	detections := m.faceNet.Forward("")
	defer detections.Close()

	data, err := detections.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("reading face detections: %w", err)
	}
	return boxes.FaceBoxes(data, img.Cols(), img.Rows(), m.cfg.ConfThreshold), nil
}

func forwardScores(net *gocv.Net, blob gocv.Mat) ([]float32, error) {
	net.SetInput(blob, "")
	out := net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, err
	}
	// data aliases out, which is closed on return
	scores := make([]float32, len(data))
	copy(scores, data)
	return scores, nil
}

func (m *Model) classify(img gocv.Mat, face image.Rectangle) (api.Prediction, error) {
	roi := img.Region(boxes.Pad(face, m.cfg.Padding, image.Rect(0, 0, img.Cols(), img.Rows())))
	defer roi.Close()

	blob := gocv.BlobFromImage(roi, 1.0, attrSize, attrMean, false, false)
	defer blob.Close()

	genderScores, err := forwardScores(&m.genderNet, blob)
	if err != nil {
		return api.Prediction{}, fmt.Errorf("gender inference failed: %w", err)
	}
	gender, err := boxes.GenderFromScores(genderScores)
	if err != nil {
		return api.Prediction{}, err
	}

	ageScores, err := forwardScores(&m.ageNet, blob)
	if err != nil {
		return api.Prediction{}, fmt.Errorf("age inference failed: %w", err)
	}
	age, err := boxes.AgeFromScores(ageScores)
	if err != nil {
		return api.Prediction{}, err
	}
	return api.Prediction{Gender: gender, Age: &age}, nil
}

// PredictMat classifies the most confident face in img. A zero Prediction
// means no face was found.
func (m *Model) PredictMat(img gocv.Mat) (api.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	faces, err := m.detectFaces(img)
	if err != nil {
		return api.Prediction{}, err
	}
	face, ok := boxes.Best(faces)
	if !ok {
		return api.Prediction{}, nil
	}
	return m.classify(img, face.Rect)
}

// Predict reads an image file and classifies its most confident face.
func (m *Model) Predict(path string) (api.Prediction, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return api.Prediction{}, fmt.Errorf("%w: %s", ErrNoImage, path)
	}
	return m.PredictMat(img)
}

// PredictImage classifies an encoded (jpeg/png) image.
func (m *Model) PredictImage(data []byte) (api.Prediction, error) {
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return api.Prediction{}, fmt.Errorf("%w: %v", ErrNoImage, err)
	}
	defer img.Close()
	if img.Empty() {
		return api.Prediction{}, ErrNoImage
	}
	return m.PredictMat(img)
}

// Annotate classifies every face in img and draws the results onto it.
func (m *Model) Annotate(img *gocv.Mat) ([]api.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	faces, err := m.detectFaces(*img)
	if err != nil {
		return nil, err
	}
	var preds []api.Prediction
	for _, f := range faces {
		p, err := m.classify(*img, f.Rect)
		if err != nil {
			return preds, err
		}
		drawFace(img, f.Rect, p.Label())
		preds = append(preds, p)
	}
	return preds, nil
}
