package internal

import (
	"bufio"
	"fmt"
	"image"
	"log"
	"os"
	"strings"

	"github.com/etesami/face-attribute-eval/pkg/boxes"

	"gocv.io/x/gocv"
)

var (
	ratio    = 0.003921568627
	mean     = gocv.NewScalar(0, 0, 0, 0)
	swapRGB  = true
	padValue = gocv.NewScalar(144.0, 0, 0, 0)

	scoreThreshold float32 = 0.5
	nmsThreshold   float32 = 0.4
)

// YoloV8 detector model
type DtConfig struct {
	Model       string
	ClassesFile string
	ImageWidth  int
	ImageHeight int
}

type Detector struct {
	config      *DtConfig
	net         gocv.Net
	outputNames []string
	classes     []string
}

func NewDetector(c *DtConfig) (*Detector, error) {
	info, err := os.Stat(c.Model)
	if err != nil || info.Size() == 0 {
		return nil, fmt.Errorf("model file is missing or empty: %v, %v", c.Model, err)
	}
	net := gocv.ReadNetFromONNX(c.Model)
	if net.Empty() {
		return nil, fmt.Errorf("error reading network model from: %v", c.Model)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	outputNames := getOutputNames(&net)
	if len(outputNames) == 0 {
		net.Close()
		return nil, fmt.Errorf("error reading output layer names")
	}

	d := &Detector{config: c, net: net, outputNames: outputNames}
	if c.ClassesFile != "" {
		if d.classes, err = readClasses(c.ClassesFile); err != nil {
			net.Close()
			return nil, err
		}
	}
	return d, nil
}

func readClasses(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open classes file: %w", err)
	}
	defer f.Close()

	var classes []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			classes = append(classes, name)
		}
	}
	return classes, sc.Err()
}

func (d *Detector) Close() {
	d.net.Close()
}

func (d *Detector) ClassName(id int) string {
	if id >= 0 && id < len(d.classes) {
		return d.classes[id]
	}
	return fmt.Sprintf("class %d", id)
}

// Detect returns the boxes kept by non-maximum suppression and their class names
func (d *Detector) Detect(src gocv.Mat) ([]image.Rectangle, []string) {
	params := gocv.NewImageToBlobParams(ratio, image.Pt(d.config.ImageWidth, d.config.ImageHeight), mean, swapRGB, gocv.MatTypeCV32F, gocv.DataLayoutNCHW, gocv.PaddingModeLetterbox, padValue)
	blob := gocv.BlobFromImageWithParams(src, params)
	defer blob.Close()

	// feed the blob into the detector
	d.net.SetInput(blob, "")

	// run a forward pass thru the network
	probs := d.net.ForwardLayers(d.outputNames)
	defer func() {
		for _, prob := range probs {
			prob.Close()
		}
	}()

	rects, confidences, classIds := performDetection(probs)
	if len(rects) == 0 {
		return nil, nil
	}

	iboxes := params.BlobRectsToImageRects(rects, image.Pt(src.Cols(), src.Rows()))
	indices := gocv.NMSBoxes(iboxes, confidences, scoreThreshold, nmsThreshold)

	var kept []image.Rectangle
	var names []string
	for _, idx := range indices {
		kept = append(kept, iboxes[idx])
		names = append(names, d.ClassName(classIds[idx]))
	}
	return kept, names
}

func getOutputNames(net *gocv.Net) []string {
	var outputLayers []string
	for _, i := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(i)
		layerName := layer.GetName()
		if layerName != "_input" {
			outputLayers = append(outputLayers, layerName)
		}
	}

	return outputLayers
}

func performDetection(outs []gocv.Mat) ([]image.Rectangle, []float32, []int) {
	var classIds []int
	var confidences []float32
	var rects []image.Rectangle

	// needed for yolov8: [1, 84, N] -> [1, N, 84]
	gocv.TransposeND(outs[0], []int{0, 2, 1}, &outs[0])

	for _, out := range outs {
		size := out.Size()
		if len(size) < 3 {
			continue
		}
		rows, cols := size[1], size[2]
		data, err := out.DataPtrFloat32()
		if err != nil {
			log.Printf("Error reading detection output: %v", err)
			continue
		}
		r, c, ids := boxes.YoloBoxes(data, rows, cols, scoreThreshold)
		rects = append(rects, r...)
		confidences = append(confidences, c...)
		classIds = append(classIds, ids...)
	}

	return rects, confidences, classIds
}
