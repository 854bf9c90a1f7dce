package detect

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// personClassID is the COCO class index for "person".
const personClassID = 0

// YOLOConfig holds person detector configuration.
type YOLOConfig struct {
	ModelPath        string
	ConfidenceThresh float32
	NMSThresh        float32
	InputWidth       int
	InputHeight      int
}

// DefaultYOLOConfig returns production defaults for YOLOv8n, tuned for
// pedestrian footage.
func DefaultYOLOConfig() YOLOConfig {
	return YOLOConfig{
		ModelPath:        "models/yolov8n.onnx",
		ConfidenceThresh: 0.35,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// PersonDetector finds people in frames using a YOLOv8 ONNX model. Only
// detections of the person class are returned.
type PersonDetector struct {
	net       gocv.Net
	config    YOLOConfig
	mu        sync.Mutex
	inputSize image.Point
}

// NewPersonDetector loads the ONNX model and prepares the network.
func NewPersonDetector(cfg YOLOConfig) (*PersonDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("detect: model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("detect: failed to load model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &PersonDetector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// Detect finds person bounding boxes in the JPEG image.
func (d *PersonDetector) Detect(jpeg []byte) ([]Box, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("detect: decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("detect: empty image")
	}

	imgW := float32(img.Cols())
	imgH := float32(img.Rows())

	blob := gocv.BlobFromImage(img, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	return d.parseOutput(output, imgW, imgH), nil
}

// parseOutput parses the YOLOv8 output tensor, keeping person detections only.
// Output shape is [1, 84, 8400]: 4 bbox values + 80 class scores per column.
func (d *PersonDetector) parseOutput(output gocv.Mat, imgW, imgH float32) []Box {
	rows := output.Cols() // 8400 candidate detections
	cols := output.Rows() // 84 = 4 bbox + 80 classes

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil
	}

	var boxes []image.Rectangle
	var confidences []float32

	for i := 0; i < rows; i++ {
		// Best class for this candidate; we only keep it if that class is person.
		maxScore := float32(0)
		maxClassID := 0
		for c := 4; c < cols; c++ {
			score := data[c*rows+i]
			if score > maxScore {
				maxScore = score
				maxClassID = c - 4
			}
		}

		if maxClassID != personClassID || maxScore < d.config.ConfidenceThresh {
			continue
		}

		// Bbox is (center x, center y, width, height) in model input space.
		cx := data[0*rows+i]
		cy := data[1*rows+i]
		w := data[2*rows+i]
		h := data[3*rows+i]

		x1 := int((cx - w/2) * imgW / float32(d.config.InputWidth))
		y1 := int((cy - h/2) * imgH / float32(d.config.InputHeight))
		x2 := int((cx + w/2) * imgW / float32(d.config.InputWidth))
		y2 := int((cy + h/2) * imgH / float32(d.config.InputHeight))

		boxes = append(boxes, image.Rect(x1, y1, x2, y2))
		confidences = append(confidences, maxScore)
	}

	if len(boxes) == 0 {
		return nil
	}

	indices := gocv.NMSBoxes(boxes, confidences, d.config.ConfidenceThresh, d.config.NMSThresh)

	result := make([]Box, 0, len(indices))
	for _, idx := range indices {
		box := boxes[idx]
		result = append(result, Box{
			X:          float64(box.Min.X),
			Y:          float64(box.Min.Y),
			W:          float64(box.Dx()),
			H:          float64(box.Dy()),
			Confidence: float64(confidences[idx]),
		})
	}

	return result
}

// Close releases the detector resources.
func (d *PersonDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
