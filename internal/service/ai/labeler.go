package ai

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sort"
	"sync"

	"gocv.io/x/gocv"

	"exposureserver/internal/config"
	"exposureserver/internal/logger"
)

// DefaultThreshold is the minimum confidence for a scene label.
const DefaultThreshold = 0.5

// ErrUnavailable is returned when the network could not be loaded.
var ErrUnavailable = errors.New("labeling network not initialized")

// LabelerService names the objects visible in a photograph with an SSD
// MobileNet COCO network.
type LabelerService struct {
	net        gocv.Net
	ready      bool
	modelPath  string
	configPath string
	threshold  float32
	mu         sync.Mutex
	logger     *logger.Logger
}

// NewLabelerService loads the network from the configured model/config paths.
// A missing model leaves the service unavailable rather than failing.
func NewLabelerService(config *config.Config, logger *logger.Logger) *LabelerService {
	threshold := config.LabelThreshold
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	service := &LabelerService{
		modelPath:  config.ModelPath,
		configPath: config.ConfigPath,
		threshold:  float32(threshold),
		logger:     logger,
	}

	if err := service.initializeNet(); err != nil {
		service.logger.Warning("Could not initialize labeling network: %v", err)
		return service
	}

	return service
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *LabelerService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.modelPath)
	}

	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", s.configPath)
	}

	net := gocv.ReadNet(s.modelPath, s.configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network")
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	s.net = net
	s.ready = true
	s.logger.Info("Labeling network initialized successfully")
	return nil
}

// Available reports whether the network is loaded.
func (s *LabelerService) Available() bool {
	return s.ready
}

// Label runs the network on encoded image bytes and returns the distinct
// labels above the confidence threshold, most confident first.
func (s *LabelerService) Label(imageBytes []byte) ([]string, error) {
	if !s.ready {
		return nil, ErrUnavailable
	}

	mat, err := gocv.IMDecode(imageBytes, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}

	// SSD COCO input: 300x300, scaled to [-1,1], RGB
	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	s.mu.Lock()
	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	s.mu.Unlock()
	defer output.Close()

	// rows of [batch_id, class_id, confidence, x1, y1, x2, y2]
	detections := output.Reshape(1, output.Total()/7)
	defer detections.Close()

	best := make(map[string]float32)
	for i := 0; i < detections.Rows(); i++ {
		confidence := detections.GetFloatAt(i, 2)
		if confidence <= s.threshold {
			continue
		}
		label := classLabel(int(detections.GetFloatAt(i, 1)))
		if confidence > best[label] {
			best[label] = confidence
		}
	}

	labels := make([]string, 0, len(best))
	for label := range best {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if best[labels[i]] != best[labels[j]] {
			return best[labels[i]] > best[labels[j]]
		}
		return labels[i] < labels[j]
	})

	if len(labels) > 0 {
		s.logger.Info("Scene labels: %v", labels)
	}
	return labels, nil
}

// Close releases the network.
func (s *LabelerService) Close() error {
	if s.ready {
		s.ready = false
		return s.net.Close()
	}
	return nil
}

// classLabel maps COCO class IDs to names.
func classLabel(classID int) string {
	labels := map[int]string{
		1:  "person",
		2:  "bicycle",
		3:  "car",
		4:  "motorcycle",
		5:  "airplane",
		6:  "bus",
		7:  "train",
		8:  "truck",
		9:  "boat",
		10: "traffic light",
		15: "bench",
		16: "bird",
		17: "cat",
		18: "dog",
		19: "horse",
		20: "sheep",
		21: "cow",
		22: "elephant",
		23: "bear",
		24: "zebra",
		25: "giraffe",
		44: "bottle",
		62: "chair",
		63: "couch",
		64: "potted plant",
		72: "tv",
		84: "book",
	}

	if label, exists := labels[classID]; exists {
		return label
	}
	return fmt.Sprintf("unknown%d", classID)
}
