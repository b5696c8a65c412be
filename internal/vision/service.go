package vision

import (
	"context"
	"time"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/metrics"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

type DetectionResult struct {
	Image     []byte
	Celebrity string
	Found     bool
	Faces     []Face
}

type Service struct {
	detector   FaceDetector
	recognizer CelebrityRecognizer
	classifier CelebrityClassifier
	names      map[int]string
	logger     *logger_i.Logger
}

type ServiceConfig struct {
	Detector   FaceDetector
	Recognizer CelebrityRecognizer
	Classifier CelebrityClassifier
	Names      map[int]string
}

func NewService(cfg ServiceConfig) *Service {
	return &Service{
		detector:   cfg.Detector,
		recognizer: cfg.Recognizer,
		classifier: cfg.Classifier,
		names:      cfg.Names,
		logger:     logger_i.NewLogger("Vision Service"),
	}
}

// DetectFaces outlines the faces found in an upload and names the celebrity, if any
func (s *Service) DetectFaces(ctx context.Context, upload []byte) (DetectionResult, error) {
	log := s.logger.WithTrace(ctx)
	if s.detector == nil {
		return DetectionResult{}, ErrBackendUnavailable
	}

	img, err := DecodeImage(upload)
	if err != nil {
		return DetectionResult{}, err
	}
	pngBytes, err := EncodePNG(img)
	if err != nil {
		return DetectionResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, config.VisionRequestTimeout)
	defer cancel()

	start := time.Now()
	faces, err := s.detector.DetectFaces(ctx, pngBytes)
	metrics.CaptureExecutionMetrics("face_detection", time.Since(start))
	if err != nil {
		log.Error("face detection failed", "error", err)
		return DetectionResult{}, err
	}

	result := DetectionResult{Faces: faces}
	if s.recognizer != nil {
		start = time.Now()
		result.Celebrity, result.Found, err = s.recognizer.RecognizeCelebrity(ctx, pngBytes)
		metrics.CaptureExecutionMetrics("celebrity_recognition", time.Since(start))
		if err != nil {
			log.Error("celebrity recognition failed", "error", err)
			return DetectionResult{}, err
		}
	}

	for _, line := range FaceDiagnostics(faces) {
		log.Debug(line)
	}

	result.Image, err = EncodePNG(DrawBoxes(img, faces, result.Celebrity))
	if err != nil {
		return DetectionResult{}, err
	}
	return result, nil
}

// RecognizeFineTuned runs the fine-tuned classifier on an upload and maps the
// predicted index through the celebrity table.
func (s *Service) RecognizeFineTuned(ctx context.Context, upload []byte) (string, bool, error) {
	log := s.logger.WithTrace(ctx)
	if s.classifier == nil {
		return "", false, ErrBackendUnavailable
	}

	img, err := DecodeImage(upload)
	if err != nil {
		return "", false, err
	}
	instance := Preprocess(img, config.CelebrityImageLen)

	ctx, cancel := context.WithTimeout(ctx, config.VisionRequestTimeout)
	defer cancel()

	start := time.Now()
	idx, err := s.classifier.PredictIndex(ctx, instance)
	metrics.CaptureExecutionMetrics("celebrity_classifier", time.Since(start))
	if err != nil {
		log.Error("celebrity classifier failed", "error", err)
		return "", false, err
	}

	name, ok := s.names[idx]
	log.Info("predicted celebrity", "index", idx, "name", name, "known", ok)
	return name, ok, nil
}
