package onnxModel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/akolanti/MLServe/internal/classifier"
	"github.com/akolanti/MLServe/pkg/logger_i"
	ort "github.com/yalue/onnxruntime_go"
)

type Metadata struct {
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
}

var (
	envOnce sync.Once
	envErr  error
	logger  = logger_i.NewLogger("ONNX")
)

// Session is a single-batch onnxruntime session. Run calls are serialized.
type Session struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	Metadata     Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

func ReadMetadata(path string) (Metadata, error) {
	var metadata Metadata
	raw, err := os.ReadFile(path)
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata: %w", err)
	}
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return metadata, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if metadata.InputName == "" {
		metadata.InputName = "input"
	}
	if metadata.OutputName == "" {
		metadata.OutputName = "output"
	}
	if len(metadata.InputShape) == 0 || len(metadata.OutputShape) == 0 {
		return metadata, errors.New("metadata must declare input_shape and output_shape")
	}
	return metadata, nil
}

// Size is the element count of a tensor shape
func Size(shape []int64) int {
	n := 1
	for _, d := range shape {
		n *= int(d)
	}
	return n
}

func initEnvironment(libraryPath string) error {
	envOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		envErr = ort.InitializeEnvironment()
		if envErr != nil {
			logger.Error("failed to initialize ONNX environment", "error", envErr)
		}
	})
	return envErr
}

func NewSession(modelPath, metadataPath, libraryPath string) (*Session, error) {
	if err := initEnvironment(libraryPath); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	metadata, err := ReadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	logger.Info("ONNX session ready", "model", modelPath, "classes", len(metadata.Classes))
	return &Session{
		session:      session,
		Metadata:     metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Run copies input into the session tensor and returns a copy of the output
func (s *Session) Run(input []float32) ([]float32, error) {
	if len(input) != Size(s.Metadata.InputShape) {
		return nil, fmt.Errorf("expected %d values, got %d", Size(s.Metadata.InputShape), len(input))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.inputTensor.GetData(), input)
	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	out := make([]float32, len(s.outputTensor.GetData()))
	copy(out, s.outputTensor.GetData())
	return out, nil
}

func (s *Session) Classes() []string {
	return s.Metadata.Classes
}

// Predict feeds one instance at a time through the session
func (s *Session) Predict(ctx context.Context, instances [][]float64) ([]int, error) {
	out := make([]int, len(instances))
	buf := make([]float32, Size(s.Metadata.InputShape))
	for i, instance := range instances {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := range buf {
			buf[j] = 0
		}
		for j, v := range instance {
			if j < len(buf) {
				buf[j] = float32(v)
			}
		}
		scores, err := s.Run(buf)
		if err != nil {
			return nil, err
		}
		out[i] = classifier.Argmax(scores)
	}
	return out, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		return s.session.Destroy()
	}
	return nil
}
