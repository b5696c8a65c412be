package vision

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrDecodeImage        = errors.New("could not decode image")
	ErrEmptyImage         = errors.New("image is empty")
	ErrBackendUnavailable = errors.New("vision backend is not configured")
)

// Likelihood mirrors the Cloud Vision likelihood enum
type Likelihood int32

const (
	Unknown Likelihood = iota
	VeryUnlikely
	Unlikely
	Possible
	Likely
	VeryLikely
)

var likelihoodName = [...]string{
	"UNKNOWN",
	"VERY_UNLIKELY",
	"UNLIKELY",
	"POSSIBLE",
	"LIKELY",
	"VERY_LIKELY",
}

func (l Likelihood) String() string {
	if l < 0 || int(l) >= len(likelihoodName) {
		return likelihoodName[Unknown]
	}
	return likelihoodName[l]
}

func (l Likelihood) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Likelihood) UnmarshalText(text []byte) error {
	for i, name := range likelihoodName {
		if name == string(text) {
			*l = Likelihood(i)
			return nil
		}
	}
	return fmt.Errorf("unknown likelihood %q", text)
}

type Vertex struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Face struct {
	Vertices   []Vertex   `json:"vertices"`
	Anger      Likelihood `json:"anger"`
	Joy        Likelihood `json:"joy"`
	Surprise   Likelihood `json:"surprise"`
	Confidence float32    `json:"confidence"`
}

// FaceDetector finds faces in a PNG encoded image
type FaceDetector interface {
	DetectFaces(ctx context.Context, png []byte) ([]Face, error)
}

// CelebrityRecognizer names the most prominent celebrity in an image.
// found is false when nobody was recognised.
type CelebrityRecognizer interface {
	RecognizeCelebrity(ctx context.Context, img []byte) (name string, found bool, err error)
}

// CelebrityClassifier scores one preprocessed HxWx3 image and returns the best class index
type CelebrityClassifier interface {
	PredictIndex(ctx context.Context, instance [][][]float32) (int, error)
}
