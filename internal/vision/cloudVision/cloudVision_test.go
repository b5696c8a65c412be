package cloudVision

import (
	"context"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/akolanti/MLServe/internal/vision"
	"github.com/akolanti/MLServe/pkg/logger_i"
	"google.golang.org/genproto/googleapis/rpc/status"
)

func detector(fn annotateFunc) *Detector {
	return &Detector{annotate: fn, logger: logger_i.NewLogger("test")}
}

func TestDetectFaces(t *testing.T) {
	d := detector(func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
		r := req.GetRequests()[0]
		if string(r.GetImage().GetContent()) != "png" || r.GetFeatures()[0].GetType() != visionpb.Feature_FACE_DETECTION {
			t.Errorf("unexpected request %v", req)
		}
		return &visionpb.BatchAnnotateImagesResponse{
			Responses: []*visionpb.AnnotateImageResponse{{
				FaceAnnotations: []*visionpb.FaceAnnotation{{
					BoundingPoly:        &visionpb.BoundingPoly{Vertices: []*visionpb.Vertex{{X: 1, Y: 2}, {X: 3, Y: 4}}},
					AngerLikelihood:     visionpb.Likelihood_VERY_UNLIKELY,
					JoyLikelihood:       visionpb.Likelihood_VERY_LIKELY,
					SurpriseLikelihood:  visionpb.Likelihood_POSSIBLE,
					DetectionConfidence: 0.98,
				}},
			}},
		}, nil
	})

	faces, err := d.DetectFaces(context.Background(), []byte("png"))
	if err != nil {
		t.Fatalf("DetectFaces failed: %v", err)
	}
	if len(faces) != 1 {
		t.Fatalf("expected one face, got %d", len(faces))
	}
	f := faces[0]
	if f.Joy != vision.VeryLikely || f.Anger != vision.VeryUnlikely || f.Surprise != vision.Possible {
		t.Errorf("likelihoods not mapped: %+v", f)
	}
	if len(f.Vertices) != 2 || f.Vertices[1] != (vision.Vertex{X: 3, Y: 4}) {
		t.Errorf("vertices not mapped: %+v", f.Vertices)
	}
}

func TestDetectFaces_ResponseError(t *testing.T) {
	d := detector(func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
		return &visionpb.BatchAnnotateImagesResponse{
			Responses: []*visionpb.AnnotateImageResponse{{Error: &status.Status{Code: 3, Message: "bad image"}}},
		}, nil
	})
	if _, err := d.DetectFaces(context.Background(), []byte("png")); err == nil || err.Error() != "bad image" {
		t.Errorf("expected vendor error, got %v", err)
	}
}
