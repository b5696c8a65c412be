package cloudVision

import (
	"context"
	"errors"

	visionapi "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/vision"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

type annotateFunc func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)

type Detector struct {
	annotate annotateFunc
	logger   *logger_i.Logger
}

// NewDetector creates the Cloud Vision client from application default
// credentials. The client is closed when ctx is done.
func NewDetector(ctx context.Context) (*Detector, error) {
	logger := logger_i.NewLogger("Cloud Vision")
	client, err := visionapi.NewImageAnnotatorClient(ctx)
	if err != nil {
		logger.Error("could not create image annotator client", "error", err)
		return nil, err
	}
	go func() {
		<-ctx.Done()
		logger.Info("Closing Cloud Vision client")
		_ = client.Close()
	}()

	return &Detector{
		annotate: func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
			return client.BatchAnnotateImages(ctx, req)
		},
		logger: logger,
	}, nil
}

func faceRequest(png []byte) *visionpb.BatchAnnotateImagesRequest {
	return &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image: &visionpb.Image{Content: png},
			Features: []*visionpb.Feature{{
				Type:       visionpb.Feature_FACE_DETECTION,
				MaxResults: config.MaxFacesPerImage,
			}},
		}},
	}
}

func (d *Detector) DetectFaces(ctx context.Context, png []byte) ([]vision.Face, error) {
	resp, err := d.annotate(ctx, faceRequest(png))
	if err != nil {
		return nil, err
	}
	if len(resp.GetResponses()) == 0 {
		return []vision.Face{}, nil
	}
	res := resp.GetResponses()[0]
	if e := res.GetError(); e != nil && e.GetCode() != 0 {
		d.logger.WithTrace(ctx).Error("face detection returned an error", "code", e.GetCode(), "message", e.GetMessage())
		return nil, errors.New(e.GetMessage())
	}
	return toFaces(res.GetFaceAnnotations()), nil
}

func toFaces(annotations []*visionpb.FaceAnnotation) []vision.Face {
	faces := make([]vision.Face, 0, len(annotations))
	for _, a := range annotations {
		vertices := make([]vision.Vertex, 0, len(a.GetBoundingPoly().GetVertices()))
		for _, v := range a.GetBoundingPoly().GetVertices() {
			vertices = append(vertices, vision.Vertex{X: int(v.GetX()), Y: int(v.GetY())})
		}
		faces = append(faces, vision.Face{
			Vertices:   vertices,
			Anger:      vision.Likelihood(a.GetAngerLikelihood()),
			Joy:        vision.Likelihood(a.GetJoyLikelihood()),
			Surprise:   vision.Likelihood(a.GetSurpriseLikelihood()),
			Confidence: a.GetDetectionConfidence(),
		})
	}
	return faces
}
