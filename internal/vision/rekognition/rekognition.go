package rekognition

import (
	"context"

	"github.com/akolanti/MLServe/pkg/logger_i"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

type recognizeAPI interface {
	RecognizeCelebrities(ctx context.Context, params *rekognition.RecognizeCelebritiesInput, optFns ...func(*rekognition.Options)) (*rekognition.RecognizeCelebritiesOutput, error)
}

type Recognizer struct {
	api    recognizeAPI
	logger *logger_i.Logger
}

// NewRecognizer loads the shared AWS config for profile in region
func NewRecognizer(ctx context.Context, profile string, region string) (*Recognizer, error) {
	logger := logger_i.NewLogger("Rekognition")

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		logger.Error("could not load aws config", "profile", profile, "error", err)
		return nil, err
	}
	logger.Info("Rekognition client created", "region", region)
	return &Recognizer{api: rekognition.NewFromConfig(cfg), logger: logger}, nil
}

// RecognizeCelebrity returns the first recognised celebrity
func (r *Recognizer) RecognizeCelebrity(ctx context.Context, img []byte) (string, bool, error) {
	out, err := r.api.RecognizeCelebrities(ctx, &rekognition.RecognizeCelebritiesInput{
		Image: &types.Image{Bytes: img},
	})
	if err != nil {
		return "", false, err
	}
	r.logger.WithTrace(ctx).Debug("RecognizeCelebrities", "celebrities", len(out.CelebrityFaces), "unrecognized", len(out.UnrecognizedFaces))
	if len(out.CelebrityFaces) == 0 {
		return "", false, nil
	}
	return aws.ToString(out.CelebrityFaces[0].Name), true, nil
}
