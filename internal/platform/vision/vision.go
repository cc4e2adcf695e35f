package vision

import (
	"context"
	"fmt"

	visionv2 "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// Client wraps the Cloud Vision image annotator for document OCR.
type Client struct {
	annotator *visionv2.ImageAnnotatorClient
}

// NewClient uses Application Default Credentials unless an inline JSON
// credential blob is provided.
func NewClient(ctx context.Context, credentialsJSON string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	annotator, err := visionv2.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &Client{annotator: annotator}, nil
}

func (c *Client) Close() error {
	return c.annotator.Close()
}

// RecognizeImage runs DOCUMENT_TEXT_DETECTION on raw image bytes and returns
// the full text plus the engine's mean page confidence (0 when unreported).
func (c *Client) RecognizeImage(ctx context.Context, img []byte) (string, float64, error) {
	resp, err := c.annotator.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: img},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	})
	if err != nil {
		return "", 0, fmt.Errorf("annotate image: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", 0, fmt.Errorf("annotate image: empty response")
	}

	r := resp.Responses[0]
	if r.Error != nil {
		return "", 0, fmt.Errorf("annotate image: %s", r.Error.GetMessage())
	}

	annotation := r.GetFullTextAnnotation()
	if annotation == nil {
		return "", 0, nil
	}

	var sum float64
	var pages int
	for _, p := range annotation.GetPages() {
		sum += float64(p.GetConfidence())
		pages++
	}
	confidence := 0.0
	if pages > 0 {
		confidence = sum / float64(pages)
	}
	return annotation.GetText(), confidence, nil
}
