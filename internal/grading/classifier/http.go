package classifier

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/image/draw"
)

const defaultInputSize = 224

// HTTPConfig holds configuration for one inference endpoint.
type HTTPConfig struct {
	// Endpoint receives a JPEG-encoded frame and returns per-class confidences
	Endpoint string
	// Timeout bounds a single inference call
	Timeout time.Duration
	// InputSize is the square side length frames are resized to before
	// encoding; the model's expected input resolution
	InputSize int
}

// HTTPClassifier scores frames against a remote model-serving endpoint.
type HTTPClassifier struct {
	client    *resty.Client
	endpoint  string
	inputSize int
}

// NewHTTPClassifier creates a classifier for one inference endpoint.
func NewHTTPClassifier(cfg *HTTPConfig) *HTTPClassifier {
	client := resty.New()
	client.SetHeader("Content-Type", "image/jpeg")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	inputSize := cfg.InputSize
	if inputSize <= 0 {
		inputSize = defaultInputSize
	}

	return &HTTPClassifier{
		client:    client,
		endpoint:  cfg.Endpoint,
		inputSize: inputSize,
	}
}

type inferenceResponse struct {
	Confidences []float64 `json:"confidences"`
	Error       string    `json:"error,omitempty"`
}

// Classify resizes the frame to the model input resolution, JPEG-encodes it
// and posts it to the inference endpoint.
func (c *HTTPClassifier) Classify(ctx context.Context, frame image.Image) ([]float64, error) {
	resized := resizeSquare(frame, c.inputSize)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	var result inferenceResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(buf.Bytes()).
		SetResult(&result).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("inference endpoint returned %s", resp.Status())
	}

	if result.Error != "" {
		return nil, fmt.Errorf("inference error: %s", result.Error)
	}

	if len(result.Confidences) == 0 {
		return nil, fmt.Errorf("inference endpoint returned no confidences")
	}

	return result.Confidences, nil
}

// resizeSquare scales the frame to size x size, matching how the model was
// trained rather than preserving aspect ratio.
func resizeSquare(src image.Image, size int) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() == size && bounds.Dy() == size {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}
