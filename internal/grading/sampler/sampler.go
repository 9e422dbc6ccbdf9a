// Package sampler extracts a bounded, ordered set of frames from a video
// artifact for downstream classification.
package sampler

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"

	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/domain"
)

// FrameReader yields decoded frames sequentially from a single video stream.
type FrameReader interface {
	// Next returns the next decoded frame, or io.EOF when the stream
	// is exhausted.
	Next() (image.Image, error)

	// Close releases the underlying decode handle. Safe to call on any path.
	Close() error
}

// Decoder opens a video artifact for sequential frame reading.
type Decoder interface {
	Open(ctx context.Context, path string) (FrameReader, error)
}

// Params controls frame selection.
type Params struct {
	// Stride selects every Nth frame (zero-based index divisible by Stride)
	Stride int
	// MaxFrames is a hard cap on selected frames
	MaxFrames int
}

// DefaultParams matches the heavier sampling profile (every 30th frame,
// up to 30 frames). FastParams trades accuracy for turnaround.
var (
	DefaultParams = Params{Stride: 30, MaxFrames: 30}
	FastParams    = Params{Stride: 60, MaxFrames: 7}
)

func (p Params) normalized() Params {
	if p.Stride <= 0 {
		p.Stride = DefaultParams.Stride
	}
	if p.MaxFrames <= 0 {
		p.MaxFrames = DefaultParams.MaxFrames
	}
	return p
}

// Sampler reads frames through a Decoder and applies stride/cap selection.
type Sampler struct {
	decoder Decoder
	logger  *slog.Logger
}

// New creates a Sampler over the given decoder.
func New(decoder Decoder, logger *slog.Logger) *Sampler {
	return &Sampler{decoder: decoder, logger: logger}
}

// Sample reads the artifact sequentially from the start, keeping every
// frame whose index is divisible by the stride, stopping once the source is
// exhausted or the cap is reached. The decode handle is released on every
// exit path. Returns domain.ErrNoFrames if nothing was selected.
func (s *Sampler) Sample(ctx context.Context, path string, params Params) ([]image.Image, error) {
	params = params.normalized()

	reader, err := s.decoder.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var frames []image.Image
	frameIndex := 0

	for len(frames) < params.MaxFrames {
		frame, err := reader.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				// A mid-stream decode fault ends sampling the same way
				// exhaustion does; whatever was selected so far stands.
				s.logger.Warn("Frame decode stopped early",
					slog.String("path", path),
					slog.Int("frame_index", frameIndex),
					slog.String("error", err.Error()),
				)
			}
			break
		}

		if frameIndex%params.Stride == 0 {
			frames = append(frames, frame)
		}
		frameIndex++
	}

	s.logger.Debug("Frames sampled",
		slog.String("path", path),
		slog.Int("frames_read", frameIndex),
		slog.Int("frames_selected", len(frames)),
	)

	if len(frames) == 0 {
		return nil, domain.ErrNoFrames
	}

	return frames, nil
}
