package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job id was never created
	ErrJobNotFound = errors.New("job not found")

	// ErrDuplicateJob is returned when creating a job whose id already exists
	ErrDuplicateJob = errors.New("job already exists")

	// ErrTerminalState is returned when transitioning a job that already
	// reached completed or failed
	ErrTerminalState = errors.New("job already in terminal state")

	// ErrUnknownCropType is returned at submission when no classifier is
	// loaded for the requested crop
	ErrUnknownCropType = errors.New("no model available for crop type")

	// ErrSourceNotFound is returned when the video artifact path does not resolve
	ErrSourceNotFound = errors.New("video source not found")

	// ErrSourceUnreadable is returned when the decoder cannot open the stream
	ErrSourceUnreadable = errors.New("video source unreadable")

	// ErrNoFrames is returned when decoding succeeds but no frame satisfies
	// the sampling stride before the stream is exhausted
	ErrNoFrames = errors.New("no frames could be extracted from video")

	// ErrNoFramesScored is returned when every sampled frame fails classification
	ErrNoFramesScored = errors.New("no frames could be classified")
)
