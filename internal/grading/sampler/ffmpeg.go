package sampler

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"os/exec"

	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/domain"
)

// FFmpegDecoder shells out to the local ffmpeg binary and reads frames as an
// MJPEG stream from its stdout.
type FFmpegDecoder struct {
	binaryPath string
}

// NewFFmpegDecoder creates a decoder using the given binary, or "ffmpeg"
// from PATH when empty.
func NewFFmpegDecoder(binaryPath string) *FFmpegDecoder {
	if binaryPath == "" {
		binaryPath = "ffmpeg"
	}
	return &FFmpegDecoder{binaryPath: binaryPath}
}

// Open starts an ffmpeg process for the artifact and verifies that it
// produces a decodable stream. Returns domain.ErrSourceNotFound when the
// path does not resolve and domain.ErrSourceUnreadable when ffmpeg cannot
// open the input.
func (d *FFmpegDecoder) Open(ctx context.Context, path string) (FrameReader, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)
	}

	// -q:v 2 keeps the intermediate JPEGs near-lossless so classifier
	// input quality does not depend on the transport encoding.
	cmd := exec.CommandContext(ctx, d.binaryPath,
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "2",
		"pipe:1",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)
	}

	reader := &ffmpegFrameReader{
		cmd:    cmd,
		stdout: stdout,
		buf:    bufio.NewReaderSize(stdout, 1<<20),
		stderr: &stderr,
	}

	// Probe for the JPEG start-of-image marker so an input ffmpeg rejects
	// outright surfaces as SourceUnreadable rather than an empty stream.
	if _, err := reader.buf.Peek(2); err != nil {
		reader.Close()
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceUnreadable, firstLine(stderr.String()))
	}

	return reader, nil
}

type ffmpegFrameReader struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	buf    *bufio.Reader
	stderr *bytes.Buffer
	closed bool
}

func (r *ffmpegFrameReader) Next() (image.Image, error) {
	frame, err := jpeg.Decode(r.buf)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("mjpeg decode: %w", err)
	}
	return frame, nil
}

func (r *ffmpegFrameReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	// Draining is not needed; kill the process if it is still producing
	// and reap it unconditionally.
	r.stdout.Close()
	if r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
	}
	_ = r.cmd.Wait()
	return nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	if s == "" {
		return "ffmpeg produced no output"
	}
	return s
}
