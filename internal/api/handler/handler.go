package handler

import (
	"log/slog"

	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/classifier"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/runner"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/store"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger   *slog.Logger
	Store    store.JobStore
	Registry *classifier.Registry
	Runner   *runner.Runner
	// TempDir receives uploaded video artifacts
	TempDir string
}

// GradingHandler handles grading job HTTP requests
type GradingHandler struct {
	logger   *slog.Logger
	store    store.JobStore
	registry *classifier.Registry
	runner   *runner.Runner
	tempDir  string
}

// NewGradingHandler creates a new GradingHandler instance
func NewGradingHandler(deps *Dependencies) *GradingHandler {
	return &GradingHandler{
		logger:   deps.Logger,
		store:    deps.Store,
		registry: deps.Registry,
		runner:   deps.Runner,
		tempDir:  deps.TempDir,
	}
}
