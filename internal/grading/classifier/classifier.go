// Package classifier wraps the external per-frame classification capability
// behind a narrow contract and a per-crop registry.
package classifier

import (
	"context"
	"fmt"
	"image"
	"sort"

	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/domain"
)

// Classifier scores a single frame. The returned slice holds one unit-scale
// confidence per grade class, index-aligned with domain.Grades.
type Classifier interface {
	Classify(ctx context.Context, frame image.Image) ([]float64, error)
}

// Registry maps crop types to their classifier variant. It is populated at
// startup and read-only afterwards.
type Registry struct {
	variants map[string]Classifier
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{variants: make(map[string]Classifier)}
}

// Register binds a classifier to a crop type.
func (r *Registry) Register(cropType string, c Classifier) {
	r.variants[cropType] = c
}

// Lookup returns the classifier for a crop type, or domain.ErrUnknownCropType.
func (r *Registry) Lookup(cropType string) (Classifier, error) {
	c, ok := r.variants[cropType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCropType, cropType)
	}
	return c, nil
}

// CropTypes returns the loaded crop types in sorted order.
func (r *Registry) CropTypes() []string {
	crops := make([]string, 0, len(r.variants))
	for crop := range r.variants {
		crops = append(crops, crop)
	}
	sort.Strings(crops)
	return crops
}

// Len returns the number of loaded classifier variants.
func (r *Registry) Len() int {
	return len(r.variants)
}
