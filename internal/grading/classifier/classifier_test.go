package classifier

import (
	"context"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/domain"
)

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	r.Register("tomato", &HTTPClassifier{})
	r.Register("apple", &HTTPClassifier{})

	c, err := r.Lookup("tomato")
	require.NoError(t, err)
	assert.NotNil(t, c)

	_, err = r.Lookup("durian")
	assert.ErrorIs(t, err, domain.ErrUnknownCropType)

	assert.Equal(t, []string{"apple", "tomato"}, r.CropTypes())
	assert.Equal(t, 2, r.Len())
}

func TestHTTPClassifierClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))

		// The payload must be a decodable JPEG at the model input size
		frame, err := jpeg.Decode(r.Body)
		require.NoError(t, err)
		assert.Equal(t, 64, frame.Bounds().Dx())
		assert.Equal(t, 64, frame.Bounds().Dy())

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"confidences": [0.91, 0.06, 0.03]}`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(&HTTPConfig{
		Endpoint:  srv.URL,
		Timeout:   5 * time.Second,
		InputSize: 64,
	})

	scores, err := c.Classify(context.Background(), image.NewRGBA(image.Rect(0, 0, 640, 480)))
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.InDelta(t, 0.91, scores[0], 1e-9)
}

func TestHTTPClassifierErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantMsg string
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantMsg: "inference endpoint returned",
		},
		{
			name: "error payload",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"error": "model not warmed up"}`))
			},
			wantMsg: "model not warmed up",
		},
		{
			name: "empty confidences",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"confidences": []}`))
			},
			wantMsg: "no confidences",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewHTTPClassifier(&HTTPConfig{Endpoint: srv.URL, Timeout: time.Second})

			_, err := c.Classify(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
