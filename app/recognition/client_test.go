package recognition

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognizeFrame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/recognition/frame", r.URL.Path)

		_, _, err := r.FormFile("image")
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"matches": [
				{"roll": "A1", "name": "Alice", "bbox": [10, 20, 110, 140], "confidence": 0.91},
				{"roll": "Unknown", "name": "Unknown", "bbox": [200, 30, 290, 130], "confidence": 0}
			],
			"debug": {"faces_detected": 2, "known_encodings": 40}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	result, err := client.RecognizeFrame(context.Background(), []byte("jpegdata"), "frame.jpg")
	require.NoError(t, err)

	require.Len(t, result.Matches, 2)
	assert.True(t, result.Matches[0].Known())
	assert.False(t, result.Matches[1].Known())
	require.NotNil(t, result.Debug)
	assert.Equal(t, 2, result.Debug.FacesDetected)

	known := result.KnownMatches()
	require.Len(t, known, 1)
	assert.Equal(t, "A1", known[0].Roll)
}

func TestRecognizeFrameServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal Server Error during recognition", "details": "model not loaded"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.RecognizeFrame(context.Background(), []byte("jpegdata"), "frame.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestRecognizeFrameUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.RecognizeFrame(context.Background(), []byte("jpegdata"), "frame.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestMatchKnown(t *testing.T) {
	tests := []struct {
		name  string
		match Match
		want  bool
	}{
		{"identified", Match{Roll: "A1", Name: "Alice"}, true},
		{"unknown sentinel", Match{Roll: "Unknown", Name: "Unknown"}, false},
		{"empty", Match{}, false},
		{"unknown roll only", Match{Roll: "Unknown", Name: "Alice"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.match.Known())
		})
	}
}
