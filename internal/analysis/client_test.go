package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"facefortune/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func photoFixture() types.Photo {
	return types.Photo{Name: "selfie.jpg", Data: []byte{0xFF, 0xD8, 0xAA, 0xBB}}
}

func TestExtractFeatures(t *testing.T) {
	t.Run("uploads the photo as multipart and trims the answer", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/analyze/features/", r.URL.Path)

			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "selfie.jpg", header.Filename)

			json.NewEncoder(w).Encode(map[string]string{"features": "  calm eyes, wide brow \n"})
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		features, err := c.ExtractFeatures(context.Background(), photoFixture())
		require.NoError(t, err)
		assert.Equal(t, types.FeatureSet("calm eyes, wide brow"), features)
	})

	t.Run("defaults the upload filename when the photo has none", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, header, err := r.FormFile("file")
			require.NoError(t, err)
			assert.Equal(t, "face.jpg", header.Filename)
			json.NewEncoder(w).Encode(map[string]string{"features": "ok"})
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		_, err := c.ExtractFeatures(context.Background(), types.Photo{Data: []byte{0x01}})
		require.NoError(t, err)
	})

	t.Run("the sentinel answer becomes ErrNoFace", func(t *testing.T) {
		for _, payload := range []string{"again", "  again \n"} {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]string{"features": payload})
			}))
			c := NewClient(srv.URL)
			_, err := c.ExtractFeatures(context.Background(), photoFixture())
			assert.ErrorIs(t, err, ErrNoFace)
			srv.Close()
		}
	})

	t.Run("a server-reported error aborts the stage", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"error": "model overloaded"})
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		_, err := c.ExtractFeatures(context.Background(), photoFixture())

		var remote *RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Contains(t, remote.Message, "model overloaded")
		assert.False(t, errors.Is(err, ErrNoFace))
	})

	t.Run("an empty features payload is a failure, not a feature set", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"features": "   "})
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		_, err := c.ExtractFeatures(context.Background(), photoFixture())
		var remote *RemoteError
		require.ErrorAs(t, err, &remote)
	})

	t.Run("a non-2xx status carries the code", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "internal failure", http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		_, err := c.ExtractFeatures(context.Background(), photoFixture())

		var remote *RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, http.StatusInternalServerError, remote.Status)
		assert.Contains(t, remote.Message, "internal failure")
	})

	t.Run("a transport failure has status zero", func(t *testing.T) {
		// Closed server guarantees a connection error.
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		c := NewClient(srv.URL)
		_, err := c.ExtractFeatures(context.Background(), photoFixture())

		var remote *RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Zero(t, remote.Status)
	})
}

func TestAnalyzeMini(t *testing.T) {
	t.Run("sends the feature set and decodes the details", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/analyze/wealth/mini", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "calm eyes", req["feature"])

			json.NewEncoder(w).Encode(map[string]string{
				"detail1": "## Forehead\nFirst.",
				"detail2": "## Eyes\nSecond.",
				"detail3": "## Jaw\nThird.",
			})
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		mini, err := c.AnalyzeMini(context.Background(), "calm eyes")
		require.NoError(t, err)
		assert.Equal(t, types.MiniAnalysis{
			Detail1: "## Forehead\nFirst.",
			Detail2: "## Eyes\nSecond.",
			Detail3: "## Jaw\nThird.",
		}, mini)
	})

	t.Run("absent detail fields decode to empty strings", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"detail1": "only one"})
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		mini, err := c.AnalyzeMini(context.Background(), "calm eyes")
		require.NoError(t, err)
		assert.Equal(t, "only one", mini.Detail1)
		assert.Empty(t, mini.Detail2)
		assert.Empty(t, mini.Detail3)
	})

	t.Run("a server-reported error aborts the stage", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"error": "upstream timeout"})
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		_, err := c.AnalyzeMini(context.Background(), "calm eyes")
		var remote *RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Contains(t, remote.Message, "upstream timeout")
	})
}

func TestAnalyzeScore(t *testing.T) {
	t.Run("sends all three details and decodes score and summary", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/analyze/wealth/score", r.URL.Path)

			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "a", req["detail1"])
			assert.Equal(t, "b", req["detail2"])
			assert.Equal(t, "c", req["detail3"])

			json.NewEncoder(w).Encode(map[string]any{
				"score1": 82,
				"score2": `"A river of wealth"`,
			})
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		score, err := c.AnalyzeScore(context.Background(), types.MiniAnalysis{Detail1: "a", Detail2: "b", Detail3: "c"})
		require.NoError(t, err)
		assert.Equal(t, float64(82), score.Score)
		// The raw summary keeps its quotes; presentation strips them.
		assert.Equal(t, `"A river of wealth"`, score.Summary)
	})

	t.Run("malformed JSON is a remote error with the status attached", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		_, err := c.AnalyzeScore(context.Background(), types.MiniAnalysis{})
		var remote *RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, http.StatusOK, remote.Status)
	})
}
