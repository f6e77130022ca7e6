package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenzahq/cadenza/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(
		WithBaseURL(server.URL),
		WithRateInterval(time.Microsecond),
	)
}

func TestSubmit(t *testing.T) {
	var received models.GenerationRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/podcast/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"job_id":  "job_20260115_120000",
		})
	})

	req := models.GenerationRequest{
		Content:    "document body",
		HostVoice:  "alloy",
		GuestVoice: "echo",
	}
	req.ApplyDefaults()

	jobID, err := client.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "job_20260115_120000", jobID)

	assert.Equal(t, "document body", received.Content)
	assert.Equal(t, models.DefaultStyle, received.Style)
	assert.Equal(t, models.DefaultSpeakerCount, received.SpeakerCount)
}

func TestSubmitRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "document too short",
		})
	})

	_, err := client.Submit(context.Background(), models.GenerationRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document too short")
}

func TestSubmitMissingJobID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	})

	_, err := client.Submit(context.Background(), models.GenerationRequest{})
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/podcast/status/job_1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"job": map[string]interface{}{
				"status":   "completed",
				"progress": 100,
				"message":  "Podcast generated successfully!",
				"result": map[string]interface{}{
					"audio_file":       "/output/job_1.mp3",
					"duration_seconds": 614.2,
					"cost":             0.42,
				},
			},
		})
	})

	status, err := client.Status(context.Background(), "job_1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, status.Status)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.Result)
	assert.Equal(t, "/output/job_1.mp3", status.Result.AudioFile)
	assert.InDelta(t, 614.2, status.Result.DurationSeconds, 0.001)
}

func TestStatusHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Job not found", http.StatusNotFound)
	})

	_, err := client.Status(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestEstimateCost(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/podcast/estimate-cost", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "document body", payload["document_text"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"estimate": map[string]interface{}{
				"llm_cost":   0.02,
				"tts_cost":   0.38,
				"total_cost": 0.40,
			},
		})
	})

	estimate, err := client.EstimateCost(context.Background(), "document body")
	require.NoError(t, err)
	assert.InDelta(t, 0.40, estimate.TotalCost, 0.001)
}

func TestVoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/podcast/voices", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"voices": []map[string]interface{}{
				{"id": "alloy", "name": "Alloy", "gender": "neutral"},
				{"id": "echo", "name": "Echo", "gender": "male"},
			},
		})
	})

	voices, err := client.Voices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 2)
	assert.Equal(t, "alloy", voices[0].ID)
	assert.Equal(t, "Echo", voices[1].Name)
}

func TestHealth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	assert.NoError(t, client.Health(context.Background()))
}

func TestHealthUnreachable(t *testing.T) {
	client := NewClient(
		WithBaseURL("http://127.0.0.1:1"),
		WithRateInterval(time.Microsecond),
	)
	assert.Error(t, client.Health(context.Background()))
}
