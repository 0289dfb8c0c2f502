package trainer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mkulimalink-monitor/monitor"
)

func TestTrainSuccess(t *testing.T) {
	var requested struct {
		Model string `json:"model"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pipeline/run", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&requested))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"evaluation_results": map[string]float64{
				"mape": 8.2,
				"rmse": 1.4,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.Train(context.Background(), monitor.ModelPricePrediction)

	require.NoError(t, err)
	assert.Equal(t, "price_prediction", requested.Model)
	assert.Equal(t, monitor.TrainStatusSuccess, result.Status)
	assert.Equal(t, 8.2, result.Metrics["mape"])
}

func TestTrainPipelineReportsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"status": "error",
			"error":  "training diverged",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.Train(context.Background(), monitor.ModelDiseaseDetection)

	require.NoError(t, err)
	assert.Equal(t, monitor.TrainStatusError, result.Status)
	assert.Equal(t, "training diverged", result.Error)
}

func TestTrainNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "pipeline overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Train(context.Background(), monitor.ModelRecommendations)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "pipeline overloaded")
}

func TestTrainContextTimeout(t *testing.T) {
	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer server.Close()
	defer close(blocked)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(server.URL)
	_, err := client.Train(ctx, monitor.ModelPricePrediction)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
