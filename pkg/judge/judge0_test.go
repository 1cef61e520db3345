package judge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestJudge0ClientReturnsTerminalResultDirectly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "token-123", r.Header.Get("X-Auth-Token"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "print(input())", payload["source_code"])
		require.InDelta(t, 71, payload["language_id"], 0.001)

		stdout := "42\n"
		seconds := "0.021"
		memory := 3040.0
		json.NewEncoder(w).Encode(submissionResponse{
			Status: Status{ID: StatusAccepted, Description: "Accepted"},
			Stdout: &stdout,
			Time:   &seconds,
			Memory: &memory,
		})
	}))
	defer server.Close()

	client, err := NewJudge0Client(Judge0Config{
		BaseURL:   server.URL,
		AuthToken: "token-123",
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)

	result, err := client.SubmitAndWait(context.Background(), "print(input())", 71, "42")
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, result.Status.ID)
	require.Equal(t, "42\n", result.Stdout)
	require.Equal(t, "0.021", result.Time)
	require.InDelta(t, 3040.0, result.Memory, 0.001)
}

func TestJudge0ClientPollsUntilTerminal(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(submissionResponse{
				Token:  "tok-1",
				Status: Status{ID: StatusInQueue, Description: "In Queue"},
			})
			return
		}

		require.Equal(t, "/submissions/tok-1", r.URL.Path)
		if polls.Add(1) < 2 {
			json.NewEncoder(w).Encode(submissionResponse{
				Token:  "tok-1",
				Status: Status{ID: StatusProcessing, Description: "Processing"},
			})
			return
		}
		stdout := "done"
		json.NewEncoder(w).Encode(submissionResponse{
			Token:  "tok-1",
			Status: Status{ID: StatusAccepted, Description: "Accepted"},
			Stdout: &stdout,
		})
	}))
	defer server.Close()

	client, err := NewJudge0Client(Judge0Config{
		BaseURL:      server.URL,
		PollInterval: time.Millisecond,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)

	result, err := client.SubmitAndWait(context.Background(), "code", 60, "")
	require.NoError(t, err)
	require.Equal(t, "done", result.Stdout)
	require.Equal(t, int32(2), polls.Load())
}

func TestJudge0ClientSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "queue full", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewJudge0Client(Judge0Config{BaseURL: server.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = client.SubmitAndWait(context.Background(), "code", 60, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
}

func TestJudge0ClientHonorsContextDuringPolling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(submissionResponse{
			Token:  "tok-1",
			Status: Status{ID: StatusInQueue, Description: "In Queue"},
		})
	}))
	defer server.Close()

	client, err := NewJudge0Client(Judge0Config{
		BaseURL:      server.URL,
		PollInterval: time.Hour,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.SubmitAndWait(ctx, "code", 60, "")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestJudge0ClientRequiresBaseURL(t *testing.T) {
	_, err := NewJudge0Client(Judge0Config{})
	require.Error(t, err)
}

func TestLanguageIDMapping(t *testing.T) {
	id, err := LanguageID("Python")
	require.NoError(t, err)
	require.Equal(t, 71, id)

	id, err = LanguageID(" go ")
	require.NoError(t, err)
	require.Equal(t, 60, id)

	_, err = LanguageID("brainfuck")
	require.ErrorIs(t, err, ErrUnknownLanguage)
}
