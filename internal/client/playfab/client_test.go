package playfab_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-manager/internal/client/playfab"
	"wallet-manager/internal/logger"
)

func init() {
	logger.InitLogger("test")
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":   status,
		"status": http.StatusText(status),
		"data":   data,
	})
}

func TestAuthenticateSessionTicket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Server/AuthenticateSessionTicket", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("X-SecretKey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ticket-1", body["SessionTicket"])

		respond(w, http.StatusOK, map[string]any{
			"UserInfo": map[string]string{"PlayFabId": "ABCD1234"},
		})
	}))
	defer server.Close()

	client := playfab.NewClient(server.URL, "secret-key", 5*time.Second)
	userID, err := client.AuthenticateSessionTicket(context.Background(), "ticket-1")

	require.NoError(t, err)
	assert.Equal(t, "ABCD1234", userID)
}

func TestAuthenticateSessionTicketRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusUnauthorized, nil)
	}))
	defer server.Close()

	client := playfab.NewClient(server.URL, "secret-key", 5*time.Second)
	_, err := client.AuthenticateSessionTicket(context.Background(), "expired-ticket")

	assert.ErrorIs(t, err, playfab.ErrInvalidTicket)
}

func TestAuthenticateSessionTicketMissingUserID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, map[string]any{"UserInfo": map[string]string{}})
	}))
	defer server.Close()

	client := playfab.NewClient(server.URL, "secret-key", 5*time.Second)
	_, err := client.AuthenticateSessionTicket(context.Background(), "ticket-1")

	assert.Error(t, err)
}

// Transient upstream failures are retried; authentication succeeds once the
// upstream recovers.
func TestAuthenticateSessionTicketRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		respond(w, http.StatusOK, map[string]any{
			"UserInfo": map[string]string{"PlayFabId": "ABCD1234"},
		})
	}))
	defer server.Close()

	client := playfab.NewClient(server.URL, "secret-key", 5*time.Second)
	userID, err := client.AuthenticateSessionTicket(context.Background(), "ticket-1")

	require.NoError(t, err)
	assert.Equal(t, "ABCD1234", userID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetUserField(t *testing.T) {
	tests := []struct {
		name      string
		data      map[string]any
		want      string
		wantFound bool
	}{
		{
			name:      "present",
			data:      map[string]any{"WalletAddress": map[string]string{"Value": "0xabc"}},
			want:      "0xabc",
			wantFound: true,
		},
		{name: "absent", data: map[string]any{}},
		{
			name: "empty value treated as absent",
			data: map[string]any{"WalletAddress": map[string]string{"Value": ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/Admin/GetUserReadOnlyData", r.URL.Path)

				var body struct {
					PlayFabID string   `json:"PlayFabId"`
					Keys      []string `json:"Keys"`
				}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "user-1", body.PlayFabID)
				assert.Equal(t, []string{"WalletAddress"}, body.Keys)

				respond(w, http.StatusOK, map[string]any{"Data": tt.data})
			}))
			defer server.Close()

			client := playfab.NewClient(server.URL, "secret-key", 5*time.Second)
			value, found, err := client.GetUserField(context.Background(), "user-1", "WalletAddress")

			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestSetUserFieldWritesPrivateData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Admin/UpdateUserReadOnlyData", r.URL.Path)

		var body struct {
			PlayFabID  string            `json:"PlayFabId"`
			Data       map[string]string `json:"Data"`
			Permission string            `json:"Permission"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user-1", body.PlayFabID)
		assert.Equal(t, map[string]string{"TokenBalance": "25"}, body.Data)
		assert.Equal(t, "Private", body.Permission)

		respond(w, http.StatusOK, nil)
	}))
	defer server.Close()

	client := playfab.NewClient(server.URL, "secret-key", 5*time.Second)
	err := client.SetUserField(context.Background(), "user-1", "TokenBalance", "25")

	assert.NoError(t, err)
}

func TestGetTitleField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Admin/GetTitleData", r.URL.Path)
		respond(w, http.StatusOK, map[string]any{
			"Data": map[string]string{"RewardRoster": `[{"user_id":"user-1"}]`},
		})
	}))
	defer server.Close()

	client := playfab.NewClient(server.URL, "secret-key", 5*time.Second)
	value, found, err := client.GetTitleField(context.Background(), "RewardRoster")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"user_id":"user-1"}]`, value)
}

func TestSetTitleField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Admin/SetTitleData", r.URL.Path)

		var body struct {
			Key   string `json:"Key"`
			Value string `json:"Value"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "RewardRoster", body.Key)
		assert.Equal(t, "[]", body.Value)

		respond(w, http.StatusOK, nil)
	}))
	defer server.Close()

	client := playfab.NewClient(server.URL, "secret-key", 5*time.Second)
	err := client.SetTitleField(context.Background(), "RewardRoster", "[]")

	assert.NoError(t, err)
}

func TestCallSurfacesEnvelopeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"code":400,"status":"BadRequest","error":"InvalidParams"}`)
	}))
	defer server.Close()

	client := playfab.NewClient(server.URL, "secret-key", 5*time.Second)
	_, _, err := client.GetTitleField(context.Background(), "RewardRoster")

	assert.Error(t, err)
}
