//go:build integration

package integration

import (
	"io"
	"net/http"
	"testing"

	"github.com/bissquit/meetup-hub/api/openapi"
	"github.com/bissquit/meetup-hub/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_Me(t *testing.T) {
	user := createUser(t, "Ana Souza")
	client := newTestClient(t, user.ID)

	resp, err := client.GET("/api/v1/me")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, user.ID, result.Data.ID)
	assert.Equal(t, "Ana Souza", result.Data.Name)
	assert.Equal(t, user.Email, result.Data.Email)
}

func TestAuth_RejectsRequests(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"no header", "", "Token not provided"},
		{"no bearer scheme", "Token abc", "Token malformatted"},
		{"garbage token", "Bearer abc.def.ghi", "Token invalid"},
		{"unknown user", "Bearer " + testutil.IssueToken(t, uuid.NewString()), "Token invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, testServer.URL+"/api/v1/meetups?date=2030-01-01", nil)
			require.NoError(t, err)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			var result struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			testutil.DecodeJSON(t, resp, &result)
			assert.Equal(t, tt.message, result.Error.Message)
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	client := testutil.NewClient(testServer.URL)

	for _, path := range []string{"/healthz", "/readyz", "/version"} {
		resp, err := client.GET(path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		_ = resp.Body.Close()
	}
}

func TestOpenAPIDocument(t *testing.T) {
	resp, err := testutil.NewClient(testServer.URL).GET("/api/openapi.yaml")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-yaml", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, openapi.Spec, body)
}
