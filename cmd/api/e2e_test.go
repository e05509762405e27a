//go:build e2e

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a live API:
//
//	CLINSTUDY_E2E_BASE_URL=http://localhost:8080 \
//	CLINSTUDY_E2E_ADMIN_EMAIL=... CLINSTUDY_E2E_ADMIN_PASSWORD=... \
//	go test -tags e2e ./cmd/api
type e2eClient struct {
	t       *testing.T
	http    *http.Client
	baseURL string
	token   string
}

func newE2EClient(t *testing.T) *e2eClient {
	t.Helper()
	baseURL := os.Getenv("CLINSTUDY_E2E_BASE_URL")
	if baseURL == "" {
		t.Skip("CLINSTUDY_E2E_BASE_URL not set")
	}
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &e2eClient{t: t, http: &http.Client{Timeout: 30 * time.Second, Jar: jar}, baseURL: baseURL}
}

func (e *e2eClient) do(method, path string, payload any, out any) int {
	e.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(e.t, err)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.baseURL+path, body)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", "application/json")
	return e.send(req, out)
}

func (e *e2eClient) send(req *http.Request, out any) int {
	e.t.Helper()
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	resp, err := e.http.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(e.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *e2eClient) login(email, password string) {
	e.t.Helper()
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	status := e.do(http.MethodPost, "/v1/auth/login", map[string]string{"email": email, "password": password}, &tokens)
	require.Equal(e.t, http.StatusOK, status)
	require.NotEmpty(e.t, tokens.AccessToken)
	e.token = tokens.AccessToken
}

func TestStudyWorkflow(t *testing.T) {
	admin := newE2EClient(t)
	admin.login(os.Getenv("CLINSTUDY_E2E_ADMIN_EMAIL"), os.Getenv("CLINSTUDY_E2E_ADMIN_PASSWORD"))

	// 1. Admin registers a coordinator.
	suffix := time.Now().UnixNano()
	email := fmt.Sprintf("coordinator_%d@example.com", suffix)
	password := "Coordinator-pass-1"

	var user struct {
		ID string `json:"id"`
	}
	status := admin.do(http.MethodPost, "/v1/auth/register", map[string]string{
		"email":      email,
		"password":   password,
		"first_name": "E2E",
		"last_name":  "Coordinator",
	}, &user)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, user.ID)

	coordinator := newE2EClient(t)
	coordinator.login(email, password)

	// 2. Study, patient and a visit.
	var study struct {
		ID string `json:"id"`
	}
	status = coordinator.do(http.MethodPost, "/v1/studies", map[string]any{
		"code":  fmt.Sprintf("E2E-%d", suffix),
		"title": "End to end study",
		"phase": "II",
	}, &study)
	require.Equal(t, http.StatusCreated, status)

	var patient struct {
		ID string `json:"id"`
	}
	status = coordinator.do(http.MethodPost, "/v1/patients", map[string]any{
		"study_id":         study.ID,
		"screening_number": "SCR-001",
		"initials":         "AB",
		"sex":              "F",
	}, &patient)
	require.Equal(t, http.StatusCreated, status)

	var visit struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	status = coordinator.do(http.MethodPost, "/v1/visits", map[string]any{
		"patient_id":   patient.ID,
		"name":         "Baseline",
		"scheduled_at": time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
	}, &visit)
	require.Equal(t, http.StatusCreated, status)

	status = coordinator.do(http.MethodPatch, "/v1/visits/"+visit.ID, map[string]string{"status": "completed"}, &visit)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", visit.Status)

	// 3. Comment on the visit.
	status = coordinator.do(http.MethodPost, "/v1/comments", map[string]string{
		"entity_type": "visit",
		"entity_id":   visit.ID,
		"body":        "baseline done",
	}, nil)
	assert.Equal(t, http.StatusCreated, status)

	// 4. Upload an identity scan and fetch a link.
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("name", "passport"))
	part, err := writer.CreateFormFile("file", "passport.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4 e2e"))
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, coordinator.baseURL+"/v1/auth/user/"+user.ID+"/documents/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	assert.Equal(t, http.StatusCreated, coordinator.send(req, nil))

	var link struct {
		URL string `json:"url"`
	}
	status = coordinator.do(http.MethodGet, "/v1/auth/user/"+user.ID+"/documents/passport/url", nil, &link)
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, link.URL)

	// 5. Refresh from the cookie, then log out.
	coordinator.token = ""
	assert.Equal(t, http.StatusOK, coordinator.do(http.MethodPost, "/v1/auth/refresh", nil, nil))
	assert.Equal(t, http.StatusOK, coordinator.do(http.MethodPost, "/v1/auth/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, coordinator.do(http.MethodPost, "/v1/auth/refresh", nil, nil))

	// 6. Only the admin may remove the study.
	coordinator.login(email, password)
	assert.Equal(t, http.StatusForbidden, coordinator.do(http.MethodDelete, "/v1/studies/"+study.ID, nil, nil))
	assert.Equal(t, http.StatusNoContent, admin.do(http.MethodDelete, "/v1/studies/"+study.ID, nil, nil))
	assert.Equal(t, http.StatusOK, admin.do(http.MethodDelete, "/v1/auth/user/"+user.ID, nil, nil))
}
