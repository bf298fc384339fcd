package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"incident-reporting-system/pkg/dbtest"
	"incident-reporting-system/pkg/middleware"
	"incident-reporting-system/pkg/storage"
	"incident-reporting-system/pkg/validation"
	"incident-reporting-system/services/incident-service/models"
	"incident-reporting-system/services/incident-service/repository"
	"incident-reporting-system/services/incident-service/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

type nopObjects struct{ keys []string }

func (o *nopObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	o.keys = append(o.keys, key)
	_, err := io.Copy(io.Discard, r)
	return err
}

func (o *nopObjects) List(context.Context, string) ([]storage.Object, error) {
	objs := make([]storage.Object, 0, len(o.keys))
	for _, k := range o.keys {
		objs = append(objs, storage.Object{Key: k, Size: 1})
	}
	return objs, nil
}

func (o *nopObjects) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "http://minio.local/" + key, nil
}

type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func accessToken(t *testing.T, userID, email string) string {
	t.Helper()
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.UserClaims{
		UserID:    userID,
		Email:     email,
		TokenType: middleware.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		},
	}).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	store := repository.NewGormStore(dbtest.OpenSQLite(t, &models.Incident{}))
	log := zerolog.Nop()
	incidents := service.NewIncidents(store, service.NewIDGenerator(store), nil, validation.New(), log)
	attachments := service.NewAttachments(store, &nopObjects{}, 1024, 15*time.Minute, log)
	return New(incidents, attachments, map[string]Pinger{"database": store}, testSecret, log).Routes()
}

func call(t *testing.T, h http.Handler, method, target, token string, body io.Reader, contentType string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func callJSON(t *testing.T, h http.Handler, method, target, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	return call(t, h, method, target, token, &buf, "application/json")
}

func createIncident(t *testing.T, h http.Handler, token string) models.Incident {
	t.Helper()
	code, env := callJSON(t, h, http.MethodPost, "/api/incident/", token, map[string]string{
		"organization_type": "Government",
		"incident_details":  "Streetlight down",
		"priority":          "Medium",
		"status":            "Closed",
		"incident_id":       "RMG000002000",
	})
	require.Equal(t, http.StatusCreated, code)
	var inc models.Incident
	require.NoError(t, json.Unmarshal(env.Data, &inc))
	return inc
}

func TestRequiresAuthentication(t *testing.T) {
	h := newRouter(t)
	code, _ := callJSON(t, h, http.MethodGet, "/api/incident/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestIncidentLifecycle(t *testing.T) {
	h := newRouter(t)
	alice := accessToken(t, "1", "alice@x.com")
	bob := accessToken(t, "2", "bob@x.com")

	inc := createIncident(t, h, alice)
	assert.Equal(t, models.StatusOpen, inc.Status)
	assert.NotEqual(t, "RMG000002000", inc.IncidentID)
	assert.Equal(t, "alice@x.com", inc.Reporter)

	code, env := callJSON(t, h, http.MethodGet, "/api/incident/", alice, nil)
	require.Equal(t, http.StatusOK, code)
	var list []models.Incident
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	code, env = callJSON(t, h, http.MethodGet, "/api/incident/", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))

	code, _ = callJSON(t, h, http.MethodGet, "/api/incidents/"+inc.ID+"/", alice, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = callJSON(t, h, http.MethodGet, "/api/incidents/"+inc.ID+"/", bob, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = callJSON(t, h, http.MethodGet, "/api/incidents/search/?incident_id="+inc.IncidentID, alice, nil)
	assert.Equal(t, http.StatusCreated, code)
	code, _ = callJSON(t, h, http.MethodGet, "/api/incidents/search/?incident_id="+inc.IncidentID, bob, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, env = callJSON(t, h, http.MethodGet, "/api/incidents/search/", alice, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "incident_id query parameter is required.", env.Errors["error"])

	code, env = callJSON(t, h, http.MethodPut, "/api/incidents/"+inc.ID+"/", alice, map[string]string{"status": "Closed"})
	assert.Equal(t, http.StatusCreated, code)
	assert.Contains(t, string(env.Data), `"status":"Closed"`)

	code, env = callJSON(t, h, http.MethodPut, "/api/incidents/"+inc.ID+"/", alice, map[string]string{"incident_details": "again"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "You cannot edit a closed incident.", env.Message)

	code, env = callJSON(t, h, http.MethodPut, "/api/incidents/"+inc.ID+"/", alice, map[string]string{"status": "Resolved"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "You cannot edit a closed incident.", env.Message)

	code, env = call(t, h, http.MethodPut, "/api/incidents/"+inc.ID+"/", alice, strings.NewReader("{not json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "You cannot edit a closed incident.", env.Message)

	code, _ = callJSON(t, h, http.MethodPut, "/api/incidents/"+inc.ID+"/", bob, map[string]string{"status": "Open"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUpdate_MalformedBodyOnOpenIncident(t *testing.T) {
	h := newRouter(t)
	alice := accessToken(t, "1", "alice@x.com")
	inc := createIncident(t, h, alice)

	code, env := call(t, h, http.MethodPut, "/api/incidents/"+inc.ID+"/", alice, strings.NewReader("{not json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid request payload", env.Message)
}

func TestCreate_ValidationErrors(t *testing.T) {
	h := newRouter(t)
	code, env := callJSON(t, h, http.MethodPost, "/api/incident/", accessToken(t, "1", "a@x.com"), map[string]string{
		"organization_type": "Club",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "organization_type")
	assert.Contains(t, env.Errors, "priority")
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.Copy(fw, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAttachments(t *testing.T) {
	h := newRouter(t)
	alice := accessToken(t, "1", "alice@x.com")
	inc := createIncident(t, h, alice)
	target := "/api/incidents/" + inc.ID + "/attachments/"

	body, ct := multipartBody(t, "file", "scene.jpg", "jpegbytes")
	code, env := call(t, h, http.MethodPost, target, alice, body, ct)
	require.Equal(t, http.StatusCreated, code)
	assert.Contains(t, string(env.Data), `"name":"scene.jpg"`)

	body, ct = multipartBody(t, "other", "scene.jpg", "jpegbytes")
	code, env = call(t, h, http.MethodPost, target, alice, body, ct)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "file")

	code, env = callJSON(t, h, http.MethodGet, target, alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "scene.jpg")

	code, _ = callJSON(t, h, http.MethodGet, target, accessToken(t, "2", "bob@x.com"), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealth(t *testing.T) {
	h := newRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"connected"`)
}
