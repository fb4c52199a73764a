package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtrag/namebench-appengine/models"
)

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestIndexPage(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	postSubmit(t, r, "203.0.113.9:52100", submitPayload(), "run-1", "")

	w := get(r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/id/1")
	assert.Contains(t, w.Body.String(), "Hamburg")
}

func TestIndexPageHidesUnlisted(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	postSubmit(t, r, "203.0.113.9:52100", submitPayload(), "run-1", "1")

	w := get(r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "/id/1")
}

func TestLookupByID(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	postSubmit(t, r, "203.0.113.9:52100", submitPayload(), "run-1", "")

	w := get(r, "/id/1")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "Google Public DNS")
	assert.Contains(t, body, "Current ISP")
	assert.Contains(t, body, "chart.apis.google.com")
	assert.Contains(t, body, "client_version")
}

func TestLookupByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	w := get(r, "/id/999")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No data")

	w = get(r, "/id/not-a-number")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecommendedSetDistinctIPs(t *testing.T) {
	rows := func(ips ...string) []models.SubmissionNameServer {
		out := make([]models.SubmissionNameServer, 0, len(ips))
		for _, ip := range ips {
			out = append(out, models.SubmissionNameServer{NameServer: models.NameServer{IP: ip}})
		}
		return out
	}

	byFastest := rows("8.8.8.8", "1.1.1.1", "9.9.9.9")
	nearest := rows("8.8.8.8", "1.1.1.1", "9.9.9.9", "208.67.222.222")

	recommended := recommendedSet(byFastest, nearest)
	require.Len(t, recommended, 3)
	assert.Equal(t, "8.8.8.8", recommended[0].NameServer.IP)
	assert.Equal(t, "1.1.1.1", recommended[1].NameServer.IP)
	assert.Equal(t, "9.9.9.9", recommended[2].NameServer.IP)
}

func TestRecommendedSetFewerThanThree(t *testing.T) {
	single := []models.SubmissionNameServer{
		{NameServer: models.NameServer{IP: "8.8.8.8"}},
	}
	recommended := recommendedSet(single, single)
	require.Len(t, recommended, 1)
}

func TestNameServerPage(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	postSubmit(t, r, "203.0.113.9:52100", submitPayload(), "run-1", "")

	w := get(r, "/ns/8.8.8.8")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Google Public DNS")
	assert.Contains(t, w.Body.String(), "/id/1")
}

func TestNameServerPageNotFound(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	w := get(r, "/ns/203.0.113.250")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No data")
}

func TestCountryReportPage(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	postSubmit(t, r, "203.0.113.9:52100", submitPayload(), "run-1", "")

	w := get(r, "/country/de")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Germany")
	assert.Contains(t, w.Body.String(), "Current ISP")
}

func TestListIndexHosts(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	require.NoError(t, db.Create(&models.IndexHost{
		RecordType: "A", RecordName: "www.example.com", Listed: true,
	}).Error)
	require.NoError(t, db.Create(&models.IndexHost{
		RecordType: "A", RecordName: "retired.example.com", Listed: false,
	}).Error)

	w := get(r, "/index_hosts")
	require.Equal(t, http.StatusOK, w.Code)

	var hosts [][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hosts))
	require.Len(t, hosts, 1)
	assert.Equal(t, []string{"A", "www.example.com"}, hosts[0])
}
