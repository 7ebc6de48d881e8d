// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoflow/internal/common/logger"
	"autoflow/internal/httpapi"
	"autoflow/internal/lender"
	"autoflow/internal/models"
	"autoflow/internal/notify"
	"autoflow/internal/store"
	"autoflow/internal/uploads"
)

// startServer wires the full stack the way cmd/autoflow-server does, with
// the randomized lender and a real disk upload directory.
func startServer(t *testing.T, backend store.Backend) *httptest.Server {
	t.Helper()

	log := logger.NewTestLogger(t)
	files, err := uploads.NewDiskStorage(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	appStore := store.NewApplicationStore(backend, files, lender.NewSimulatedLender(), log, nil)
	handler := httpapi.NewHandler(appStore, files, notify.NopNotifier{}, log, "", 10, files.Dir())

	mux := http.NewServeMux()
	handler.Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func runLifecycle(t *testing.T, srv *httptest.Server) {
	t.Helper()

	// submit against a real inventory vehicle
	resp := post(t, srv.URL+"/api/applications", map[string]interface{}{
		"firstName":    "Omar",
		"lastName":     "Haddad",
		"email":        "omar@example.com",
		"phone":        "+15550123",
		"annualIncome": "48000",
		"vehicleId":    "4",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var app models.CreditApplication
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&app))
	resp.Body.Close()
	require.Equal(t, models.StatusDocumentsPending, app.Status)

	// upload a document
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("applicationId", fmt.Sprintf("%d", app.ID)))
	part, err := mw.CreateFormFile("documents", "w2.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 payload"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err = http.Post(srv.URL+"/api/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// simulated lender quote against the F-150 price with an income penalty
	resp = post(t, srv.URL+"/api/lender-approval", map[string]interface{}{"applicationId": app.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var approval struct {
		ApprovalTerms models.ApprovalTerms `json:"approvalTerms"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&approval))
	resp.Body.Close()

	terms := approval.ApprovalTerms
	assert.GreaterOrEqual(t, terms.LoanAmount, 28840) // 70% of 41200
	assert.LessOrEqual(t, terms.LoanAmount, 37080)    // 90% of 41200
	assert.GreaterOrEqual(t, terms.InterestRate, 4.7) // base 3.5 + 1.2 penalty at 48000
	assert.Contains(t, []int{36, 48, 60, 72}, terms.TermLength)
	assert.Greater(t, terms.MonthlyPayment, 0)

	// contract round trip and delivery
	for _, action := range []string{"send-for-esign", "sign-now"} {
		resp = post(t, srv.URL+"/api/contract-status", map[string]interface{}{
			"applicationId": app.ID, "action": action,
		})
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp = post(t, srv.URL+"/api/delivery-choice", map[string]interface{}{
		"applicationId":  app.ID,
		"deliveryChoice": "pickup",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var delivery struct {
		Status models.Status `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&delivery))
	resp.Body.Close()
	assert.Equal(t, models.StatusAwaitingDelivery, delivery.Status)

	// customer read with the capability token sees the whole journey
	resp, err = http.Get(fmt.Sprintf("%s/api/applications/%d?token=%s", srv.URL, app.ID, app.Token))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var final models.CreditApplication
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&final))
	resp.Body.Close()
	assert.Equal(t, models.StatusAwaitingDelivery, final.Status)
	assert.Len(t, final.UploadedDocuments, 1)
	assert.NotNil(t, final.ApprovalTerms)
	assert.Equal(t, models.DeliveryPickup, final.DeliveryChoice)
}

func TestLifecycleFileBackend(t *testing.T) {
	log := logger.NewTestLogger(t)
	backend := store.NewFileBackend(filepath.Join(t.TempDir(), "applications.json"), log)
	runLifecycle(t, startServer(t, backend))
}

func TestLifecycleRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	backend := store.NewRedisBackend(client, "autoflow:applications", logger.NewNoOpLogger())
	runLifecycle(t, startServer(t, backend))
}
