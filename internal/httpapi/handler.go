// internal/httpapi/handler.go
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	apperrors "autoflow/internal/common/errors"
	"autoflow/internal/common/logger"
	"autoflow/internal/common/validation"
	"autoflow/internal/models"
	"autoflow/internal/notify"
	"autoflow/internal/store"
	"autoflow/internal/uploads"
)

// Handler exposes the application lifecycle over HTTP. It owns no state of
// its own: every request goes through the store, which reloads the
// collection from the backend each time.
type Handler struct {
	store       *store.ApplicationStore
	files       uploads.Storage
	notifier    notify.Notifier
	log         logger.Logger
	adminSecret string
	maxUpload   int64
	uploadsDir  string
}

func NewHandler(st *store.ApplicationStore, files uploads.Storage, notifier notify.Notifier, log logger.Logger, adminSecret string, maxUploadMB int, uploadsDir string) *Handler {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Handler{
		store:       st,
		files:       files,
		notifier:    notifier,
		log:         log.WithFields(map[string]interface{}{"component": "httpapi"}),
		adminSecret: adminSecret,
		maxUpload:   int64(maxUploadMB) << 20,
		uploadsDir:  uploadsDir,
	}
}

// Register wires every route onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/applications", instrument("/api/applications", h.log, h.handleSubmit))
	mux.HandleFunc("GET /api/applications", instrument("/api/applications", h.log, requireAdmin(h.adminSecret, h.handleList)))
	mux.HandleFunc("GET /api/applications/search", instrument("/api/applications/search", h.log, requireAdmin(h.adminSecret, h.handleSearch)))
	mux.HandleFunc("GET /api/applications/{id}", instrument("/api/applications/{id}", h.log, h.handleGet))
	mux.HandleFunc("POST /api/upload", instrument("/api/upload", h.log, h.handleUpload))
	mux.HandleFunc("POST /api/lender-approval", instrument("/api/lender-approval", h.log, h.handleLenderApproval))
	mux.HandleFunc("POST /api/contract-status", instrument("/api/contract-status", h.log, h.handleContractStatus))
	mux.HandleFunc("POST /api/delivery-choice", instrument("/api/delivery-choice", h.log, h.handleDeliveryChoice))
	mux.HandleFunc("POST /api/clear-applications", instrument("/api/clear-applications", h.log, requireAdmin(h.adminSecret, h.handleClear)))
	mux.HandleFunc("GET /api/cleanup-uploads", instrument("/api/cleanup-uploads", h.log, requireAdmin(h.adminSecret, h.handleCleanupReport)))
	mux.HandleFunc("POST /api/cleanup-uploads", instrument("/api/cleanup-uploads", h.log, requireAdmin(h.adminSecret, h.handleCleanupDelete)))
	mux.HandleFunc("GET /api/inventory", instrument("/api/inventory", h.log, h.handleInventory))
	mux.HandleFunc("GET /healthz", h.handleHealth)

	if h.uploadsDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.uploadsDir))))
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperrors.NewValidationError("request body must be a JSON object"))
		return
	}

	result, err := validation.ValidateSubmission(payload)
	if err != nil {
		writeError(w, err)
		return
	}
	if !result.Valid {
		writeError(w, apperrors.NewValidationError(result.Error()))
		return
	}

	sub := store.Submission{
		FirstName:        stringField(payload, "firstName"),
		LastName:         stringField(payload, "lastName"),
		Email:            stringField(payload, "email"),
		Phone:            stringField(payload, "phone"),
		AnnualIncome:     stringField(payload, "annualIncome"),
		EmploymentStatus: stringField(payload, "employmentStatus"),
		Employer:         stringField(payload, "employer"),
		JobTitle:         stringField(payload, "jobTitle"),
	}
	if vehicleID := stringField(payload, "vehicleId"); vehicleID != "" {
		if v := models.FindVehicle(vehicleID); v != nil {
			sub.SelectedVehicle = v.Snapshot()
		}
	}

	app, err := h.store.Submit(r.Context(), sub)
	if err != nil {
		writeError(w, err)
		return
	}

	h.notifier.Notify(r.Context(), notify.EventSubmitted, app)
	writeJSON(w, http.StatusCreated, app)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	apps, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// searchResult is the admin lookup projection: enough to drive the status
// dashboard without dumping the whole record.
type searchResult struct {
	ID            int64                   `json:"id"`
	Name          string                  `json:"name"`
	Status        models.Status           `json:"status"`
	Vehicle       *models.VehicleSnapshot `json:"vehicle,omitempty"`
	Token         string                  `json:"token"`
	ApprovalTerms *models.ApprovalTerms   `json:"approvalTerms,omitempty"`
	DocumentCount int                     `json:"documentCount"`
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		writeError(w, apperrors.NewValidationError("query parameter \"id\" must be an integer"))
		return
	}

	app, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResult{
		ID:            app.ID,
		Name:          app.FirstName + " " + app.LastName,
		Status:        app.Status,
		Vehicle:       app.SelectedVehicle,
		Token:         app.Token,
		ApprovalTerms: app.ApprovalTerms,
		DocumentCount: len(app.UploadedDocuments),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, apperrors.NewValidationError("path id must be an integer"))
		return
	}

	app, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	// The token is a capability: a wrong or missing token looks exactly
	// like a missing record so ids alone leak nothing.
	if r.URL.Query().Get("token") != app.Token {
		writeError(w, apperrors.NewNotFoundError(id))
		return
	}

	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, apperrors.NewValidationError("multipart form too large or malformed"))
		return
	}

	id, err := strconv.ParseInt(r.FormValue("applicationId"), 10, 64)
	if err != nil {
		writeError(w, apperrors.NewValidationError("form field \"applicationId\" must be an integer"))
		return
	}

	var docs []models.UploadedDocument
	for field, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			src, err := fh.Open()
			if err != nil {
				writeError(w, apperrors.NewUploadError(err))
				return
			}
			data, err := io.ReadAll(src)
			src.Close()
			if err != nil {
				writeError(w, apperrors.NewUploadError(err))
				return
			}

			stored := uploads.UniqueName(fh.Filename)
			if err := h.files.Save(stored, data); err != nil {
				writeError(w, apperrors.NewUploadError(err))
				return
			}
			docs = append(docs, models.UploadedDocument{
				OriginalName: fh.Filename,
				Filename:     stored,
				Path:         "/uploads/" + stored,
				FieldName:    field,
				UploadedAt:   time.Now().UTC(),
			})
		}
	}

	app, err := h.store.RecordUploadedDocuments(r.Context(), id, docs)
	if err != nil {
		writeError(w, err)
		return
	}

	h.notifier.Notify(r.Context(), notify.EventDocumentsReceived, app)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"applicationId": app.ID,
		"status":        app.Status,
		"documents":     app.UploadedDocuments,
	})
}

type idRequest struct {
	ApplicationID int64 `json:"applicationId"`
}

func (h *Handler) handleLenderApproval(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewValidationError("request body must be JSON with applicationId"))
		return
	}

	terms, err := h.store.SimulateLenderApproval(r.Context(), req.ApplicationID)
	if err != nil {
		writeError(w, err)
		return
	}

	if app, getErr := h.store.Get(r.Context(), req.ApplicationID); getErr == nil {
		h.notifier.Notify(r.Context(), notify.EventApproved, app)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"applicationId": req.ApplicationID,
		"status":        models.StatusApproved,
		"approvalTerms": terms,
	})
}

type contractRequest struct {
	ApplicationID int64  `json:"applicationId"`
	Action        string `json:"action"`
}

func (h *Handler) handleContractStatus(w http.ResponseWriter, r *http.Request) {
	var req contractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewValidationError("request body must be JSON with applicationId and action"))
		return
	}

	var event notify.Event
	var err error
	switch req.Action {
	case "send-for-esign":
		err = h.store.SendContract(r.Context(), req.ApplicationID)
		event = notify.EventContractSent
	case "sign-now":
		err = h.store.SignContract(r.Context(), req.ApplicationID)
		event = notify.EventContractSigned
	default:
		writeError(w, apperrors.NewValidationError("action must be \"send-for-esign\" or \"sign-now\""))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	app, err := h.store.Get(r.Context(), req.ApplicationID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.notifier.Notify(r.Context(), event, app)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"applicationId": app.ID,
		"status":        app.Status,
	})
}

type deliveryRequest struct {
	ApplicationID   int64                   `json:"applicationId"`
	DeliveryChoice  models.DeliveryChoice   `json:"deliveryChoice"`
	DeliveryDetails *models.DeliveryDetails `json:"deliveryDetails"`
}

func (h *Handler) handleDeliveryChoice(w http.ResponseWriter, r *http.Request) {
	var req deliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewValidationError("request body must be JSON with applicationId and deliveryChoice"))
		return
	}

	if err := h.store.ChooseDelivery(r.Context(), req.ApplicationID, req.DeliveryChoice, req.DeliveryDetails); err != nil {
		writeError(w, err)
		return
	}

	app, err := h.store.Get(r.Context(), req.ApplicationID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.notifier.Notify(r.Context(), notify.EventDeliveryScheduled, app)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"applicationId":  app.ID,
		"status":         app.Status,
		"deliveryChoice": app.DeliveryChoice,
	})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.ClearAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCleanupReport(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.ReconcileOrphans(r.Context(), true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCleanupDelete(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.ReconcileOrphans(r.Context(), false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleInventory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.MockVehicles)
}

func stringField(payload map[string]interface{}, key string) string {
	if s, ok := payload[key].(string); ok {
		return s
	}
	return ""
}
