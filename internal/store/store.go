// internal/store/store.go
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "autoflow/internal/common/errors"
	"autoflow/internal/common/logger"
	"autoflow/internal/common/metrics"
	"autoflow/internal/common/observability"
	"autoflow/internal/lender"
	"autoflow/internal/models"
	"autoflow/internal/uploads"
)

const (
	defaultVehiclePrice = 25000
	defaultAnnualIncome = 50000
)

// Submission carries the fields a new application is created from. The
// vehicle snapshot is resolved by the boundary; the store copies it
// verbatim and never re-reads inventory.
type Submission struct {
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	AnnualIncome     string
	EmploymentStatus string
	Employer         string
	JobTitle         string
	SelectedVehicle  *models.VehicleSnapshot
}

// FileDeletionResult reports one file-delete attempt during a bulk clear.
type FileDeletionResult struct {
	Filename string `json:"filename"`
	Deleted  bool   `json:"deleted"`
	Error    string `json:"error,omitempty"`
}

// ClearResult summarizes a bulk clear.
type ClearResult struct {
	RemovedRecords int                  `json:"removedRecords"`
	DeletedFiles   int                  `json:"deletedFiles"`
	FileResults    []FileDeletionResult `json:"fileResults"`
}

// ReconcileResult summarizes an orphan-file reconciliation pass.
type ReconcileResult struct {
	TotalFiles      int      `json:"totalFiles"`
	ReferencedFiles int      `json:"referencedFiles"`
	OrphanedFiles   []string `json:"orphanedFiles"`
	DeletedFiles    []string `json:"deletedFiles"`
	FreedBytes      int64    `json:"freedBytes"`
}

// ApplicationStore owns the canonical application collection. Every
// operation reloads the full collection from the backend before acting and
// every mutation saves it back before returning, so stateless request
// instances sharing one backend read each other's writes. The mutex only
// serializes goroutines within this process; cross-process writers can
// still clobber each other on the final save (known limitation).
type ApplicationStore struct {
	mu      sync.Mutex
	backend Backend
	files   uploads.Storage
	lender  lender.QuoteEngine
	log     logger.Logger
	obs     *observability.Observability
}

func NewApplicationStore(backend Backend, files uploads.Storage, engine lender.QuoteEngine, log logger.Logger, obs *observability.Observability) *ApplicationStore {
	return &ApplicationStore{
		backend: backend,
		files:   files,
		lender:  engine,
		log:     log.WithFields(map[string]interface{}{"component": "applicationStore"}),
		obs:     obs,
	}
}

// Submit creates and persists a new application in documents-pending.
func (s *ApplicationStore) Submit(ctx context.Context, sub Submission) (models.CreditApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observe(ctx, "submit", time.Now())

	apps, err := s.load(ctx)
	if err != nil {
		return models.CreditApplication{}, err
	}

	token, err := newToken()
	if err != nil {
		return models.CreditApplication{}, apperrors.NewPersistenceError("token generation", err)
	}

	app := models.CreditApplication{
		ID:                nextID(apps),
		Token:             token,
		FirstName:         sub.FirstName,
		LastName:          sub.LastName,
		Email:             sub.Email,
		Phone:             sub.Phone,
		AnnualIncome:      sub.AnnualIncome,
		EmploymentStatus:  sub.EmploymentStatus,
		Employer:          sub.Employer,
		JobTitle:          sub.JobTitle,
		SelectedVehicle:   sub.SelectedVehicle,
		SubmittedAt:       time.Now().UTC(),
		Status:            models.StatusDocumentsPending,
		UploadedDocuments: []models.UploadedDocument{},
	}

	apps = append(apps, app)
	if err := s.save(ctx, apps); err != nil {
		return models.CreditApplication{}, err
	}

	s.log.Info("application submitted", map[string]interface{}{
		"applicationId": app.ID,
		"status":        app.Status,
	})
	return app, nil
}

// Get returns the application with the given id.
func (s *ApplicationStore) Get(ctx context.Context, id int64) (models.CreditApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	apps, err := s.load(ctx)
	if err != nil {
		return models.CreditApplication{}, err
	}
	for _, app := range apps {
		if app.ID == id {
			return app, nil
		}
	}
	return models.CreditApplication{}, apperrors.NewNotFoundError(id)
}

// List returns all applications in insertion order.
func (s *ApplicationStore) List(ctx context.Context) ([]models.CreditApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	apps, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []models.CreditApplication{}
	}
	return apps, nil
}

// RecordUploadedDocuments replaces the record's document list wholesale and
// moves it to documents-uploaded. File bytes are already in upload storage
// by the time this runs; only metadata enters the record.
func (s *ApplicationStore) RecordUploadedDocuments(ctx context.Context, id int64, docs []models.UploadedDocument) (models.CreditApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observe(ctx, "recordUploadedDocuments", time.Now())

	if len(docs) == 0 {
		return models.CreditApplication{}, apperrors.NewValidationError("at least one document is required")
	}

	apps, err := s.load(ctx)
	if err != nil {
		return models.CreditApplication{}, err
	}

	idx := indexOf(apps, id)
	if idx < 0 {
		return models.CreditApplication{}, apperrors.NewNotFoundError(id)
	}

	next, err := models.CanTransition(apps[idx].Status, models.OpRecordDocuments)
	if err != nil {
		return models.CreditApplication{}, apperrors.NewInvalidTransitionError(id, models.OpRecordDocuments, apps[idx].Status)
	}

	apps[idx].UploadedDocuments = docs
	apps[idx].Status = next
	if err := s.save(ctx, apps); err != nil {
		return models.CreditApplication{}, err
	}

	s.log.Info("documents recorded", map[string]interface{}{
		"applicationId": id,
		"documentCount": len(docs),
	})
	return apps[idx], nil
}

// SimulateLenderApproval asks the quote engine for terms and attaches them.
// Requires status documents-uploaded exactly.
func (s *ApplicationStore) SimulateLenderApproval(ctx context.Context, id int64) (models.ApprovalTerms, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observe(ctx, "simulateLenderApproval", time.Now())

	apps, err := s.load(ctx)
	if err != nil {
		return models.ApprovalTerms{}, err
	}

	idx := indexOf(apps, id)
	if idx < 0 {
		return models.ApprovalTerms{}, apperrors.NewNotFoundError(id)
	}

	next, err := models.CanTransition(apps[idx].Status, models.OpApprove)
	if err != nil {
		return models.ApprovalTerms{}, apperrors.NewInvalidTransitionError(id, models.OpApprove, apps[idx].Status)
	}

	price := defaultVehiclePrice
	if apps[idx].SelectedVehicle != nil {
		price = apps[idx].SelectedVehicle.Price
	}
	income := parseIncome(apps[idx].AnnualIncome)

	terms := s.lender.Quote(price, income)
	apps[idx].ApprovalTerms = &terms
	apps[idx].Status = next
	if err := s.save(ctx, apps); err != nil {
		return models.ApprovalTerms{}, err
	}

	s.log.Info("lender approval simulated", map[string]interface{}{
		"applicationId": id,
		"approvalId":    terms.ApprovalID,
		"loanAmount":    terms.LoanAmount,
		"interestRate":  terms.InterestRate,
		"termLength":    terms.TermLength,
	})
	return terms, nil
}

// SendContract moves an approved application to contract-sent.
func (s *ApplicationStore) SendContract(ctx context.Context, id int64) error {
	return s.transition(ctx, id, models.OpSendContract, nil)
}

// SignContract moves a contract-sent application to contract-signed.
func (s *ApplicationStore) SignContract(ctx context.Context, id int64) error {
	return s.transition(ctx, id, models.OpSignContract, nil)
}

// ChooseDelivery records the delivery choice and details and moves a
// contract-signed application to awaiting-delivery.
func (s *ApplicationStore) ChooseDelivery(ctx context.Context, id int64, choice models.DeliveryChoice, details *models.DeliveryDetails) error {
	if !models.ValidDeliveryChoice(choice) {
		return apperrors.NewValidationError("delivery choice must be \"pickup\" or \"home-delivery\"")
	}
	return s.transition(ctx, id, models.OpChooseDelivery, func(app *models.CreditApplication) {
		app.DeliveryChoice = choice
		app.DeliveryDetails = details
	})
}

// transition applies op to the record, running mutate (if any) before the
// status change is saved. A failed precondition leaves the persisted
// record untouched: the loaded copy is simply discarded.
func (s *ApplicationStore) transition(ctx context.Context, id int64, op models.Operation, mutate func(*models.CreditApplication)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observe(ctx, string(op), time.Now())

	apps, err := s.load(ctx)
	if err != nil {
		return err
	}

	idx := indexOf(apps, id)
	if idx < 0 {
		return apperrors.NewNotFoundError(id)
	}

	next, err := models.CanTransition(apps[idx].Status, op)
	if err != nil {
		return apperrors.NewInvalidTransitionError(id, op, apps[idx].Status)
	}

	if mutate != nil {
		mutate(&apps[idx])
	}
	apps[idx].Status = next
	if err := s.save(ctx, apps); err != nil {
		return err
	}

	s.log.Info("application transitioned", map[string]interface{}{
		"applicationId": id,
		"operation":     op,
		"status":        next,
	})
	return nil
}

// ClearAll removes every record and best-effort deletes every referenced
// upload. The collection is cleared even when file deletions fail; each
// referenced filename is attempted exactly once.
func (s *ApplicationStore) ClearAll(ctx context.Context) (ClearResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observe(ctx, "clearAll", time.Now())

	apps, err := s.load(ctx)
	if err != nil {
		return ClearResult{}, err
	}

	result := ClearResult{RemovedRecords: len(apps)}
	seen := map[string]bool{}
	for _, app := range apps {
		for _, doc := range app.UploadedDocuments {
			if seen[doc.Filename] {
				continue
			}
			seen[doc.Filename] = true

			fr := FileDeletionResult{Filename: doc.Filename}
			if err := s.files.Delete(doc.Filename); err != nil {
				fr.Error = err.Error()
				s.log.Warn("failed to delete uploaded file", map[string]interface{}{
					"filename": doc.Filename,
					"error":    err.Error(),
				})
			} else {
				fr.Deleted = true
				result.DeletedFiles++
			}
			result.FileResults = append(result.FileResults, fr)
		}
	}

	if err := s.save(ctx, []models.CreditApplication{}); err != nil {
		return ClearResult{}, err
	}

	s.log.Info("all applications cleared", map[string]interface{}{
		"removedRecords": result.RemovedRecords,
		"deletedFiles":   result.DeletedFiles,
	})
	return result, nil
}

// ReconcileOrphans diffs upload storage against every record's document
// list and, unless dryRun, deletes the unreferenced files. A filename
// referenced by any record is never deleted, whatever that record's
// lifecycle state.
func (s *ApplicationStore) ReconcileOrphans(ctx context.Context, dryRun bool) (ReconcileResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observe(ctx, "reconcileOrphans", time.Now())

	apps, err := s.load(ctx)
	if err != nil {
		return ReconcileResult{}, err
	}

	referenced := map[string]bool{}
	for _, app := range apps {
		for _, doc := range app.UploadedDocuments {
			referenced[doc.Filename] = true
		}
	}

	stored, err := s.files.List()
	if err != nil {
		return ReconcileResult{}, apperrors.NewPersistenceError("list uploads", err)
	}

	result := ReconcileResult{
		TotalFiles:      len(stored),
		ReferencedFiles: len(referenced),
	}
	for _, name := range stored {
		if referenced[name] {
			continue
		}
		result.OrphanedFiles = append(result.OrphanedFiles, name)
	}

	if dryRun {
		return result, nil
	}

	for _, name := range result.OrphanedFiles {
		size, _ := s.files.Size(name)
		if err := s.files.Delete(name); err != nil {
			s.log.Warn("failed to delete orphaned file", map[string]interface{}{
				"filename": name,
				"error":    err.Error(),
			})
			continue
		}
		result.DeletedFiles = append(result.DeletedFiles, name)
		result.FreedBytes += size
	}

	s.log.Info("orphan reconciliation complete", map[string]interface{}{
		"totalFiles": result.TotalFiles,
		"deleted":    len(result.DeletedFiles),
		"freedBytes": result.FreedBytes,
	})
	return result, nil
}

func (s *ApplicationStore) load(ctx context.Context) ([]models.CreditApplication, error) {
	apps, err := s.backend.Load(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("load", err)
	}
	return apps, nil
}

func (s *ApplicationStore) save(ctx context.Context, apps []models.CreditApplication) error {
	if err := s.backend.Save(ctx, apps); err != nil {
		// A silently lost write breaks the lifecycle contract, so save
		// failures always surface to the caller.
		return apperrors.NewPersistenceError("save", err)
	}
	counts := map[models.Status]int{}
	for _, app := range apps {
		counts[app.Status]++
	}
	for status, n := range counts {
		metrics.ApplicationsByStatus.WithLabelValues(string(status)).Set(float64(n))
	}
	return nil
}

func (s *ApplicationStore) observe(ctx context.Context, op string, start time.Time) {
	elapsed := time.Since(start)
	metrics.StoreOperations.WithLabelValues(op, "completed").Inc()
	metrics.StoreOperationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if s.obs != nil {
		s.obs.RecordOperation(ctx, op, "completed")
		s.obs.RecordOperationDuration(ctx, op, elapsed)
	}
}

func indexOf(apps []models.CreditApplication, id int64) int {
	for i := range apps {
		if apps[i].ID == id {
			return i
		}
	}
	return -1
}

// parseIncome reads the leading integer of the free-form annual income
// string. Anything unparseable falls back to the default the quote
// formula assumes.
func parseIncome(raw string) int {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "+")

	n := 0
	digits := 0
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		digits++
	}
	if digits == 0 {
		return defaultAnnualIncome
	}
	return n
}
