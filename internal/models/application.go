// internal/models/application.go
package models

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a credit application.
type Status string

const (
	StatusSubmitted         Status = "submitted"
	StatusDocumentsPending  Status = "documents-pending"
	StatusDocumentsUploaded Status = "documents-uploaded"
	StatusUnderReview       Status = "under-review" // reserved, no operation enters it
	StatusApproved          Status = "approved"
	StatusContractSent      Status = "contract-sent"
	StatusContractSigned    Status = "contract-signed"
	StatusAwaitingDelivery  Status = "awaiting-delivery"
	StatusRejected          Status = "rejected" // reserved, no operation enters it
)

// DeliveryChoice is how the customer wants to receive the vehicle.
type DeliveryChoice string

const (
	DeliveryPickup DeliveryChoice = "pickup"
	DeliveryHome   DeliveryChoice = "home-delivery"
)

// ValidDeliveryChoice reports whether c is one of the accepted choices.
func ValidDeliveryChoice(c DeliveryChoice) bool {
	return c == DeliveryPickup || c == DeliveryHome
}

// Operation names a status transition on a credit application.
type Operation string

const (
	OpRecordDocuments Operation = "record-uploaded-documents"
	OpApprove         Operation = "simulate-lender-approval"
	OpSendContract    Operation = "send-contract"
	OpSignContract    Operation = "sign-contract"
	OpChooseDelivery  Operation = "choose-delivery"
)

// transitions is the single source of truth for the lifecycle. Each
// operation lists the statuses it may fire from and the status it lands in.
var transitions = map[Operation]struct {
	from []Status
	to   Status
}{
	OpRecordDocuments: {from: []Status{StatusSubmitted, StatusDocumentsPending}, to: StatusDocumentsUploaded},
	OpApprove:         {from: []Status{StatusDocumentsUploaded}, to: StatusApproved},
	OpSendContract:    {from: []Status{StatusApproved}, to: StatusContractSent},
	OpSignContract:    {from: []Status{StatusContractSent}, to: StatusContractSigned},
	OpChooseDelivery:  {from: []Status{StatusContractSigned}, to: StatusAwaitingDelivery},
}

// CanTransition returns the target status for op when fired from current,
// or an error naming both the required and the actual status.
func CanTransition(current Status, op Operation) (Status, error) {
	rule, ok := transitions[op]
	if !ok {
		return "", fmt.Errorf("unknown operation %q", op)
	}
	for _, s := range rule.from {
		if s == current {
			return rule.to, nil
		}
	}
	return "", fmt.Errorf("operation %s requires status %s (current status: %s)",
		op, statusList(rule.from), current)
}

// RequiredStatus returns the statuses op may fire from, for error reporting.
func RequiredStatus(op Operation) []Status {
	return transitions[op].from
}

func statusList(states []Status) string {
	if len(states) == 1 {
		return string(states[0])
	}
	out := ""
	for i, s := range states {
		if i > 0 {
			out += " or "
		}
		out += string(s)
	}
	return out
}

// VehicleSnapshot is the vehicle as it looked when the customer applied.
// It is copied at submission time and never refreshed from inventory.
type VehicleSnapshot struct {
	ID    string `json:"id"`
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Price int    `json:"price"`
}

// UploadedDocument is metadata about one stored customer file. The bytes
// live in upload storage; only the metadata is kept on the record.
type UploadedDocument struct {
	OriginalName string    `json:"originalName"`
	Filename     string    `json:"filename"`
	Path         string    `json:"path"`
	FieldName    string    `json:"fieldName"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// ApprovalTerms is the simulated lender's quote, attached at approval time.
type ApprovalTerms struct {
	LoanAmount     int       `json:"loanAmount"`
	InterestRate   float64   `json:"interestRate"`
	TermLength     int       `json:"termLength"`
	MonthlyPayment int       `json:"monthlyPayment"`
	ApprovalID     string    `json:"approvalId"`
	ApprovedAt     time.Time `json:"approvedAt"`
}

// DeliveryDetails accompanies a delivery choice.
type DeliveryDetails struct {
	ScheduledDate string `json:"scheduledDate,omitempty"`
	ScheduledTime string `json:"scheduledTime,omitempty"`
	Address       string `json:"address,omitempty"`
}

// CreditApplication is one customer's financing application and everything
// it accumulates over its lifecycle.
type CreditApplication struct {
	ID                int64              `json:"id"`
	Token             string             `json:"token"`
	FirstName         string             `json:"firstName"`
	LastName          string             `json:"lastName"`
	Email             string             `json:"email"`
	Phone             string             `json:"phone"`
	AnnualIncome      string             `json:"annualIncome"`
	EmploymentStatus  string             `json:"employmentStatus"`
	Employer          string             `json:"employer"`
	JobTitle          string             `json:"jobTitle"`
	SelectedVehicle   *VehicleSnapshot   `json:"selectedVehicle,omitempty"`
	SubmittedAt       time.Time          `json:"submittedAt"`
	Status            Status             `json:"status"`
	UploadedDocuments []UploadedDocument `json:"uploadedDocuments"`
	ApprovalTerms     *ApprovalTerms     `json:"approvalTerms,omitempty"`
	DeliveryChoice    DeliveryChoice     `json:"deliveryChoice,omitempty"`
	DeliveryDetails   *DeliveryDetails   `json:"deliveryDetails,omitempty"`
}
