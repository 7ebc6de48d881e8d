// internal/notify/notify.go
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"

	awsclients "autoflow/internal/common/aws"
	appconfig "autoflow/internal/common/config"
	"autoflow/internal/common/logger"
	"autoflow/internal/models"
)

// Event names a lifecycle moment worth telling the customer about.
type Event string

const (
	EventSubmitted         Event = "application-submitted"
	EventDocumentsReceived Event = "documents-received"
	EventApproved          Event = "application-approved"
	EventContractSent      Event = "contract-sent"
	EventContractSigned    Event = "contract-signed"
	EventDeliveryScheduled Event = "delivery-scheduled"
)

const (
	StatusSent     = "SENT"
	StatusFailed   = "FAILED"
	StatusDisabled = "DISABLED"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Receipt records the outcome of one notification attempt.
type Receipt struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"`
	SentAt         string `json:"sentAt"`
}

// Notifier delivers lifecycle notifications. Delivery failures are an
// observability concern, never a lifecycle one: callers log the receipt
// and move on.
type Notifier interface {
	Notify(ctx context.Context, event Event, app models.CreditApplication) Receipt
}

// AWSNotifier sends email through SES and, for contract-stage events, SMS
// through SNS.
type AWSNotifier struct {
	config      appconfig.NotificationConfig
	logger      logger.Logger
	sesClient   SESService
	snsClient   SNSService
	templateMap map[Event]map[string]string
}

func NewAWSNotifier(ctx context.Context, cfg appconfig.NotificationConfig, log logger.Logger) (*AWSNotifier, error) {
	sesClient, err := awsclients.NewSESClient(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, fmt.Errorf("create SES client: %w", err)
	}
	snsClient, err := awsclients.NewSNSClient(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, fmt.Errorf("create SNS client: %w", err)
	}

	return &AWSNotifier{
		config:      cfg,
		logger:      log.WithFields(map[string]interface{}{"component": "notifier"}),
		sesClient:   sesClient,
		snsClient:   snsClient,
		templateMap: loadTemplates(),
	}, nil
}

// NewAWSNotifierWithClients wires explicit service implementations, used by
// tests to substitute mocks.
func NewAWSNotifierWithClients(cfg appconfig.NotificationConfig, log logger.Logger, sesClient SESService, snsClient SNSService) *AWSNotifier {
	return &AWSNotifier{
		config:      cfg,
		logger:      log.WithFields(map[string]interface{}{"component": "notifier"}),
		sesClient:   sesClient,
		snsClient:   snsClient,
		templateMap: loadTemplates(),
	}
}

func (n *AWSNotifier) Notify(ctx context.Context, event Event, app models.CreditApplication) Receipt {
	receipt := Receipt{
		NotificationID: uuid.New().String(),
		SentAt:         time.Now().UTC().Format(time.RFC3339),
		Status:         StatusDisabled,
	}

	template, exists := n.templateMap[event]
	if !exists {
		n.logger.Warn("no template for event", map[string]interface{}{"event": event})
		return receipt
	}

	data := map[string]interface{}{
		"firstName":     app.FirstName,
		"lastName":      app.LastName,
		"applicationId": app.ID,
		"status":        string(app.Status),
	}
	if app.SelectedVehicle != nil {
		data["vehicle"] = fmt.Sprintf("%d %s %s",
			app.SelectedVehicle.Year, app.SelectedVehicle.Make, app.SelectedVehicle.Model)
	}
	if app.ApprovalTerms != nil {
		data["loanAmount"] = app.ApprovalTerms.LoanAmount
		data["monthlyPayment"] = app.ApprovalTerms.MonthlyPayment
	}

	subject := renderTemplate(template["subject"], data)
	body := renderTemplate(template["body"], data)

	emailSent := false
	smsSent := false

	if n.config.Email.Enabled && app.Email != "" {
		if err := n.sendEmail(ctx, app.Email, subject, body); err != nil {
			n.logger.Error("email send failed", map[string]interface{}{
				"error":         err,
				"applicationId": app.ID,
				"event":         event,
			})
			receipt.Status = StatusFailed
			return receipt
		}
		emailSent = true
	}

	// SMS only covers approval and the contract stage, where the customer
	// is waiting on the outcome.
	if n.config.SMS.Enabled && app.Phone != "" && smsWorthy(event) {
		if err := n.sendSMS(ctx, app.Phone, body); err != nil {
			n.logger.Error("SMS send failed", map[string]interface{}{
				"error":         err,
				"applicationId": app.ID,
				"event":         event,
			})
			receipt.Status = StatusFailed
			return receipt
		}
		smsSent = true
	}

	if emailSent || smsSent {
		receipt.Status = StatusSent
	}
	return receipt
}

func smsWorthy(event Event) bool {
	return event == EventApproved || event == EventContractSent || event == EventContractSigned
}

func (n *AWSNotifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.Email.FromEmail),
	})
	return err
}

func (n *AWSNotifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

// Simplified template rendering with placeholder removal for missing values
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if i, ok := v.(int); ok {
			value = fmt.Sprintf("%d", i)
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}

func loadTemplates() map[Event]map[string]string {
	return map[Event]map[string]string{
		EventSubmitted: {
			"subject": "Your Financing Application Was Received",
			"body":    "Hi {{firstName}}, we received your application {{applicationId}} for the {{vehicle}}. Next step: upload your documents.",
		},
		EventDocumentsReceived: {
			"subject": "Documents Received",
			"body":    "Hi {{firstName}}, your documents for application {{applicationId}} are in review.",
		},
		EventApproved: {
			"subject": "You Are Approved!",
			"body":    "Hi {{firstName}}, application {{applicationId}} is approved. Loan amount: ${{loanAmount}}, estimated payment ${{monthlyPayment}}/month.",
		},
		EventContractSent: {
			"subject": "Your Contract Is Ready",
			"body":    "Hi {{firstName}}, the contract for application {{applicationId}} has been sent. Please review and sign.",
		},
		EventContractSigned: {
			"subject": "Contract Signed",
			"body":    "Hi {{firstName}}, we received your signed contract for application {{applicationId}}.",
		},
		EventDeliveryScheduled: {
			"subject": "Delivery Scheduled",
			"body":    "Hi {{firstName}}, delivery for your {{vehicle}} is set. Application {{applicationId}} is now awaiting delivery.",
		},
	}
}

// NopNotifier satisfies Notifier when notifications are disabled.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event, models.CreditApplication) Receipt {
	return Receipt{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}
}
