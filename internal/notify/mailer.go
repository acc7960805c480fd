package notify

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/models"
)

// SESConfig carries the AWS settings the mailer needs.
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SenderAddress   string
}

// sesAPI is the part of the SES client the mailer uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer sends email through Amazon SES.
type SESMailer struct {
	client sesAPI
	sender string
	logger *zap.Logger
}

// NewSESMailer loads AWS configuration. Static credentials are used when
// given, otherwise the default AWS credential chain.
func NewSESMailer(ctx context.Context, cfg SESConfig, logger *zap.Logger) (*SESMailer, error) {
	if cfg.SenderAddress == "" {
		return nil, fmt.Errorf("sender email address is not configured")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SESMailer{client: ses.NewFromConfig(awsCfg), sender: cfg.SenderAddress, logger: logger}, nil
}

func (m *SESMailer) SendInvoiceSummary(ctx context.Context, email string, summary models.InvoiceSummary) error {
	subject, text, htmlBody := renderInvoiceSummary(summary)
	if err := m.send(ctx, email, subject, text, htmlBody); err != nil {
		return fmt.Errorf("invoice %s email: %w", summary.InvoiceNumber, err)
	}
	m.logger.Info("Invoice email sent", zap.String("invoice_number", summary.InvoiceNumber), zap.String("email", email))
	return nil
}

func (m *SESMailer) SendSellerNotification(ctx context.Context, email string, kind string, payload map[string]string) error {
	subject, text, htmlBody := renderSellerNotification(kind, payload)
	if err := m.send(ctx, email, subject, text, htmlBody); err != nil {
		return fmt.Errorf("%s email: %w", kind, err)
	}
	m.logger.Info("Seller email sent", zap.String("kind", kind), zap.String("email", email))
	return nil
}

func (m *SESMailer) send(ctx context.Context, to, subject, text, htmlBody string) error {
	if to == "" {
		return fmt.Errorf("recipient email address is empty")
	}
	input := &ses.SendEmailInput{
		Source: aws.String(m.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(subject)},
			Body: &types.Body{
				Html: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(htmlBody)},
				Text: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(text)},
			},
		},
	}
	_, err := m.client.SendEmail(ctx, input)
	return err
}

// LogMailer only logs what would have been sent. Used when SES is not configured.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendInvoiceSummary(ctx context.Context, email string, summary models.InvoiceSummary) error {
	subject, _, _ := renderInvoiceSummary(summary)
	m.logger.Info("Email not configured, invoice email skipped", zap.String("email", email), zap.String("subject", subject))
	return nil
}

func (m *LogMailer) SendSellerNotification(ctx context.Context, email string, kind string, payload map[string]string) error {
	subject, _, _ := renderSellerNotification(kind, payload)
	m.logger.Info("Email not configured, seller email skipped", zap.String("email", email), zap.String("subject", subject))
	return nil
}

const dateLayout = "02.01.2006"

func renderInvoiceSummary(s models.InvoiceSummary) (subject, text, htmlBody string) {
	subject = fmt.Sprintf("Invoice %s - amount due %s", s.InvoiceNumber, s.DueDate.Format(dateLayout))

	var lines []string
	if !s.TotalAmountMKD.IsZero() {
		lines = append(lines, fmt.Sprintf("%s MKD", s.TotalAmountMKD.StringFixed(2)))
	}
	if !s.TotalAmountEUR.IsZero() {
		lines = append(lines, fmt.Sprintf("%s EUR", s.TotalAmountEUR.StringFixed(2)))
	}
	if len(lines) == 0 {
		lines = append(lines, s.TotalAmount.StringFixed(2))
	}
	owed := strings.Join(lines, " + ")

	text = fmt.Sprintf(
		"Dear %s,\n\nYour invoice %s for %s - %s covers %d delivered cash-on-delivery orders.\n"+
			"Amount owed: %s\nDue date: %s\n\nPlease settle it before the due date to keep your account active.\n",
		s.SellerName, s.InvoiceNumber, s.WeekStartDate.Format(dateLayout), s.WeekEndDate.Format(dateLayout),
		s.OrderCount, owed, s.DueDate.Format(dateLayout))
	htmlBody = fmt.Sprintf(`
        <html>
        <body>
            <p>Dear %s,</p>
            <p>Your invoice <strong>%s</strong> for %s - %s covers %d delivered cash-on-delivery orders.</p>
            <ul>
                <li>Amount owed: %s</li>
                <li>Due date: %s</li>
            </ul>
            <p>Please settle it before the due date to keep your account active.</p>
        </body>
        </html>`,
		s.SellerName, s.InvoiceNumber, s.WeekStartDate.Format(dateLayout), s.WeekEndDate.Format(dateLayout),
		s.OrderCount, owed, s.DueDate.Format(dateLayout))
	return subject, text, htmlBody
}

func renderSellerNotification(kind string, payload map[string]string) (subject, text, htmlBody string) {
	switch kind {
	case KindAccountUnfrozen:
		subject = "Your seller account is active again"
		text = "All overdue invoices are settled. You can accept new orders again.\n"
	case KindInvoiceOverdue:
		subject = fmt.Sprintf("Invoice %s is overdue", payload["invoiceNumber"])
		text = fmt.Sprintf("Invoice %s was due on %s and is now overdue. Please settle it as soon as possible.\n",
			payload["invoiceNumber"], payload["dueDate"])
	default:
		subject = "Account notification"
		keys := make([]string, 0, len(payload))
		for k := range payload {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&b, "%s: %s\n", k, payload[k])
		}
		text = b.String()
	}
	htmlBody = "<html><body><p>" + strings.ReplaceAll(html.EscapeString(strings.TrimSpace(text)), "\n", "<br>") + "</p></body></html>"
	return subject, text, htmlBody
}
