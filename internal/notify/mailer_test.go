package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/models"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESMailerSendInvoiceSummary(t *testing.T) {
	client := &fakeSES{}
	m := &SESMailer{client: client, sender: "billing@taptosell.mk", logger: zap.NewNop()}

	summary := models.InvoiceSummary{
		InvoiceNumber:  "INV-2025-02-1a2b3c4d",
		SellerName:     "Ana",
		WeekStartDate:  time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		WeekEndDate:    time.Date(2025, 1, 12, 23, 59, 59, 0, time.UTC),
		DueDate:        time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC),
		OrderCount:     2,
		TotalAmount:    decimal.RequireFromString("80.5"),
		TotalAmountMKD: decimal.NewFromInt(70),
		TotalAmountEUR: decimal.RequireFromString("10.5"),
	}
	require.NoError(t, m.SendInvoiceSummary(context.Background(), "ana@example.com", summary))
	require.Len(t, client.inputs, 1)

	in := client.inputs[0]
	assert.Equal(t, "billing@taptosell.mk", aws.ToString(in.Source))
	assert.Equal(t, []string{"ana@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Invoice INV-2025-02-1a2b3c4d - amount due 17.01.2025", aws.ToString(in.Message.Subject.Data))
	assert.Contains(t, aws.ToString(in.Message.Body.Text.Data), "70.00 MKD + 10.50 EUR")
}

func TestSESMailerWrapsErrors(t *testing.T) {
	m := &SESMailer{client: &fakeSES{err: errors.New("throttled")}, sender: "billing@taptosell.mk", logger: zap.NewNop()}
	err := m.SendSellerNotification(context.Background(), "ana@example.com", KindAccountUnfrozen, nil)
	assert.ErrorContains(t, err, "throttled")

	err = m.SendSellerNotification(context.Background(), "", KindAccountUnfrozen, nil)
	assert.ErrorContains(t, err, "recipient email address is empty")
}

func TestLogMailerNeverFails(t *testing.T) {
	m := NewLogMailer(nil)
	assert.NoError(t, m.SendInvoiceSummary(context.Background(), "a@b.c", models.InvoiceSummary{}))
	assert.NoError(t, m.SendSellerNotification(context.Background(), "a@b.c", "custom", map[string]string{"k": "v"}))
}
