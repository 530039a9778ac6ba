// internal/workers/notification/match-alert/handler_test.go
package matchalert

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastematch/internal/common/logger"
	"wastematch/internal/models"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	calls         int
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls++
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, params, optFns...)
	}
	return &ses.SendEmailOutput{}, nil
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	calls       int
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls++
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, params, optFns...)
	}
	return &sns.PublishOutput{}, nil
}

func newHandlerWithMocks(t *testing.T, sesMock SESService, snsMock SNSService, emailEnabled, smsEnabled bool) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := LoadConfig()
	cfg.EmailEnabled = emailEnabled
	cfg.SMSEnabled = smsEnabled

	return &Handler{
		config:    cfg,
		db:        db,
		logger:    logger.NewTestLogger(t),
		sesClient: sesMock,
		snsClient: snsMock,
	}, mock
}

func expectUserContact(mock sqlmock.Sqlmock, email, phone string) {
	mock.ExpectQuery("SELECT email, phone FROM users WHERE id =").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}).AddRow(email, phone))
}

func alertInput(priority string) *Input {
	return &Input{
		UserID:             "user-1",
		RequirementID:      "req-1",
		MatchCount:         3,
		TopMatchFactory:    "Acme Polymers",
		TopMatchPercentage: 92,
		Priority:           priority,
	}
}

func TestExecuteEmailAndSMSForHighPriority(t *testing.T) {
	sesMock := &MockSESService{}
	snsMock := &MockSNSService{}
	h, dbMock := newHandlerWithMocks(t, sesMock, snsMock, true, true)
	expectUserContact(dbMock, "buyer@example.com", "+919900112233")

	output, err := h.execute(context.Background(), alertInput(models.PriorityHigh))

	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.NotEmpty(t, output.NotificationID)
	assert.Equal(t, 1, sesMock.calls)
	assert.Equal(t, 1, snsMock.calls)
}

func TestExecuteNoSMSForMediumPriority(t *testing.T) {
	sesMock := &MockSESService{}
	snsMock := &MockSNSService{}
	h, dbMock := newHandlerWithMocks(t, sesMock, snsMock, true, true)
	expectUserContact(dbMock, "buyer@example.com", "+919900112233")

	output, err := h.execute(context.Background(), alertInput(models.PriorityMedium))

	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.Equal(t, 1, sesMock.calls)
	assert.Zero(t, snsMock.calls, "SMS is reserved for high priority")
}

func TestExecuteUnknownUserDisabled(t *testing.T) {
	sesMock := &MockSESService{}
	h, dbMock := newHandlerWithMocks(t, sesMock, &MockSNSService{}, true, true)
	dbMock.ExpectQuery("SELECT email, phone FROM users WHERE id =").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}))

	output, err := h.execute(context.Background(), alertInput(models.PriorityHigh))

	require.NoError(t, err, "a missing recipient is not a job failure")
	assert.Equal(t, StatusDisabled, output.Status)
	assert.Zero(t, sesMock.calls)
}

func TestExecuteEmailFailure(t *testing.T) {
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("ses throttled")
		},
	}
	h, dbMock := newHandlerWithMocks(t, sesMock, &MockSNSService{}, true, true)
	expectUserContact(dbMock, "buyer@example.com", "")

	output, err := h.execute(context.Background(), alertInput(models.PriorityHigh))

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, output.Status)
}

func TestExecuteAllChannelsDisabled(t *testing.T) {
	h, dbMock := newHandlerWithMocks(t, &MockSESService{}, &MockSNSService{}, false, false)
	expectUserContact(dbMock, "buyer@example.com", "+919900112233")

	output, err := h.execute(context.Background(), alertInput(models.PriorityHigh))

	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
}

func TestBuildAlert(t *testing.T) {
	subject, body := buildAlert(alertInput(models.PriorityHigh))
	assert.Equal(t, "3 new matches for your waste requirement", subject)
	assert.Contains(t, body, "req-1")
	assert.Contains(t, body, "Acme Polymers")
	assert.Contains(t, body, "92%")

	single := alertInput(models.PriorityLow)
	single.MatchCount = 1
	subject, _ = buildAlert(single)
	assert.Equal(t, "A new match for your waste requirement", subject)
}
