package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/talent-auth/internal/config"
	"github.com/spec-kit/talent-auth/internal/domain"
)

type recordingGateway struct {
	sent []Destination
	err  error
}

func (g *recordingGateway) Deliver(_ context.Context, to Destination, _ Message) error {
	g.sent = append(g.sent, to)
	return g.err
}

func TestRouter(t *testing.T) {
	email := &recordingGateway{}
	router := NewRouter(email, nil)
	ctx := context.Background()

	require.NoError(t, router.Deliver(ctx, Destination{Channel: domain.ChannelEmail, Address: "a@x.com"}, Message{}))
	assert.Len(t, email.sent, 1)

	err := router.Deliver(ctx, Destination{Channel: domain.ChannelPhone, Address: "+1"}, Message{})
	assert.ErrorIs(t, err, ErrUnsupportedChannel)
}

func TestMessageText(t *testing.T) {
	reset := Message{Purpose: PurposePasswordReset, Code: "654321"}
	assert.Equal(t, "Password Reset Code", reset.Subject())
	assert.Contains(t, reset.Body(), "654321")

	verify := Message{Purpose: PurposeEmailVerification, Code: "000123"}
	assert.Equal(t, "Email Verification Code", verify.Subject())
	assert.Contains(t, verify.Body(), "000123")
}

func TestLogGateway_DoesNotLogCodeAtInfo(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	gw := NewLogGateway(zap.New(core))

	err := gw.Deliver(context.Background(),
		Destination{Channel: domain.ChannelEmail, Address: "a@x.com"},
		Message{Purpose: PurposeEmailVerification, Code: "123456"})
	assert.ErrorIs(t, err, ErrNotDelivered)

	require.Equal(t, 1, logs.Len())
	for _, field := range logs.All()[0].Context {
		assert.NotEqual(t, "123456", field.String)
	}
}

type fakeMessages struct {
	params *twilioapi.CreateMessageParams
	delay  time.Duration
	err    error
}

func (f *fakeMessages) CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error) {
	f.params = params
	time.Sleep(f.delay)
	return &twilioapi.ApiV2010Message{}, f.err
}

func TestTwilioGateway_Deliver(t *testing.T) {
	fake := &fakeMessages{}
	gw := &TwilioGateway{from: "+15550000", messages: fake}

	err := gw.Deliver(context.Background(),
		Destination{Channel: domain.ChannelPhone, Address: "15550100"},
		Message{Purpose: PurposePhoneVerification, Code: "111111"})
	require.NoError(t, err)
	require.NotNil(t, fake.params.To)
	assert.Equal(t, "+15550100", *fake.params.To)
	assert.Equal(t, "+15550000", *fake.params.From)
	assert.Contains(t, *fake.params.Body, "111111")
}

func TestTwilioGateway_ProviderError(t *testing.T) {
	gw := &TwilioGateway{from: "+1", messages: &fakeMessages{err: errors.New("rejected")}}
	err := gw.Deliver(context.Background(), Destination{Address: "+1"}, Message{})
	assert.ErrorContains(t, err, "rejected")
}

func TestTwilioGateway_Timeout(t *testing.T) {
	gw := &TwilioGateway{from: "+1", messages: &fakeMessages{delay: 200 * time.Millisecond}}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := gw.Deliver(ctx, Destination{Address: "+1"}, Message{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGatewayConstructorsValidateConfig(t *testing.T) {
	_, err := NewSMTPGateway(config.NotificationConfig{})
	assert.Error(t, err)

	_, err = NewTwilioGateway(config.NotificationConfig{TwilioAccountSID: "AC1"})
	assert.Error(t, err)

	gw, err := NewSMTPGateway(config.NotificationConfig{SMTPHost: "smtp.example.com", SMTPPort: 587, EmailFrom: "noreply@example.com"})
	require.NoError(t, err)
	assert.NotNil(t, gw)
}
