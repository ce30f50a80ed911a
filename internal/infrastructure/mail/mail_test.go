package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"kadryhr/internal/domain/notification"
	"kadryhr/pkg/logger"
)

var welcome = notification.Email{
	To:      "anna@acme.pl",
	Subject: "Witamy w KadryHR",
	HTML:    "<p>Witaj</p>",
	Text:    "Witaj",
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	out   *sesv2.SendEmailOutput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	return f.out, f.err
}

func TestSESSender_Send(t *testing.T) {
	api := &fakeSES{out: &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}}
	s := NewSESSender(api, "no-reply@kadryhr.pl")

	require.NoError(t, s.Send(context.Background(), welcome))

	in := api.input
	require.NotNil(t, in)
	assert.Equal(t, "no-reply@kadryhr.pl", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"anna@acme.pl"}, in.Destination.ToAddresses)
	assert.Equal(t, "Witamy w KadryHR", aws.ToString(in.Content.Simple.Subject.Data))
	assert.Equal(t, "<p>Witaj</p>", aws.ToString(in.Content.Simple.Body.Html.Data))
	assert.Equal(t, "Witaj", aws.ToString(in.Content.Simple.Body.Text.Data))
	assert.Equal(t, "UTF-8", aws.ToString(in.Content.Simple.Body.Text.Charset))
}

func TestSESSender_TextOnly(t *testing.T) {
	api := &fakeSES{out: &sesv2.SendEmailOutput{MessageId: aws.String("msg-2")}}

	require.NoError(t, NewSESSender(api, "no-reply@kadryhr.pl").Send(context.Background(), notification.Email{
		To:      "jan@acme.pl",
		Subject: "Test",
		Text:    "tylko tekst",
	}))
	assert.Nil(t, api.input.Content.Simple.Body.Html)
}

func TestSESSender_Errors(t *testing.T) {
	err := NewSESSender(&fakeSES{err: errors.New("MessageRejected")}, "x@kadryhr.pl").Send(context.Background(), welcome)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MessageRejected")

	err = NewSESSender(&fakeSES{out: &sesv2.SendEmailOutput{}}, "x@kadryhr.pl").Send(context.Background(), welcome)
	assert.ErrorContains(t, err, "no message id")
}

func TestConsoleSender(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewConsoleSender(&logger.Logger{SugaredLogger: zap.New(core).Sugar()})

	require.NoError(t, s.Send(context.Background(), welcome))
	entries := logs.FilterMessage("email").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "anna@acme.pl", entries[0].ContextMap()["to"])
}
