package aws

import (
	"context"
	"errors"
	"ridepool/src/lib"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	mu       sync.Mutex
	batches  [][]sqstypes.Message
	deleted  []string
	onDrain  func()
	queueURL string
}

func (f *fakeSQS) GetQueueUrl(ctx context.Context, in *sqs.GetQueueUrlInput, _ ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error) {
	f.queueURL = "https://sqs.local/" + aws.ToString(in.QueueName)
	return &sqs.GetQueueUrlOutput{QueueUrl: aws.String(f.queueURL)}, nil
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		f.onDrain()
		return nil, ctx.Err()
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return &sqs.ReceiveMessageOutput{Messages: batch}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func message(id, body string) sqstypes.Message {
	return sqstypes.Message{MessageId: aws.String(id), ReceiptHandle: aws.String("rh-" + id), Body: aws.String(body)}
}

func TestSQSConsumerHandlesAndDeletes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake := &fakeSQS{
		batches: [][]sqstypes.Message{
			{message("1", "first"), message("2", "second")},
			{message("3", "third")},
		},
		onDrain: cancel,
	}
	var got []string
	c := NewSQSConsumer("BookingEmails-test", func(payload string) {
		got = append(got, payload)
	}).WithClient(fake)

	err := c.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, got)
	assert.Equal(t, []string{"rh-1", "rh-2", "rh-3"}, fake.deleted)
	assert.Equal(t, "https://sqs.local/BookingEmails-test", fake.queueURL)
}

func TestNewSESInput(t *testing.T) {
	in := NewSESInput(&lib.SendMailInput{
		From:     "no-reply@ridepool.local",
		FromName: "Ridepool",
		To:       []string{"rider@example.com"},
		ReplyTo:  "support@ridepool.local",
		Subject:  "Booking confirmed",
		Body:     "see you",
	})

	assert.Equal(t, "Ridepool <no-reply@ridepool.local>", aws.ToString(in.Source))
	assert.Equal(t, []string{"rider@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, []string{"support@ridepool.local"}, in.ReplyToAddresses)
	assert.Equal(t, "Booking confirmed", aws.ToString(in.Message.Subject.Data))
	require.NotNil(t, in.Message.Body.Text)
	assert.Nil(t, in.Message.Body.Html)
	assert.Equal(t, "see you", aws.ToString(in.Message.Body.Text.Data))
}

type fakeSES struct {
	err  error
	sent *ses.SendEmailInput
}

func (f *fakeSES) SendEmail(ctx context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = in
	return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

func TestSESSendMessage(t *testing.T) {
	input := &lib.SendMailInput{From: "a@b.co", To: []string{"c@d.co"}, Subject: "hi", Body: "<p>hi</p>", Html: true}

	f := &fakeSES{}
	require.NoError(t, SESSendMessage(context.Background(), f, input))
	require.NotNil(t, f.sent)
	assert.NotNil(t, f.sent.Message.Body.Html)

	boom := errors.New("throttled")
	assert.ErrorIs(t, SESSendMessage(context.Background(), &fakeSES{err: boom}, input), boom)
	assert.Error(t, SESSendMessage(context.Background(), nil, input))
}
