package aws

import (
	"context"
	"errors"
	"log"
	"ridepool/src/lib"
	"ridepool/src/types"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type SQSConsumer struct {
	Name    string
	handler *types.Handler
	client  lib.SQSAPI
	// WaitTimeSeconds is the long-poll window of one receive call.
	WaitTimeSeconds int32
}

func NewSQSConsumer(queue string, handler types.Handler) *SQSConsumer {
	new := SQSConsumer{
		Name:            queue,
		handler:         &handler,
		WaitTimeSeconds: 20,
	}
	return &new
}

// WithClient overrides the shared SQS client.
func (s *SQSConsumer) WithClient(c lib.SQSAPI) *SQSConsumer {
	s.client = c
	return s
}

func (s *SQSConsumer) sqsClient() lib.SQSAPI {
	if s.client != nil {
		return s.client
	}
	return lib.AWSGetSQSClient()
}

// Listen receives messages until ctx is done. Every message is handed to
// the handler and then deleted.
func (s *SQSConsumer) Listen(ctx context.Context) {
	go func() {
		if err := s.Run(ctx); err != nil {
			log.Printf("[%s] consumer stopped: %s\n", s.Name, err.Error())
		}
	}()
}

func (s *SQSConsumer) Run(ctx context.Context) error {
	qname := s.Name
	client := s.sqsClient()
	if client == nil {
		return errors.New("sqs client is not configured")
	}
	qurl, err := lib.SQSGetQueueUrl(ctx, client, qname)
	if err != nil {
		return err
	}
	log.Printf("%s: Listening for messages...", qname)
	for {
		if ctx.Err() != nil {
			return nil
		}
		output, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            qurl,
			WaitTimeSeconds:     s.WaitTimeSeconds,
			MaxNumberOfMessages: 10,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("[SQS] Error receiving messages: %s\n", err.Error())
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		for i := range output.Messages {
			s.handle(client, qurl, &output.Messages[i])
		}
	}
}

func (s *SQSConsumer) handle(client lib.SQSAPI, qurl *string, m *sqstypes.Message) {
	if m.Body == nil {
		lib.SQSDeleteMessage(client, qurl, m)
		return
	}
	body := strings.Clone(*m.Body)
	h := *s.handler
	h(body)
	lib.SQSDeleteMessage(client, qurl, m)
}
