package lib

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// SQSAPI is the part of the SQS client the email queue uses.
type SQSAPI interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// awsGetSdkClient loads the default config and, when AWS_IAM_ROLE_ARN is
// set, swaps in credentials of the assumed role.
func awsGetSdkClient() (*aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Printf("Error loading default config: %s\n", err.Error())
		return nil, err
	}
	iamRole := os.Getenv("AWS_IAM_ROLE_ARN")
	if iamRole == "" {
		return &cfg, nil
	}
	stsClient := sts.NewFromConfig(cfg)
	output, err := stsClient.AssumeRole(context.TODO(), &sts.AssumeRoleInput{
		RoleArn:         aws.String(iamRole),
		RoleSessionName: aws.String("ridepool-api"),
	})
	if err != nil {
		log.Printf("Error configuring STS client: %s\n", err.Error())
		return nil, err
	}
	creds := output.Credentials
	cfg, err = config.LoadDefaultConfig(context.TODO(), config.WithCredentialsProvider(
		credentials.NewStaticCredentialsProvider(*creds.AccessKeyId, *creds.SecretAccessKey, *creds.SessionToken),
	))
	if err != nil {
		log.Printf("Error configuration: %s\n", err.Error())
		return nil, err
	}
	return &cfg, nil
}

var (
	sqsClient SQSAPI
	sesClient SESAPI

	errNoSQSClient = errors.New("sqs client is not configured")
)

func AWSGetSQSClient() SQSAPI {
	if sqsClient != nil {
		return sqsClient
	}
	cfg, err := awsGetSdkClient()
	if err != nil {
		log.Printf("Failed to initialize SQS client: %s\n", err.Error())
		return nil
	}
	sqsClient = sqs.NewFromConfig(*cfg)
	return sqsClient
}

func AWSGetSESClient() SESAPI {
	if sesClient != nil {
		return sesClient
	}
	cfg, err := awsGetSdkClient()
	if err != nil {
		log.Printf("Failed to initialize SES client: %s\n", err.Error())
		return nil
	}
	sesClient = ses.NewFromConfig(*cfg)
	return sesClient
}

// NewSQSClient and NewSESClient replace the shared clients, mainly for tests.
func NewSQSClient(c SQSAPI) SQSAPI {
	sqsClient = c
	return sqsClient
}

func NewSESClient(c SESAPI) SESAPI {
	sesClient = c
	return sesClient
}

func SQSGetQueueUrl(ctx context.Context, client SQSAPI, queue string) (*string, error) {
	out, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(queue)})
	if err != nil {
		log.Printf("Failed to retrieve queue URL for %s: %s\n", queue, err.Error())
		return nil, err
	}
	return out.QueueUrl, nil
}

func SQSProduceMessage(queue string, body string) error {
	client := AWSGetSQSClient()
	if client == nil {
		return errNoSQSClient
	}
	ctx := context.Background()
	qurl, err := SQSGetQueueUrl(ctx, client, queue)
	if err != nil {
		return err
	}
	out, err := client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    qurl,
		MessageBody: aws.String(body),
	})
	if err != nil {
		log.Printf("Error sending message to %s: %s\n", queue, err.Error())
		return err
	}
	log.Printf("Queued message %s on %s\n", aws.ToString(out.MessageId), queue)
	return nil
}

func SQSDeleteMessage(c SQSAPI, qurl *string, msg *sqsTypes.Message) {
	_, err := c.DeleteMessage(context.TODO(), &sqs.DeleteMessageInput{
		QueueUrl:      qurl,
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		log.Printf("Error deleting message from queue: %s\n", err.Error())
		return
	}
	log.Printf("Deleted message from queue: %s\n", aws.ToString(msg.MessageId))
}
