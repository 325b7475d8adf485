package common

import (
	"context"
	"log"
	"ridepool/src/config"
	"ridepool/src/lib"
	awslib "ridepool/src/lib/aws"
	"ridepool/src/lib/mailer"
	"ridepool/src/types"
	"ridepool/src/utils"
)

const EMAIL_CONSUMER_GROUP = "emails"

// EmailHandler delivers queued confirmation emails with the configured
// transport.
func EmailHandler() types.Handler {
	return mailer.DeliverHandler(mailer.Transport(config.MailTransport()))
}

// EmailConsumers starts the consumer of the email queue. Local runs read
// from kafka, everything else from SQS.
func EmailConsumers(ctx context.Context) {
	queue := utils.WithSuffix(config.EmailQueue())
	handler := EmailHandler()
	if config.APIEnv() == "local" {
		if err := lib.KafkaConsumer(ctx, EMAIL_CONSUMER_GROUP, queue, handler); err != nil {
			log.Printf("[%s] consumer not started: %s\n", queue, err.Error())
		}
		return
	}
	awslib.NewSQSConsumer(queue, handler).Listen(ctx)
}
