package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"ridepool/src/config"
	"ridepool/src/lib"
	awslib "ridepool/src/lib/aws"
	"ridepool/src/services"
	"ridepool/src/types"
	"ridepool/src/utils"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrInvalidMessage = errors.New("invalid mail message")

func EncodeMailMessage(input *lib.SendMailInput) ([]byte, error) {
	emailBody := &types.JSONB{
		"from":      input.From,
		"from-name": input.FromName,
		"to":        input.To,
		"cc":        input.Cc,
		"bcc":       input.Bcc,
		"reply-to":  input.ReplyTo,
		"body":      input.Body,
		"html":      input.Html,
		"subject":   input.Subject,
	}
	return json.Marshal(emailBody)
}

// NewMailerMessage queues input on the email topic: kafka for local runs,
// SQS everywhere else.
func NewMailerMessage(input *lib.SendMailInput) error {
	emailQueue := utils.WithSuffix(config.EmailQueue())
	body, err := EncodeMailMessage(input)
	if err != nil {
		return err
	}
	if os.Getenv("API_ENV") == "local" {
		if err := lib.KafkaProduceMessage("emails", emailQueue, body); err != nil {
			return fmt.Errorf("error sending message to queue: %s", err.Error())
		}
		return nil
	}
	if err := lib.SQSProduceMessage(emailQueue, string(body)); err != nil {
		return fmt.Errorf("error sending message to queue: %s", err.Error())
	}
	return nil
}

func stringList(r gjson.Result) []string {
	out := []string{}
	for _, v := range r.Array() {
		if s := strings.TrimSpace(v.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func DecodeMailMessage(payload string) (*lib.SendMailInput, error) {
	if !gjson.Valid(payload) {
		return nil, ErrInvalidMessage
	}
	msg := gjson.Parse(payload)
	input := &lib.SendMailInput{
		From:     msg.Get("from").String(),
		FromName: msg.Get("from-name").String(),
		To:       stringList(msg.Get("to")),
		Cc:       stringList(msg.Get("cc")),
		Bcc:      stringList(msg.Get("bcc")),
		ReplyTo:  msg.Get("reply-to").String(),
		Subject:  msg.Get("subject").String(),
		Body:     msg.Get("body").String(),
		Html:     msg.Get("html").Bool(),
	}
	if input.From == "" || len(input.To) == 0 {
		return nil, fmt.Errorf("%w: sender and recipient are required", ErrInvalidMessage)
	}
	return input, nil
}

func ConfirmationMail(c services.BookingConfirmation, from, fromName string) *lib.SendMailInput {
	var b strings.Builder
	fmt.Fprintf(&b, "Your booking is confirmed.\n\n")
	fmt.Fprintf(&b, "Ride: %s to %s", c.Origin, c.Destination)
	if c.DriverName != "" {
		fmt.Fprintf(&b, " with %s", c.DriverName)
	}
	fmt.Fprintf(&b, "\nSeats: %d\nDates: %s\nTotal: %.2f\n", c.Seats, strings.Join(c.Dates, ", "), c.TotalPrice)
	fmt.Fprintf(&b, "Booking reference(s): ")
	for i, id := range c.BookingIDs {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "#%d", id)
	}
	b.WriteString("\n")
	return &lib.SendMailInput{
		From:     from,
		FromName: fromName,
		To:       []string{c.Email},
		Subject:  fmt.Sprintf("Booking confirmed: %s to %s", c.Origin, c.Destination),
		Body:     b.String(),
	}
}

// QueueNotifier hands confirmations to the email queue; a consumer sends
// them later.
type QueueNotifier struct {
	From     string
	FromName string
	Publish  func(input *lib.SendMailInput) error
}

func NewQueueNotifier() *QueueNotifier {
	from, name := config.MailFrom()
	return &QueueNotifier{From: from, FromName: name, Publish: NewMailerMessage}
}

func (n *QueueNotifier) SendBookingConfirmation(ctx context.Context, c services.BookingConfirmation) error {
	return n.Publish(ConfirmationMail(c, n.From, n.FromName))
}

type Sender func(ctx context.Context, input *lib.SendMailInput) error

// SMTPNotifier sends confirmations straight away.
type SMTPNotifier struct {
	From     string
	FromName string
	Send     Sender
}

func NewSMTPNotifier() *SMTPNotifier {
	from, name := config.MailFrom()
	return &SMTPNotifier{From: from, FromName: name, Send: lib.SendMail}
}

func (n *SMTPNotifier) SendBookingConfirmation(ctx context.Context, c services.BookingConfirmation) error {
	return n.Send(ctx, ConfirmationMail(c, n.From, n.FromName))
}

// Transport picks how queued mail is delivered.
func Transport(name string) Sender {
	if name == "ses" {
		return func(ctx context.Context, input *lib.SendMailInput) error {
			return awslib.SESSendMessage(ctx, lib.AWSGetSESClient(), input)
		}
	}
	return lib.SendMail
}

// DeliverHandler decodes queue payloads and sends them with send.
func DeliverHandler(send Sender) types.Handler {
	return func(payload string) {
		input, err := DecodeMailMessage(payload)
		if err != nil {
			log.Printf("[mailer] dropping message: %s\n", err.Error())
			return
		}
		if err := send(context.Background(), input); err != nil {
			log.Printf("[mailer] failed to send %q to %s: %s\n", input.Subject, strings.Join(input.To, ","), err.Error())
			return
		}
		log.Printf("[mailer] sent %q to %s\n", input.Subject, strings.Join(input.To, ","))
	}
}
