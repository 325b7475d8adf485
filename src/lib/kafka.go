package lib

import (
	"context"
	"fmt"
	"log"
	"os"
	"ridepool/src/types"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

func GetKafkaProducerConfig(clientId string) *kafka.ConfigMap {
	return &kafka.ConfigMap{
		"bootstrap.servers": os.Getenv("KAFKA_BROKER"),
		"client.id":         clientId,
		"acks":              "all",
	}
}

func GetKafkaConsumerConfig(groupId string) *kafka.ConfigMap {
	return &kafka.ConfigMap{
		"bootstrap.servers": os.Getenv("KAFKA_BROKER"),
		"group.id":          groupId,
		"auto.offset.reset": "smallest",
		"retry.backoff.ms":  100,
	}
}

// KafkaConsumer polls topic in the background and hands every message
// value to handler until ctx is done.
func KafkaConsumer(ctx context.Context, groupId, topic string, handler types.Handler) error {
	log.Printf("Initializing kafka Consumer for %s...\n", topic)
	consumer, err := kafka.NewConsumer(GetKafkaConsumerConfig(groupId))
	if err != nil {
		log.Printf("Error on consumer: %s\n", err.Error())
		return err
	}
	if err := consumer.SubscribeTopics([]string{topic}, nil); err != nil {
		log.Printf("Error subscribing to %s: %s\n", topic, err.Error())
		consumer.Close()
		return err
	}
	go func() {
		defer consumer.Close()
		log.Printf("[%s]: waiting for messages...\n", topic)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			switch e := consumer.Poll(100).(type) {
			case *kafka.Message:
				go handler(string(e.Value))
			case kafka.Error:
				log.Printf("[%s] Error: %v\n", topic, e)
				if e.IsFatal() {
					return
				}
			}
		}
	}()
	return nil
}

// KafkaProduceMessage sends value to topic and waits for the delivery report.
func KafkaProduceMessage(clientId string, topic string, value []byte) error {
	p, err := kafka.NewProducer(GetKafkaProducerConfig(clientId))
	if err != nil {
		log.Printf("Error creating producer: %s\n", err.Error())
		return err
	}
	defer p.Close()

	delivery := make(chan kafka.Event, 1)
	err = p.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          value,
	}, delivery)
	if err != nil {
		log.Printf("Error producing to %s: %s\n", topic, err.Error())
		return err
	}
	ev := <-delivery
	m, ok := ev.(*kafka.Message)
	if !ok {
		return fmt.Errorf("unexpected delivery event %v", ev)
	}
	return m.TopicPartition.Error
}

func KafkaCreateTopics(topics ...string) ([]kafka.TopicResult, error) {
	a, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": os.Getenv("KAFKA_BROKER"),
	})
	if err != nil {
		log.Printf("Error on AdminClient: %s\n", err.Error())
		return nil, err
	}
	defer a.Close()
	topicsDef := []kafka.TopicSpecification{}
	for _, topic := range topics {
		topicsDef = append(topicsDef, kafka.TopicSpecification{
			Topic:             topic,
			NumPartitions:     10,
			ReplicationFactor: 1,
		})
	}
	result, err := a.CreateTopics(context.Background(), topicsDef)
	if err != nil {
		log.Printf("Error creating topics: %s\n", err.Error())
		return nil, err
	}
	return result, nil
}
