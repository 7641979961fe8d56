package service

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NotificationWorker consumes the notification queue and pushes each message
// to the user's websocket connections.
type NotificationWorker struct {
	rabbitMQ *util.RabbitMQClient
	wsHub    Broadcaster
	stopChan chan struct{}
}

func NewNotificationWorker(rabbitMQ *util.RabbitMQClient, wsHub Broadcaster) *NotificationWorker {
	return &NotificationWorker{
		rabbitMQ: rabbitMQ,
		wsHub:    wsHub,
		stopChan: make(chan struct{}),
	}
}

// Start declares the exchange and queue and begins consuming. It is a no-op
// without RabbitMQ.
func (w *NotificationWorker) Start() error {
	if w.rabbitMQ == nil {
		return nil
	}

	if err := w.rabbitMQ.DeclareDirect(NotificationExchange, NotificationQueueName, NotificationRoutingKey); err != nil {
		return err
	}

	channel := w.rabbitMQ.GetChannel()
	if channel == nil {
		return errors.New("rabbitmq channel not available")
	}

	msgs, err := channel.Consume(
		NotificationQueueName,
		"notification_worker",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go w.consume(msgs)
	return nil
}

func (w *NotificationWorker) consume(msgs <-chan amqp.Delivery) {
	log.Println("Notification worker started, consuming messages...")
	for {
		select {
		case <-w.stopChan:
			log.Println("Notification worker stopped")
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Println("Notification queue closed")
				return
			}
			if err := w.handle(msg.Body); err != nil {
				log.Printf("Error processing notification message: %v", err)
				// A body that does not decode will never decode; drop it.
				msg.Nack(false, false)
				continue
			}
			msg.Ack(false)
		}
	}
}

func (w *NotificationWorker) handle(body []byte) error {
	var notificationMsg NotificationMessage
	if err := json.Unmarshal(body, &notificationMsg); err != nil {
		return err
	}
	if notificationMsg.UserID == "" {
		return errors.New("notification message without user_id")
	}

	if w.wsHub != nil {
		w.wsHub.BroadcastToUser(notificationMsg.UserID, notificationMsg.Payload())
		log.Printf("Notification pushed to WebSocket for user: %s, type: %s", notificationMsg.UserID, notificationMsg.Type)
	}
	return nil
}

func (w *NotificationWorker) Stop() {
	close(w.stopChan)
}
