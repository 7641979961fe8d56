package service

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/repository"
)

type NotificationService interface {
	SendCommentReplyNotification(receiverID string, sender *model.User, comment *model.PostComment) error
	SendCommentMentionNotification(receiverID string, sender *model.User, comment *model.PostComment) error
	SendFollowNotification(receiverID string, sender *model.User) error
	GetNotifications(userID string, unreadOnly bool, limit, offset int) ([]*model.Notification, int64, error)
	GetUnreadCount(userID string) (int64, error)
	MarkAsRead(notificationID, userID string) error
	MarkAllAsRead(userID string) error
	DeleteNotification(notificationID, userID string) error
}

// Publisher is the queue side of notifications (RabbitMQ in production).
type Publisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// Broadcaster pushes a payload to a user's live connections.
type Broadcaster interface {
	BroadcastToUser(userID string, payload map[string]interface{})
}

type notificationService struct {
	notifRepo repository.NotificationRepository
	publisher Publisher
	wsHub     Broadcaster
}

// NotificationMessage is the message published to RabbitMQ.
type NotificationMessage struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	SenderID  *string                `json:"sender_id,omitempty"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	TargetID  *string                `json:"target_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

const (
	NotificationQueueName  = "notification_queue"
	NotificationExchange   = "notification_exchange"
	NotificationRoutingKey = "notification"
)

// NewNotificationService wires the store with optional queue and hub. Either
// may be nil.
func NewNotificationService(notifRepo repository.NotificationRepository, publisher Publisher, wsHub Broadcaster) NotificationService {
	return &notificationService{
		notifRepo: notifRepo,
		publisher: publisher,
		wsHub:     wsHub,
	}
}

// sendNotification saves the notification, then hands it to RabbitMQ. When
// the queue is unavailable it is pushed straight to the websocket hub.
func (s *notificationService) sendNotification(userID string, sender *model.User, notifType, title, message string, targetID string, data map[string]interface{}) error {
	notification := &model.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
	}
	if sender != nil {
		notification.SenderID = &sender.ID
	}
	if targetID != "" {
		notification.TargetID = &targetID
	}
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			notification.Data = string(b)
		}
	}

	if err := s.notifRepo.Create(notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	msg := NotificationMessage{
		ID:        notification.ID,
		UserID:    notification.UserID,
		SenderID:  notification.SenderID,
		Type:      notification.Type,
		Title:     notification.Title,
		Message:   notification.Message,
		TargetID:  notification.TargetID,
		Data:      data,
		Timestamp: notification.CreatedAt,
	}

	if s.publisher != nil {
		body, err := json.Marshal(msg)
		if err == nil {
			if err = s.publisher.Publish(NotificationExchange, NotificationRoutingKey, body); err == nil {
				return nil
			}
		}
		log.Printf("Failed to publish notification to RabbitMQ, pushing directly: %v", err)
	}

	if s.wsHub != nil {
		s.wsHub.BroadcastToUser(userID, msg.Payload())
	}
	return nil
}

// Payload is the websocket form of a notification.
func (m NotificationMessage) Payload() map[string]interface{} {
	payload := map[string]interface{}{
		"id":         m.ID,
		"user_id":    m.UserID,
		"type":       m.Type,
		"title":      m.Title,
		"message":    m.Message,
		"is_read":    false,
		"created_at": m.Timestamp.Format(time.RFC3339),
	}
	if m.SenderID != nil {
		payload["sender_id"] = *m.SenderID
	}
	if m.TargetID != nil {
		payload["target_id"] = *m.TargetID
	}
	if m.Data != nil {
		payload["data"] = m.Data
	}
	return payload
}

func (s *notificationService) SendCommentReplyNotification(receiverID string, sender *model.User, comment *model.PostComment) error {
	return s.sendNotification(receiverID, sender,
		model.NotificationTypeCommentReply,
		"New reply",
		fmt.Sprintf("%s replied to your comment: %s", sender.Nickname, truncate(comment.Content, 80)),
		comment.ID,
		map[string]interface{}{"post_id": comment.PostID, "comment_id": comment.ID},
	)
}

func (s *notificationService) SendCommentMentionNotification(receiverID string, sender *model.User, comment *model.PostComment) error {
	return s.sendNotification(receiverID, sender,
		model.NotificationTypeCommentMention,
		"You were mentioned",
		fmt.Sprintf("%s mentioned you: %s", sender.Nickname, truncate(comment.Content, 80)),
		comment.ID,
		map[string]interface{}{"post_id": comment.PostID, "comment_id": comment.ID},
	)
}

func (s *notificationService) SendFollowNotification(receiverID string, sender *model.User) error {
	return s.sendNotification(receiverID, sender,
		model.NotificationTypeFollow,
		"New follower",
		fmt.Sprintf("%s started following you", sender.Nickname),
		sender.ID,
		nil,
	)
}

func (s *notificationService) GetNotifications(userID string, unreadOnly bool, limit, offset int) ([]*model.Notification, int64, error) {
	return s.notifRepo.FindByUserID(userID, unreadOnly, limit, offset)
}

func (s *notificationService) GetUnreadCount(userID string) (int64, error) {
	return s.notifRepo.CountUnreadByUserID(userID)
}

func (s *notificationService) MarkAsRead(notificationID, userID string) error {
	return storeError(s.notifRepo.MarkAsRead(notificationID, userID), "notification")
}

func (s *notificationService) MarkAllAsRead(userID string) error {
	return s.notifRepo.MarkAllAsRead(userID)
}

func (s *notificationService) DeleteNotification(notificationID, userID string) error {
	return storeError(s.notifRepo.Delete(notificationID, userID), "notification")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
