package service

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeNotificationRepo struct {
	rows []*model.Notification
}

func (r *fakeNotificationRepo) Create(n *model.Notification) error {
	if n.ID == "" {
		n.ID = ids.next("notification")
	}
	n.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r.rows = append(r.rows, n)
	return nil
}

func (r *fakeNotificationRepo) FindByUserID(userID string, unreadOnly bool, limit, offset int) ([]*model.Notification, int64, error) {
	var out []*model.Notification
	for _, n := range r.rows {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return page(out, limit, offset), int64(len(out)), nil
}

func (r *fakeNotificationRepo) CountUnreadByUserID(userID string) (int64, error) {
	var n int64
	for _, row := range r.rows {
		if row.UserID == userID && !row.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) MarkAsRead(id, userID string) error {
	for _, row := range r.rows {
		if row.ID == id && row.UserID == userID {
			row.IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeNotificationRepo) MarkAllAsRead(userID string) error {
	for _, row := range r.rows {
		if row.UserID == userID {
			row.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) Delete(id, userID string) error {
	for i, row := range r.rows {
		if row.ID == id && row.UserID == userID {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type published struct {
	exchange, routingKey string
	body                 []byte
}

type fakePublisher struct {
	err  error
	sent []published
}

func (p *fakePublisher) Publish(exchange, routingKey string, body []byte) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{exchange, routingKey, body})
	return nil
}

type pushed struct {
	userID  string
	payload map[string]interface{}
}

type fakeHub struct {
	mu     sync.Mutex
	pushes []pushed
}

func (h *fakeHub) BroadcastToUser(userID string, payload map[string]interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pushes = append(h.pushes, pushed{userID, payload})
}

func replyFixture() (*model.User, *model.PostComment) {
	sender := &model.User{ID: "user-bob", Nickname: "bob"}
	comment := &model.PostComment{ID: "comment-1", PostID: "post-1", Content: "nice place"}
	return sender, comment
}

func TestSendNotification_PublishesToQueue(t *testing.T) {
	repo := &fakeNotificationRepo{}
	pub := &fakePublisher{}
	hub := &fakeHub{}
	svc := NewNotificationService(repo, pub, hub)

	sender, comment := replyFixture()
	require.NoError(t, svc.SendCommentReplyNotification("user-alice", sender, comment))

	require.Len(t, repo.rows, 1)
	row := repo.rows[0]
	assert.Equal(t, model.NotificationTypeCommentReply, row.Type)
	assert.Equal(t, "user-alice", row.UserID)
	require.NotNil(t, row.TargetID)
	assert.Equal(t, "comment-1", *row.TargetID)
	assert.JSONEq(t, `{"post_id":"post-1","comment_id":"comment-1"}`, row.Data)

	require.Len(t, pub.sent, 1)
	assert.Equal(t, NotificationExchange, pub.sent[0].exchange)
	assert.Equal(t, NotificationRoutingKey, pub.sent[0].routingKey)

	var msg NotificationMessage
	require.NoError(t, json.Unmarshal(pub.sent[0].body, &msg))
	assert.Equal(t, row.ID, msg.ID)
	assert.Equal(t, "user-alice", msg.UserID)
	assert.Contains(t, msg.Message, "bob replied")

	// The worker delivers queued messages; the service does not push twice.
	assert.Empty(t, hub.pushes)
}

func TestSendNotification_FallsBackToHub(t *testing.T) {
	for name, pub := range map[string]Publisher{
		"no queue":      nil,
		"queue failing": &fakePublisher{err: errors.New("channel closed")},
	} {
		t.Run(name, func(t *testing.T) {
			repo := &fakeNotificationRepo{}
			hub := &fakeHub{}
			svc := NewNotificationService(repo, pub, hub)

			sender := &model.User{ID: "user-bob", Nickname: "bob"}
			require.NoError(t, svc.SendFollowNotification("user-alice", sender))

			require.Len(t, hub.pushes, 1)
			assert.Equal(t, "user-alice", hub.pushes[0].userID)
			assert.Equal(t, model.NotificationTypeFollow, hub.pushes[0].payload["type"])
			assert.Equal(t, "user-bob", hub.pushes[0].payload["sender_id"])
			assert.Equal(t, false, hub.pushes[0].payload["is_read"])
		})
	}
}

func TestNotificationInbox(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(repo, nil, nil)
	sender, comment := replyFixture()

	require.NoError(t, svc.SendCommentReplyNotification("user-alice", sender, comment))
	require.NoError(t, svc.SendCommentMentionNotification("user-alice", sender, comment))

	count, err := svc.GetUnreadCount("user-alice")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	first := repo.rows[0].ID
	require.NoError(t, svc.MarkAsRead(first, "user-alice"))
	assert.ErrorIs(t, svc.MarkAsRead(first, "user-other"), ErrNotFound)

	unread, total, err := svc.GetNotifications("user-alice", true, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, model.NotificationTypeCommentMention, unread[0].Type)

	require.NoError(t, svc.MarkAllAsRead("user-alice"))
	count, err = svc.GetUnreadCount("user-alice")
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, svc.DeleteNotification(first, "user-alice"))
	assert.ErrorIs(t, svc.DeleteNotification(first, "user-alice"), ErrNotFound)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "성수동...", truncate("성수동 카페", 3))
}

func TestNotificationWorker_Handle(t *testing.T) {
	hub := &fakeHub{}
	w := NewNotificationWorker(nil, hub)

	// Without RabbitMQ the worker has nothing to consume.
	require.NoError(t, w.Start())

	body, err := json.Marshal(NotificationMessage{
		ID:        "notification-1",
		UserID:    "user-alice",
		Type:      model.NotificationTypeFollow,
		Title:     "New follower",
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, w.handle(body))

	require.Len(t, hub.pushes, 1)
	assert.Equal(t, "user-alice", hub.pushes[0].userID)
	assert.Equal(t, "2024-05-01T12:00:00Z", hub.pushes[0].payload["created_at"])

	assert.Error(t, w.handle([]byte("{not json")))
	assert.Error(t, w.handle([]byte(`{"type":"follow"}`)))
	assert.Len(t, hub.pushes, 1)
}
