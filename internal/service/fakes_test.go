package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/repository"

	"gorm.io/gorm"
)

// In-memory repositories. Ids are zero-padded sequence numbers so that
// lexical order is creation order, as with UUIDv7.

type idSeq struct {
	mu sync.Mutex
	n  int
}

func (s *idSeq) next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%05d", prefix, s.n)
}

var ids idSeq

func strPtr(s string) *string { return &s }

// users

type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*model.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(user *model.User) error {
	if user.ID == "" {
		user.ID = ids.next("user")
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Search(keyword string, limit, offset int) ([]*model.User, int64, error) {
	var out []*model.User
	for _, u := range r.users {
		if strings.Contains(u.Nickname, keyword) || strings.Contains(u.Email, keyword) {
			out = append(out, u)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) Update(user *model.User) error {
	for id, u := range r.users {
		if id != user.ID && u.Nickname == user.Nickname {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

// boards

type fakeBoardRepo struct {
	boards map[string]*model.Board
}

func newFakeBoardRepo(boards ...*model.Board) *fakeBoardRepo {
	r := &fakeBoardRepo{boards: map[string]*model.Board{}}
	for _, b := range boards {
		r.boards[b.ID] = b
	}
	return r
}

func (r *fakeBoardRepo) Create(board *model.Board) error {
	r.boards[board.ID] = board
	return nil
}

func (r *fakeBoardRepo) FindByID(id string) (*model.Board, error) {
	b, ok := r.boards[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (r *fakeBoardRepo) FindAll() ([]*model.Board, error) {
	out := make([]*model.Board, 0, len(r.boards))
	for _, b := range r.boards {
		out = append(out, b)
	}
	return out, nil
}

// posts

type fakePostRepo struct {
	posts  map[string]*model.Post
	scored []string
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: map[string]*model.Post{}}
}

func (r *fakePostRepo) Create(post *model.Post, hashtags []string, photos []model.PostPhoto) error {
	if post.ID == "" {
		post.ID = ids.next("post")
	}
	post.Hashtags = nil
	for _, h := range hashtags {
		post.Hashtags = append(post.Hashtags, model.PostHashtag{PostID: post.ID, Name: h})
	}
	for i := range photos {
		photos[i].PostID = post.ID
	}
	post.Photos = photos
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *fakePostRepo) FindByID(id string) (*model.Post, error) {
	p, ok := r.posts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePostRepo) Update(post *model.Post, upd repository.PostUpdate) ([]model.PostPhoto, error) {
	stored, ok := r.posts[post.ID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	stored.Title = post.Title
	stored.Content = post.Content
	if upd.ReplaceHashtags {
		stored.Hashtags = nil
		for _, h := range upd.Hashtags {
			stored.Hashtags = append(stored.Hashtags, model.PostHashtag{PostID: post.ID, Name: h})
		}
	}
	var removed []model.PostPhoto
	if upd.ReplacePhotos {
		removed = stored.Photos
		stored.Photos = upd.Photos
	}
	return removed, nil
}

func (r *fakePostRepo) Delete(id string) ([]string, error) {
	p, ok := r.posts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	var keys []string
	for _, ph := range p.Photos {
		keys = append(keys, ph.Key)
	}
	delete(r.posts, id)
	return keys, nil
}

func (r *fakePostRepo) List(filter repository.PostFilter, limit, offset int) ([]*model.Post, int64, error) {
	var out []*model.Post
	for _, p := range r.posts {
		if filter.BoardID != "" && p.BoardID != filter.BoardID {
			continue
		}
		if filter.WriterID != "" && !p.IsWrittenBy(filter.WriterID) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, limit, offset), int64(len(out)), nil
}

func (r *fakePostRepo) CountByWriter(userID string) (int64, error) {
	var n int64
	for _, p := range r.posts {
		if p.IsWrittenBy(userID) {
			n++
		}
	}
	return n, nil
}

func (r *fakePostRepo) UpdateEngagementScore(postID string) {
	r.scored = append(r.scored, postID)
}

// comments

type fakeCommentRepo struct {
	comments   map[string]*model.PostComment
	failCreate error
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: map[string]*model.PostComment{}}
}

func (r *fakeCommentRepo) Create(comment *model.PostComment, photos []model.PostCommentPhoto) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	if comment.ID == "" {
		comment.ID = ids.next("comment")
	}
	for i := range photos {
		photos[i].CommentID = comment.ID
	}
	comment.Photos = photos
	cp := *comment
	r.comments[comment.ID] = &cp
	return nil
}

func (r *fakeCommentRepo) FindByID(id string) (*model.PostComment, error) {
	c, ok := r.comments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCommentRepo) Update(comment *model.PostComment) error {
	c, ok := r.comments[comment.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Content = comment.Content
	c.MentionID = comment.MentionID
	return nil
}

// Delete mirrors ON DELETE SET NULL on parent_id.
func (r *fakeCommentRepo) Delete(id string) ([]string, error) {
	c, ok := r.comments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	var keys []string
	for _, p := range c.Photos {
		keys = append(keys, p.Key)
	}
	delete(r.comments, id)
	for _, other := range r.comments {
		if other.ParentID != nil && *other.ParentID == id {
			other.ParentID = nil
		}
	}
	return keys, nil
}

func (r *fakeCommentRepo) ListByPost(postID string, limit, offset int) ([]*model.PostComment, int64, error) {
	var out []*model.PostComment
	for _, c := range r.comments {
		if c.PostID != postID {
			continue
		}
		cp := *c
		cp.Group = cp.ThreadGroup()
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].ID < out[j].ID
	})
	return page(out, limit, offset), int64(len(out)), nil
}

func (r *fakeCommentRepo) ListByWriter(userID string, limit, offset int) ([]*model.PostComment, int64, error) {
	var out []*model.PostComment
	for _, c := range r.comments {
		if c.IsWrittenBy(userID) {
			out = append(out, c)
		}
	}
	return page(out, limit, offset), int64(len(out)), nil
}

// likes

type fakeLikeRepo struct {
	edges  map[string]bool
	counts map[string]int64
	// exists reports whether a target row exists; nil means every target exists.
	exists func(targetType, targetID string) bool
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{edges: map[string]bool{}, counts: map[string]int64{}}
}

func (r *fakeLikeRepo) Toggle(targetType, targetID, userID string) (bool, int64, error) {
	if r.exists != nil && !r.exists(targetType, targetID) {
		return false, 0, gorm.ErrRecordNotFound
	}
	target := targetType + ":" + targetID
	edge := userID + "|" + target
	if r.edges[edge] {
		delete(r.edges, edge)
		if r.counts[target] > 0 {
			r.counts[target]--
		}
		return false, r.counts[target], nil
	}
	r.edges[edge] = true
	r.counts[target]++
	return true, r.counts[target], nil
}

func (r *fakeLikeRepo) Exists(userID, targetType, targetID string) (bool, error) {
	return r.edges[userID+"|"+targetType+":"+targetID], nil
}

func (r *fakeLikeRepo) FindUserLikedTargets(userID, targetType string, targetIDs []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, id := range targetIDs {
		if r.edges[userID+"|"+targetType+":"+id] {
			out[id] = true
		}
	}
	return out, nil
}

// follows

type fakeFollowRepo struct {
	users *fakeUserRepo
	pairs map[[2]string]bool
}

func newFakeFollowRepo(users *fakeUserRepo) *fakeFollowRepo {
	return &fakeFollowRepo{users: users, pairs: map[[2]string]bool{}}
}

func (r *fakeFollowRepo) Toggle(followerID, followingID string) (bool, error) {
	if _, err := r.users.FindByID(followingID); err != nil {
		return false, err
	}
	key := [2]string{followerID, followingID}
	if r.pairs[key] {
		delete(r.pairs, key)
		return false, nil
	}
	r.pairs[key] = true
	return true, nil
}

func (r *fakeFollowRepo) IsFollowing(followerID, followingID string) (bool, error) {
	return r.pairs[[2]string{followerID, followingID}], nil
}

func (r *fakeFollowRepo) CountFollowers(userID string) (int64, error) {
	var n int64
	for k := range r.pairs {
		if k[1] == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeFollowRepo) CountFollowing(userID string) (int64, error) {
	var n int64
	for k := range r.pairs {
		if k[0] == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeFollowRepo) ListFollowers(userID, nickname string, limit, offset int) ([]*model.User, int64, error) {
	var out []*model.User
	for k := range r.pairs {
		if k[1] == userID {
			u, _ := r.users.FindByID(k[0])
			out = append(out, u)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeFollowRepo) ListFollowing(userID, nickname string, limit, offset int) ([]*model.User, int64, error) {
	var out []*model.User
	for k := range r.pairs {
		if k[0] == userID {
			u, _ := r.users.FindByID(k[1])
			out = append(out, u)
		}
	}
	return out, int64(len(out)), nil
}

// reports and views

type fakeReportRepo struct {
	seen map[string]bool
}

func (r *fakeReportRepo) Create(report *model.Report) error {
	if r.seen == nil {
		r.seen = map[string]bool{}
	}
	key := report.TargetType + report.TargetID + report.ReporterID
	if r.seen[key] {
		return repository.ErrDuplicate
	}
	r.seen[key] = true
	return nil
}

func (r *fakeReportRepo) CountByTarget(targetType, targetID string) (int64, error) {
	return 0, nil
}

type fakeViewRepo struct {
	posts *fakePostRepo
	seen  map[string]bool
}

func (r *fakeViewRepo) Record(postID, userID string) (bool, error) {
	if r.seen == nil {
		r.seen = map[string]bool{}
	}
	if r.seen[postID+userID] {
		return false, nil
	}
	r.seen[postID+userID] = true
	if p, ok := r.posts.posts[postID]; ok {
		p.ViewCount++
	}
	return true, nil
}

func (r *fakeViewRepo) HasViewed(postID, userID string) (bool, error) {
	return r.seen[postID+userID], nil
}

// notifications

type sentNotification struct {
	Type       string
	ReceiverID string
	SenderID   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) record(typ, receiver string, sender *model.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{Type: typ, ReceiverID: receiver, SenderID: sender.ID})
	return nil
}

func (n *fakeNotifier) SendCommentReplyNotification(receiverID string, sender *model.User, comment *model.PostComment) error {
	return n.record(model.NotificationTypeCommentReply, receiverID, sender)
}

func (n *fakeNotifier) SendCommentMentionNotification(receiverID string, sender *model.User, comment *model.PostComment) error {
	return n.record(model.NotificationTypeCommentMention, receiverID, sender)
}

func (n *fakeNotifier) SendFollowNotification(receiverID string, sender *model.User) error {
	return n.record(model.NotificationTypeFollow, receiverID, sender)
}

func (n *fakeNotifier) GetNotifications(userID string, unreadOnly bool, limit, offset int) ([]*model.Notification, int64, error) {
	return nil, 0, nil
}

func (n *fakeNotifier) GetUnreadCount(userID string) (int64, error) { return 0, nil }

func (n *fakeNotifier) MarkAsRead(notificationID, userID string) error { return nil }

func (n *fakeNotifier) MarkAllAsRead(userID string) error { return nil }

func (n *fakeNotifier) DeleteNotification(notificationID, userID string) error { return nil }

func syncAsync(fn func()) { fn() }

var errInjected = errors.New("injected failure")

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
