package service

import (
	"context"
	"testing"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postFixture struct {
	svc      PostService
	posts    *fakePostRepo
	comments *fakeCommentRepo
	likes    *fakeLikeRepo
	blobs    *storage.MemoryStore
}

func newPostFixture(boards ...*model.Board) *postFixture {
	f := &postFixture{
		posts:    newFakePostRepo(),
		comments: newFakeCommentRepo(),
		likes:    newFakeLikeRepo(),
		blobs:    storage.NewMemoryStore(),
	}
	views := NewPostViewService(&fakeViewRepo{posts: f.posts}, f.posts)
	f.svc = NewPostService(f.posts, newFakeBoardRepo(boards...), f.comments, f.likes, &fakeReportRepo{}, views, f.blobs)
	return f
}

func plainBoard() *model.Board {
	return &model.Board{ID: "board-plain", Name: "notice"}
}

func TestCreatePost_CapabilityGates(t *testing.T) {
	f := newPostFixture(openBoard(), plainBoard())
	photo := []storage.Upload{{Filename: "p.webp", Data: []byte("p")}}

	cases := []struct {
		name     string
		board    string
		hashtags []string
		uploads  []storage.Upload
		want     error
		stored   int
	}{
		{"hashtags on plain board", "board-plain", []string{"seoul"}, nil, ErrCapability, 0},
		{"photos on plain board", "board-plain", nil, photo, ErrCapability, 0},
		{"empty hashtags on plain board", "board-plain", []string{}, nil, nil, 0},
		{"blank hashtags on plain board", "board-plain", []string{"  ", "#"}, nil, nil, 0},
		{"hashtags and photos on open board", "board-open", []string{"seoul", "cafe"}, photo, nil, 2},
		{"hashtags normalised on open board", "board-open", []string{"#seoul", " seoul "}, nil, nil, 1},
		{"unknown board", "board-missing", nil, nil, ErrNotFound, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := f.blobs.Len()
			post, err := f.svc.CreatePost(context.Background(), "user-1", CreatePostRequest{
				BoardID:  tc.board,
				Title:    "title",
				Content:  "content",
				Hashtags: tc.hashtags,
			}, tc.uploads)

			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
				assert.Equal(t, before, f.blobs.Len())
				return
			}
			require.NoError(t, err)
			assert.Len(t, post.Hashtags, tc.stored)
			assert.Len(t, post.Photos, len(tc.uploads))
		})
	}
}

func TestCreatePost_BlankFields(t *testing.T) {
	f := newPostFixture(openBoard())

	_, err := f.svc.CreatePost(context.Background(), "user-1", CreatePostRequest{BoardID: "board-open", Title: "  ", Content: "x"}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreatePost(context.Background(), "user-1", CreatePostRequest{BoardID: "board-open", Title: "x", Content: "\n"}, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetPost_ViewCountedOncePerUser(t *testing.T) {
	f := newPostFixture(openBoard())
	post, err := f.svc.CreatePost(context.Background(), "user-1", CreatePostRequest{BoardID: "board-open", Title: "t", Content: "c"}, nil)
	require.NoError(t, err)

	anonymous, err := f.svc.GetPostByID(post.ID, "")
	require.NoError(t, err)
	assert.EqualValues(t, 0, anonymous.ViewCount)

	first, err := f.svc.GetPostByID(post.ID, "user-2")
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.ViewCount)

	again, err := f.svc.GetPostByID(post.ID, "user-2")
	require.NoError(t, err)
	assert.EqualValues(t, 1, again.ViewCount)

	other, err := f.svc.GetPostByID(post.ID, "user-3")
	require.NoError(t, err)
	assert.EqualValues(t, 2, other.ViewCount)

	_, err = f.svc.GetPostByID("post-missing", "user-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePost_ReplacesPhotos(t *testing.T) {
	f := newPostFixture(openBoard())
	post, err := f.svc.CreatePost(context.Background(), "user-1", CreatePostRequest{
		BoardID: "board-open", Title: "t", Content: "c",
	}, []storage.Upload{{Filename: "old.webp", Data: []byte("old")}})
	require.NoError(t, err)
	require.Len(t, post.Photos, 1)
	oldKey := post.Photos[0].Key

	_, err = f.svc.UpdatePost(context.Background(), "user-2", post.ID, UpdatePostRequest{Title: strPtr("stolen")}, nil)
	assert.ErrorIs(t, err, ErrAuthorization)

	updated, err := f.svc.UpdatePost(context.Background(), "user-1", post.ID, UpdatePostRequest{
		Title: strPtr("new title"),
	}, []storage.Upload{{Filename: "new.webp", Data: []byte("new")}})
	require.NoError(t, err)
	assert.Equal(t, "new title", updated.Title)
	require.Len(t, updated.Photos, 1)
	assert.NotEqual(t, oldKey, updated.Photos[0].Key)
	assert.False(t, f.blobs.Has(oldKey))
	assert.True(t, f.blobs.Has(updated.Photos[0].Key))
}

func TestUpdatePost_HashtagsNeedCapability(t *testing.T) {
	f := newPostFixture(plainBoard())
	post, err := f.svc.CreatePost(context.Background(), "user-1", CreatePostRequest{BoardID: "board-plain", Title: "t", Content: "c"}, nil)
	require.NoError(t, err)

	tags := []string{"tag"}
	_, err = f.svc.UpdatePost(context.Background(), "user-1", post.ID, UpdatePostRequest{Hashtags: &tags}, nil)
	assert.ErrorIs(t, err, ErrCapability)

	empty := []string{}
	_, err = f.svc.UpdatePost(context.Background(), "user-1", post.ID, UpdatePostRequest{Hashtags: &empty}, nil)
	assert.NoError(t, err)

	blank := []string{" ", "#"}
	_, err = f.svc.UpdatePost(context.Background(), "user-1", post.ID, UpdatePostRequest{Hashtags: &blank}, nil)
	assert.NoError(t, err)
}

func TestDeletePost(t *testing.T) {
	f := newPostFixture(openBoard())
	post, err := f.svc.CreatePost(context.Background(), "user-1", CreatePostRequest{
		BoardID: "board-open", Title: "t", Content: "c",
	}, []storage.Upload{{Filename: "a.webp", Data: []byte("a")}})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeletePost("user-2", post.ID), ErrAuthorization)
	require.NoError(t, f.svc.DeletePost("user-1", post.ID))
	assert.Equal(t, 0, f.blobs.Len())

	_, err = f.svc.GetPostByID(post.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPosts_LikedByMe(t *testing.T) {
	f := newPostFixture(openBoard())
	p1, err := f.svc.CreatePost(context.Background(), "user-1", CreatePostRequest{BoardID: "board-open", Title: "one", Content: "c"}, nil)
	require.NoError(t, err)
	_, err = f.svc.CreatePost(context.Background(), "user-1", CreatePostRequest{BoardID: "board-open", Title: "two", Content: "c"}, nil)
	require.NoError(t, err)

	_, _, err = f.likes.Toggle(model.TargetTypePost, p1.ID, "user-2")
	require.NoError(t, err)

	posts, total, err := f.svc.ListPosts(ListPostsRequest{BoardID: "board-open"}, "user-2", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, p := range posts {
		assert.Equal(t, p.ID == p1.ID, p.LikedByMe, p.Title)
	}
}

func TestReport(t *testing.T) {
	f := newPostFixture(openBoard())
	post, err := f.svc.CreatePost(context.Background(), "user-1", CreatePostRequest{BoardID: "board-open", Title: "t", Content: "c"}, nil)
	require.NoError(t, err)

	req := ReportRequest{TargetType: model.TargetTypePost, TargetID: post.ID, Category: "spam"}
	_, err = f.svc.Report("user-2", req)
	require.NoError(t, err)

	_, err = f.svc.Report("user-2", req)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.svc.Report("user-2", ReportRequest{TargetType: model.TargetTypePost, TargetID: post.ID, Category: "boring"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Report("user-2", ReportRequest{TargetType: model.TargetTypePostComment, TargetID: "comment-missing", Category: "spam"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBoard(t *testing.T) {
	f := newPostFixture()

	board, err := f.svc.CreateBoard(CreateBoardRequest{Name: "  promotion ", SupportsHashtags: true, SupportsComments: true})
	require.NoError(t, err)
	assert.Equal(t, "promotion", board.Name)
	assert.NoError(t, board.Require(model.CapabilityHashtags))
	assert.ErrorIs(t, board.Require(model.CapabilityPostPhotos), ErrCapability)

	_, err = f.svc.CreateBoard(CreateBoardRequest{Name: "   "})
	assert.ErrorIs(t, err, ErrValidation)
}
