package service

import (
	"context"
	"testing"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/repository"
	"github.com/sdp-tech/SASM-BE-sub000/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeForestRepo struct {
	forests    map[string]*model.Forest
	categories map[string]*model.Category
	semis      map[string]model.SemiCategory
}

func newFakeForestRepo() *fakeForestRepo {
	r := &fakeForestRepo{
		forests:    map[string]*model.Forest{},
		categories: map[string]*model.Category{},
		semis:      map[string]model.SemiCategory{},
	}
	for _, c := range []*model.Category{{ID: "cat-eco", Name: "eco"}, {ID: "cat-art", Name: "art"}} {
		r.categories[c.ID] = c
	}
	for _, s := range []model.SemiCategory{
		{ID: "semi-vegan", CategoryID: "cat-eco", Name: "vegan"},
		{ID: "semi-zero", CategoryID: "cat-eco", Name: "zero waste"},
		{ID: "semi-gallery", CategoryID: "cat-art", Name: "gallery"},
	} {
		r.semis[s.ID] = s
	}
	return r
}

func (r *fakeForestRepo) Create(f *model.Forest, hashtags []string, photos []model.ForestPhoto) error {
	if f.ID == "" {
		f.ID = ids.next("forest")
	}
	for _, h := range hashtags {
		f.Hashtags = append(f.Hashtags, model.ForestHashtag{ForestID: f.ID, Name: h})
	}
	f.Photos = photos
	cp := *f
	r.forests[f.ID] = &cp
	return nil
}

func (r *fakeForestRepo) FindByID(id string) (*model.Forest, error) {
	f, ok := r.forests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeForestRepo) Update(f *model.Forest, upd repository.ForestUpdate) ([]model.ForestPhoto, error) {
	stored, ok := r.forests[f.ID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	stored.Title = f.Title
	stored.Subtitle = f.Subtitle
	stored.Content = f.Content
	stored.Preview = f.Preview
	stored.CategoryID = f.CategoryID
	if upd.ReplaceSemis {
		stored.SemiCategories = upd.SemiCategories
	}
	if upd.ReplaceHashtags {
		stored.Hashtags = nil
		for _, h := range upd.Hashtags {
			stored.Hashtags = append(stored.Hashtags, model.ForestHashtag{ForestID: f.ID, Name: h})
		}
	}
	var removed []model.ForestPhoto
	if upd.ReplacePhotos {
		removed = stored.Photos
		stored.Photos = upd.Photos
	}
	return removed, nil
}

func (r *fakeForestRepo) Delete(id string) ([]string, error) {
	f, ok := r.forests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	var keys []string
	for _, p := range f.Photos {
		keys = append(keys, p.Key)
	}
	delete(r.forests, id)
	return keys, nil
}

func (r *fakeForestRepo) List(filter repository.ForestFilter, limit, offset int) ([]*model.Forest, int64, error) {
	var out []*model.Forest
	for _, f := range r.forests {
		if filter.CategoryID != "" && (f.CategoryID == nil || *f.CategoryID != filter.CategoryID) {
			continue
		}
		cp := *f
		out = append(out, &cp)
	}
	return page(out, limit, offset), int64(len(out)), nil
}

func (r *fakeForestRepo) IncrementViewCount(id string) error {
	f, ok := r.forests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.ViewCount++
	return nil
}

func (r *fakeForestRepo) FindCategory(id string) (*model.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *fakeForestRepo) ListCategories() ([]*model.Category, error) {
	out := make([]*model.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeForestRepo) FindSemiCategories(ids []string) ([]model.SemiCategory, error) {
	var out []model.SemiCategory
	for _, id := range ids {
		if s, ok := r.semis[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeForestRepo) ListSemiCategories(categoryID string) ([]*model.SemiCategory, error) {
	var out []*model.SemiCategory
	for _, s := range r.semis {
		if s.CategoryID == categoryID {
			cp := s
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeForestCommentRepo struct {
	comments map[string]*model.ForestComment
}

func (r *fakeForestCommentRepo) Create(c *model.ForestComment) error {
	if r.comments == nil {
		r.comments = map[string]*model.ForestComment{}
	}
	if c.ID == "" {
		c.ID = ids.next("fcomment")
	}
	cp := *c
	r.comments[c.ID] = &cp
	return nil
}

func (r *fakeForestCommentRepo) FindByID(id string) (*model.ForestComment, error) {
	c, ok := r.comments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeForestCommentRepo) Update(c *model.ForestComment) error {
	stored, ok := r.comments[c.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Content = c.Content
	return nil
}

func (r *fakeForestCommentRepo) Delete(id string) error {
	if _, ok := r.comments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.comments, id)
	return nil
}

func (r *fakeForestCommentRepo) ListByForest(forestID string, limit, offset int) ([]*model.ForestComment, int64, error) {
	var out []*model.ForestComment
	for _, c := range r.comments {
		if c.ForestID == forestID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return page(out, limit, offset), int64(len(out)), nil
}

func newForestFixture() (ForestService, *fakeForestRepo, *fakeLikeRepo, *storage.MemoryStore) {
	forests := newFakeForestRepo()
	likes := newFakeLikeRepo()
	blobs := storage.NewMemoryStore()
	return NewForestService(forests, &fakeForestCommentRepo{}, likes, blobs), forests, likes, blobs
}

func TestCreateForest_Content(t *testing.T) {
	svc, _, _, _ := newForestFixture()
	ctx := context.Background()

	_, err := svc.CreateForest(ctx, "user-1", CreateForestRequest{
		Title: "t", Content: "<script>alert(1)</script>", CategoryID: "cat-eco",
	}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	forest, err := svc.CreateForest(ctx, "user-1", CreateForestRequest{
		Title:         " Going vegan in Seoul ",
		Content:       "# Start\n\nFind a **market**.",
		ContentFormat: "markdown",
		CategoryID:    "cat-eco",
		Hashtags:      []string{"vegan"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Going vegan in Seoul", forest.Title)
	assert.Contains(t, forest.Content, "<strong>market</strong>")
	assert.Equal(t, "Start Find a market.", forest.Preview)
	assert.Len(t, forest.Hashtags, 1)
}

func TestCreateForest_SemiCategories(t *testing.T) {
	svc, _, _, _ := newForestFixture()
	ctx := context.Background()

	cases := []struct {
		name     string
		category string
		semis    []string
		want     error
	}{
		{"unknown category", "cat-none", nil, ErrNotFound},
		{"unknown semi", "cat-eco", []string{"semi-none"}, ErrNotFound},
		{"semi from other category", "cat-eco", []string{"semi-gallery"}, ErrValidation},
		{"matching semis", "cat-eco", []string{"semi-vegan", "semi-zero", "semi-vegan"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			forest, err := svc.CreateForest(ctx, "user-1", CreateForestRequest{
				Title: "t", Content: "<p>c</p>", CategoryID: tc.category, SemiCategoryIDs: tc.semis,
			}, nil)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
				return
			}
			require.NoError(t, err)
			assert.Len(t, forest.SemiCategories, 2)
		})
	}
}

func TestGetForest_CountsEveryRead(t *testing.T) {
	svc, _, likes, _ := newForestFixture()
	forest, err := svc.CreateForest(context.Background(), "user-1", CreateForestRequest{Title: "t", Content: "<p>c</p>", CategoryID: "cat-eco"}, nil)
	require.NoError(t, err)

	_, _, err = likes.Toggle(model.TargetTypeForest, forest.ID, "user-2")
	require.NoError(t, err)

	first, err := svc.GetForest(forest.ID, "user-2")
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.ViewCount)
	assert.True(t, first.LikedByMe)

	second, err := svc.GetForest(forest.ID, "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, second.ViewCount)
	assert.False(t, second.LikedByMe)
}

func TestUpdateForest_CategoryChangeDropsSemis(t *testing.T) {
	svc, forests, _, blobs := newForestFixture()
	ctx := context.Background()

	forest, err := svc.CreateForest(ctx, "user-1", CreateForestRequest{
		Title: "t", Content: "<p>c</p>", CategoryID: "cat-eco", SemiCategoryIDs: []string{"semi-vegan"},
	}, []storage.Upload{{Filename: "f.webp", Data: []byte("f")}})
	require.NoError(t, err)
	require.Len(t, forest.Photos, 1)

	_, err = svc.UpdateForest(ctx, "user-2", forest.ID, UpdateForestRequest{}, nil)
	assert.ErrorIs(t, err, ErrAuthorization)

	updated, err := svc.UpdateForest(ctx, "user-1", forest.ID, UpdateForestRequest{
		CategoryID:    strPtr("cat-art"),
		ReplacePhotos: true,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.CategoryID)
	assert.Equal(t, "cat-art", *updated.CategoryID)
	assert.Empty(t, forests.forests[forest.ID].SemiCategories)
	assert.Empty(t, updated.Photos)
	assert.Equal(t, 0, blobs.Len())

	_, err = svc.UpdateForest(ctx, "user-1", forest.ID, UpdateForestRequest{
		SemiCategoryIDs: &[]string{"semi-vegan"},
	}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.DeleteForest("user-1", forest.ID))
	_, err = svc.GetForest(forest.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestForestComments(t *testing.T) {
	svc, _, likes, _ := newForestFixture()
	forest, err := svc.CreateForest(context.Background(), "user-1", CreateForestRequest{Title: "t", Content: "<p>c</p>", CategoryID: "cat-eco"}, nil)
	require.NoError(t, err)

	_, err = svc.CreateComment("user-2", forest.ID, " ")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateComment("user-2", "forest-missing", "hi")
	assert.ErrorIs(t, err, ErrNotFound)

	c, err := svc.CreateComment("user-2", forest.ID, " great read ")
	require.NoError(t, err)
	assert.Equal(t, "great read", c.Content)

	_, _, err = likes.Toggle(model.TargetTypeForestComment, c.ID, "user-1")
	require.NoError(t, err)
	list, total, err := svc.ListComments(forest.ID, "user-1", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.True(t, list[0].LikedByMe)

	_, err = svc.UpdateComment("user-1", c.ID, "mine now")
	assert.ErrorIs(t, err, ErrAuthorization)
	edited, err := svc.UpdateComment("user-2", c.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Content)

	assert.ErrorIs(t, svc.DeleteComment("user-1", c.ID), ErrAuthorization)
	require.NoError(t, svc.DeleteComment("user-2", c.ID))
}
