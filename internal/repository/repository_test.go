package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"devlink/internal/cache"
	"devlink/internal/database"
	"devlink/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var emailSeq int

// testUser persists a user with a unique email; the in-memory sqlite
// database is shared across tests in this package.
func testUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	emailSeq++
	user := &models.User{
		Name:     "Test User",
		Email:    fmt.Sprintf("user%d@example.com", emailSeq),
		Password: "hashed",
		Avatar:   "https://example.com/a.png",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.ConnectTest()
	require.NoError(t, err)
	return db
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	first := &models.User{Name: "A", Email: "Dup@Example.com", Password: "x"}
	require.NoError(t, repo.Create(ctx, first))
	// Emails are stored lowercased.
	assert.Equal(t, "dup@example.com", first.Email)

	second := &models.User{Name: "B", Email: "dup@example.com", Password: "y"}
	err := repo.Create(ctx, second)
	require.Error(t, err)

	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", appErr.Code)
	assert.Equal(t, "E-mail already in use.", appErr.Message)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	user := testUser(t, db)

	found, err := repo.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	// Unknown email is a nil result, not an error.
	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProfileRepository_CreateAndUpdate(t *testing.T) {
	db := testDB(t)
	repo := NewProfileRepository(db, nil)
	ctx := context.Background()

	user := testUser(t, db)

	profile := &models.Profile{
		UserID:   user.ID,
		Status:   "Developer",
		Skills:   []string{"js", "go"},
		Company:  "Acme",
		Location: "Remote",
	}
	require.NoError(t, repo.Create(ctx, profile))

	// A follow-up write touching other fields merges with the first: where
	// the field sets overlap the newer value wins, the rest is retained.
	loaded, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	loaded.Status = "Senior Developer"
	loaded.Website = "https://jo.dev"
	require.NoError(t, repo.Update(ctx, loaded))

	saved, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "Senior Developer", saved.Status)
	assert.Equal(t, "Acme", saved.Company)
	assert.Equal(t, "Remote", saved.Location)
	assert.Equal(t, "https://jo.dev", saved.Website)
	assert.Equal(t, []string{"js", "go"}, saved.Skills)
	// The owning user's public fields ride along.
	require.NotNil(t, saved.User)
	assert.Equal(t, user.Name, saved.User.Name)
}

func TestProfileRepository_GetByUserID_Missing(t *testing.T) {
	db := testDB(t)
	repo := NewProfileRepository(db, nil)

	profile, err := repo.GetByUserID(context.Background(), 999999)
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestProfileRepository_ExperienceLifecycle(t *testing.T) {
	db := testDB(t)
	repo := NewProfileRepository(db, nil)
	ctx := context.Background()

	user := testUser(t, db)
	profile := &models.Profile{UserID: user.ID, Status: "Developer", Skills: []string{"go"}}
	require.NoError(t, repo.Create(ctx, profile))

	entry := &models.Experience{
		Title:     "Engineer",
		Company:   "Acme",
		StartDate: time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.AddExperience(ctx, profile, entry))

	saved, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, saved.Experience, 1)

	// Removing an unknown sub-identifier fails and must not touch the list.
	err = repo.RemoveExperience(ctx, profile, entry.ID+100)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", appErr.Code)

	saved, err = repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, saved.Experience, 1)

	// Removing the real entry restores the prior length.
	require.NoError(t, repo.RemoveExperience(ctx, profile, entry.ID))
	saved, err = repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, saved.Experience)
}

func TestProfileRepository_EducationOrdering(t *testing.T) {
	db := testDB(t)
	repo := NewProfileRepository(db, nil)
	ctx := context.Background()

	user := testUser(t, db)
	profile := &models.Profile{UserID: user.ID, Status: "Student or Learning", Skills: []string{"go"}}
	require.NoError(t, repo.Create(ctx, profile))

	older := &models.Education{School: "First", Degree: "BSc", FieldOfStudy: "CS",
		StartDate: time.Date(2014, 9, 1, 0, 0, 0, 0, time.UTC)}
	newer := &models.Education{School: "Second", Degree: "MSc", FieldOfStudy: "CS",
		StartDate: time.Date(2018, 9, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.AddEducation(ctx, profile, older))
	require.NoError(t, repo.AddEducation(ctx, profile, newer))

	saved, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, saved.Education, 2)
	// Most recently added entry comes first.
	assert.Equal(t, "Second", saved.Education[0].School)
}

func TestProfileRepository_DeleteByUserID(t *testing.T) {
	db := testDB(t)
	repo := NewProfileRepository(db, nil)
	ctx := context.Background()

	user := testUser(t, db)
	profile := &models.Profile{UserID: user.ID, Status: "Developer", Skills: []string{"go"}}
	require.NoError(t, repo.Create(ctx, profile))
	require.NoError(t, repo.AddExperience(ctx, profile, &models.Experience{
		Title: "Engineer", Company: "Acme", StartDate: time.Now(),
	}))

	require.NoError(t, repo.DeleteByUserID(ctx, user.ID))

	gone, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	var orphans int64
	require.NoError(t, db.Model(&models.Experience{}).
		Where("profile_id = ?", profile.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestPostRepository_LikeUnlike(t *testing.T) {
	db := testDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testUser(t, db)
	liker := testUser(t, db)
	post := &models.Post{UserID: author.ID, Name: author.Name, Text: "hello"}
	require.NoError(t, repo.Create(ctx, post))

	require.NoError(t, repo.Like(ctx, post.ID, liker.ID))

	// A second like from the same user is rejected and the list stays at 1.
	err := repo.Like(ctx, post.ID, liker.ID)
	require.Error(t, err)
	assert.Equal(t, "Post already liked.", err.(*models.AppError).Message)

	likes, err := repo.Likes(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, likes, 1)

	require.NoError(t, repo.Unlike(ctx, post.ID, liker.ID))

	// Unliking a post never liked is rejected.
	err = repo.Unlike(ctx, post.ID, liker.ID)
	require.Error(t, err)
	assert.Equal(t, "Post has not yet been liked.", err.(*models.AppError).Message)
}

func TestPostRepository_ListNewestFirst(t *testing.T) {
	db := testDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testUser(t, db)
	first := &models.Post{UserID: author.ID, Name: author.Name, Text: "first-" + author.Email}
	require.NoError(t, repo.Create(ctx, first))
	second := &models.Post{UserID: author.ID, Name: author.Name, Text: "second-" + author.Email}
	require.NoError(t, repo.Create(ctx, second))

	posts, err := repo.List(ctx)
	require.NoError(t, err)

	var firstIdx, secondIdx int
	for i, p := range posts {
		switch p.ID {
		case first.ID:
			firstIdx = i
		case second.ID:
			secondIdx = i
		}
	}
	assert.Less(t, secondIdx, firstIdx)
}

func TestPostRepository_DeleteCascades(t *testing.T) {
	db := testDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testUser(t, db)
	commenter := testUser(t, db)
	post := &models.Post{UserID: author.ID, Name: author.Name, Text: "to delete"}
	require.NoError(t, repo.Create(ctx, post))

	require.NoError(t, repo.Like(ctx, post.ID, commenter.ID))
	require.NoError(t, repo.AddComment(ctx, &models.Comment{
		PostID: post.ID, UserID: commenter.ID, Name: commenter.Name, Text: "hi",
	}))

	require.NoError(t, repo.Delete(ctx, post.ID))

	gone, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	var likes, comments int64
	require.NoError(t, db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&likes).Error)
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&comments).Error)
	assert.Zero(t, likes)
	assert.Zero(t, comments)
}

func TestPostRepository_Comments(t *testing.T) {
	db := testDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testUser(t, db)
	post := &models.Post{UserID: author.ID, Name: author.Name, Text: "discuss"}
	require.NoError(t, repo.Create(ctx, post))

	c1 := &models.Comment{PostID: post.ID, UserID: author.ID, Name: author.Name, Text: "one"}
	c2 := &models.Comment{PostID: post.ID, UserID: author.ID, Name: author.Name, Text: "two"}
	require.NoError(t, repo.AddComment(ctx, c1))
	require.NoError(t, repo.AddComment(ctx, c2))

	comments, err := repo.Comments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	// Newest first.
	assert.Equal(t, "two", comments[0].Text)

	// Unknown comment id is a nil result.
	missing, err := repo.GetComment(ctx, post.ID, c2.ID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.RemoveComment(ctx, post.ID, c1.ID))
	comments, err = repo.Comments(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestUserRepository_GetByID_Missing(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db, nil)

	// Missing rows follow the same nil-result contract as GetByEmail.
	user, err := repo.GetByID(context.Background(), 999999)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestProfileRepository_CacheAsideAndInvalidation(t *testing.T) {
	db := testDB(t)
	mr := miniredis.RunT(t)
	c := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	repo := NewProfileRepository(db, c)
	ctx := context.Background()

	user := testUser(t, db)
	profile := &models.Profile{UserID: user.ID, Status: "Developer", Skills: []string{"go"}, Company: "Acme"}
	require.NoError(t, repo.Create(ctx, profile))

	// First read populates the cache.
	first, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, mr.Exists(cache.ProfileKey(user.ID)))

	// A write behind the repository's back is masked by the cached copy.
	require.NoError(t, db.Model(&models.Profile{}).Where("id = ?", profile.ID).
		Update("company", "Globex").Error)
	stale, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stale)
	assert.Equal(t, "Acme", stale.Company)

	// An entry mutation invalidates, so the next read is fresh and carries
	// the new entry list.
	require.NoError(t, repo.AddExperience(ctx, first, &models.Experience{
		Title: "Engineer", Company: "Globex", StartDate: time.Now(),
	}))
	assert.False(t, mr.Exists(cache.ProfileKey(user.ID)))

	fresh, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.Equal(t, "Globex", fresh.Company)
	assert.Len(t, fresh.Experience, 1)

	// Misses are not cached.
	none, err := repo.GetByUserID(ctx, user.ID+12345)
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.False(t, mr.Exists(cache.ProfileKey(user.ID+12345)))
}
