package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yatube/internal/config"
	"yatube/internal/logger"
	"yatube/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(config.Database{Path: MemoryDatabase}, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func createUser(t *testing.T, st *Store, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func createGroup(t *testing.T, st *Store, slug string) *models.Group {
	t.Helper()
	g := &models.Group{Title: "Group " + slug, Slug: slug, Description: "about " + slug}
	require.NoError(t, st.CreateGroup(context.Background(), g))
	return g
}

func createPost(t *testing.T, st *Store, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, st.CreatePost(context.Background(), p))
	return p
}

func TestCreateUserDuplicate(t *testing.T) {
	st := setupTestStore(t)
	createUser(t, st, "alice")

	err := st.CreateUser(context.Background(), &models.User{Username: "alice", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserLookups(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")

	byName, err := st.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	_, err = st.UserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.SetStaff(ctx, "alice", true))
	byID, err := st.UserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, byID.IsStaff)

	assert.ErrorIs(t, st.SetStaff(ctx, "nobody", true), ErrNotFound)
}

func TestGroupPostScenario(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	tech := createGroup(t, st, "tech")
	post := createPost(t, st, alice, tech, "hello")

	inGroup, err := st.ListPosts(ctx, PostFilter{GroupID: tech.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, inGroup, 1)
	assert.Equal(t, "hello", inGroup[0].Text)
	assert.Equal(t, "alice", inGroup[0].Author.Username)
	require.NotNil(t, inGroup[0].Group)
	assert.Equal(t, "tech", inGroup[0].Group.Slug)

	byAuthor, err := st.ListPosts(ctx, PostFilter{AuthorID: alice.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, post.ID, byAuthor[0].ID)

	require.NoError(t, st.DeleteGroup(ctx, "tech"))

	reloaded, err := st.PostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.GroupID)
	assert.Nil(t, reloaded.Group)
	assert.Equal(t, "hello", reloaded.Text)
}

func TestDeleteAuthorCascades(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")
	alicePost := createPost(t, st, alice, nil, "by alice")
	bobPost := createPost(t, st, bob, nil, "by bob")

	require.NoError(t, st.CreateComment(ctx, &models.Comment{Text: "hi", PostID: bobPost.ID, AuthorID: alice.ID}))
	require.NoError(t, st.CreateComment(ctx, &models.Comment{Text: "own", PostID: alicePost.ID, AuthorID: bob.ID}))
	_, err := st.Follow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	require.NoError(t, st.DeleteUser(ctx, alice.ID))

	_, err = st.PostByID(ctx, alicePost.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := st.ListPosts(ctx, PostFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, bobPost.ID, all[0].ID)

	n, err := st.CountComments(ctx, bobPost.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "comments by a deleted author are removed")

	following, err := st.IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, following)

	assert.ErrorIs(t, st.DeleteUser(ctx, alice.ID), ErrNotFound)
}

func TestDeletePostCascadesComments(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	post := createPost(t, st, alice, nil, "text")
	require.NoError(t, st.CreateComment(ctx, &models.Comment{Text: "c", PostID: post.ID, AuthorID: alice.ID}))

	require.NoError(t, st.DeletePost(ctx, post.ID))

	n, err := st.CountComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.ErrorIs(t, st.DeletePost(ctx, post.ID), ErrNotFound)
}

func TestUpdatePost(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	first := createGroup(t, st, "first")
	second := createGroup(t, st, "second")
	post := createPost(t, st, alice, first, "old")

	post.Text = "new"
	post.GroupID = &second.ID
	post.Image = "posts/a.png"
	require.NoError(t, st.UpdatePost(ctx, post))

	got, err := st.PostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Text)
	assert.Equal(t, "second", got.Group.Slug)
	assert.Equal(t, "posts/a.png", got.Image)

	got.GroupID = nil
	require.NoError(t, st.UpdatePost(ctx, got))
	got, err = st.PostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Group)

	assert.ErrorIs(t, st.UpdatePost(ctx, &models.Post{ID: 999, Text: "x", AuthorID: alice.ID}), ErrNotFound)
}

func TestListPostsNewestFirstAndWindow(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	for i := 0; i < 13; i++ {
		createPost(t, st, alice, nil, fmt.Sprintf("post %d", i))
	}

	total, err := st.CountPosts(ctx, PostFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 13, total)

	first, err := st.ListPosts(ctx, PostFilter{}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, first, 10)
	assert.Equal(t, "post 12", first[0].Text)

	second, err := st.ListPosts(ctx, PostFilter{}, 10, 10)
	require.NoError(t, err)
	assert.Len(t, second, 3)
	assert.Equal(t, "post 0", second[2].Text)
}

func TestFollowIdempotentAndNoSelfFollow(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")

	created, err := st.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = st.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, created, "second follow is a no-op")

	created, err = st.Follow(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, created)
	self, err := st.IsFollowing(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, self)

	removed, err := st.Unfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = st.Unfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFeedComposition(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")
	carol := createUser(t, st, "carol")

	_, err := st.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	createPost(t, st, bob, nil, "from bob")
	createPost(t, st, carol, nil, "from carol")

	feed, err := st.ListPosts(ctx, PostFilter{FollowerID: alice.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "from bob", feed[0].Text)

	_, err = st.Unfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	feed, err = st.ListPosts(ctx, PostFilter{FollowerID: alice.ID}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestCommentsOldestFirst(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	post := createPost(t, st, alice, nil, "text")
	for _, text := range []string{"first", "second", "third"} {
		require.NoError(t, st.CreateComment(ctx, &models.Comment{Text: text, PostID: post.ID, AuthorID: alice.ID}))
	}

	comments, err := st.CommentsForPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, "third", comments[2].Text)
	assert.Equal(t, "alice", comments[0].Author.Username)
}

func TestListGroupsNewestFirst(t *testing.T) {
	st := setupTestStore(t)
	createGroup(t, st, "old")
	createGroup(t, st, "new")

	groups, err := st.ListGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "new", groups[0].Slug)
	assert.NoError(t, st.Ping(context.Background()))
}
