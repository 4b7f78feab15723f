package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impractical.co/blogster/internal/content"
)

type stubSource struct {
	posts     []content.Post
	users     map[int]content.User
	postsErr  error
	userCalls []int
	postCalls []string
}

func (s *stubSource) Posts(_ context.Context) ([]content.Post, error) {
	if s.postsErr != nil {
		return nil, s.postsErr
	}
	return s.posts, nil
}

func (s *stubSource) Post(_ context.Context, id string) (content.Post, error) {
	s.postCalls = append(s.postCalls, id)
	for _, post := range s.posts {
		if strconv.Itoa(post.ID) == id {
			return post, nil
		}
	}
	return content.Post{}, &content.FetchFailure{Resource: "/posts/" + id, StatusCode: 404}
}

func (s *stubSource) User(_ context.Context, id int) (content.User, error) {
	s.userCalls = append(s.userCalls, id)
	user, ok := s.users[id]
	if !ok {
		return content.User{}, &content.FetchFailure{Resource: fmt.Sprintf("/users/%d", id), StatusCode: 404}
	}
	return user, nil
}

func makePosts(n int) []content.Post {
	posts := make([]content.Post, 0, n)
	for i := 1; i <= n; i++ {
		posts = append(posts, content.Post{
			ID:     i,
			Title:  fmt.Sprintf("post %d", i),
			Body:   fmt.Sprintf("body of post %d", i),
			UserID: (i-1)/10 + 1,
		})
	}
	return posts
}

func TestLoadListTakesFirstTen(t *testing.T) {
	t.Parallel()

	src := &stubSource{posts: makePosts(100)}
	view, err := LoadList(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, view.Summaries, ListSize)
	for i, summary := range view.Summaries {
		assert.Equal(t, i+1, summary.ID)
		assert.Equal(t, PostHref(i+1), summary.Href)
		assert.Equal(t, 1, summary.AuthorID)
	}
}

func TestLoadListShortCollection(t *testing.T) {
	t.Parallel()

	view, err := LoadList(context.Background(), &stubSource{posts: makePosts(3)})
	require.NoError(t, err)
	assert.Len(t, view.Summaries, 3)
}

func TestLoadListIsIdempotent(t *testing.T) {
	t.Parallel()

	posts := makePosts(20)
	posts[0].Body = strings.Repeat("long body ", 40)
	src := &stubSource{posts: posts}

	first, err := LoadList(context.Background(), src)
	require.NoError(t, err)
	second, err := LoadList(context.Background(), src)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("list view changed between loads (-first +second):\n%s", diff)
	}
}

func TestLoadListPropagatesFetchFailure(t *testing.T) {
	t.Parallel()

	src := &stubSource{postsErr: &content.FetchFailure{Resource: "/posts", StatusCode: 500}}
	_, err := LoadList(context.Background(), src)
	assert.ErrorIs(t, err, content.ErrFetchFailure)
}

func TestLoadDetailResolvesAuthorFromPost(t *testing.T) {
	t.Parallel()

	src := &stubSource{
		posts: makePosts(30),
		users: map[int]content.User{3: {ID: 3, Name: "Clementine Bauch", Email: "Nathan@yesenia.net"}},
	}
	view, err := LoadDetail(context.Background(), src, "25")
	require.NoError(t, err)

	assert.Equal(t, []string{"25"}, src.postCalls)
	assert.Equal(t, []int{3}, src.userCalls, "author fetch must be keyed by the post's userId")
	assert.Equal(t, "Clementine Bauch", view.Author.Name)
	assert.Equal(t, "/blog", view.BackHref)
	assert.Equal(t, "body of post 25", view.Description)
}

func TestFetchAuthorUsesPostUserID(t *testing.T) {
	t.Parallel()

	src := &stubSource{users: map[int]content.User{7: {ID: 7, Name: "Kurtis Weissnat"}}}
	author, err := FetchAuthor(context.Background(), src, content.Post{ID: 61, UserID: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, author.ID)
	assert.Equal(t, []int{7}, src.userCalls)
}

func TestLoadDetailUnknownPostSkipsAuthor(t *testing.T) {
	t.Parallel()

	src := &stubSource{posts: makePosts(10)}
	_, err := LoadDetail(context.Background(), src, "9999")

	var failure *content.FetchFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 404, failure.StatusCode)
	assert.Empty(t, src.userCalls)
}

func TestLoadDetailMissingAuthorIsGenericFailure(t *testing.T) {
	t.Parallel()

	src := &stubSource{posts: makePosts(10)}
	_, err := LoadDetail(context.Background(), src, "1")
	assert.ErrorIs(t, err, content.ErrFetchFailure)
}

func TestStaticPostIDs(t *testing.T) {
	t.Parallel()

	ids, err := StaticPostIDs(context.Background(), &stubSource{posts: makePosts(100)})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}, ids)
}

func TestStaticPostIDsResolveThroughDetail(t *testing.T) {
	t.Parallel()

	src := &stubSource{
		posts: makePosts(100),
		users: map[int]content.User{1: {ID: 1, Name: "Leanne Graham"}},
	}
	ids, err := StaticPostIDs(context.Background(), src)
	require.NoError(t, err)
	for _, id := range ids {
		_, err := LoadDetail(context.Background(), src, id)
		assert.NoError(t, err, id)
	}
}

func TestStaticPostIDsFailure(t *testing.T) {
	t.Parallel()

	_, err := StaticPostIDs(context.Background(), &stubSource{postsErr: errors.New("down")})
	assert.Error(t, err)
}

func TestLoadProfile(t *testing.T) {
	t.Parallel()

	src := &stubSource{users: map[int]content.User{1: {ID: 1, Website: "hildegard.org"}}}
	view, err := LoadProfile(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []int{ProfileAuthorID}, src.userCalls)
	assert.Equal(t, "https://hildegard.org", view.WebsiteURL())
}

func TestWebsiteURLIsVerbatim(t *testing.T) {
	t.Parallel()

	for _, website := range []string{"hildegard.org", "", "http://already.example", " spaced.example/path?q=1"} {
		view := ProfileView{Author: content.Author{Website: website}}
		assert.Equal(t, "https://"+website, view.WebsiteURL())
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exactly10!", Truncate("exactly10!", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefghij", 5))
	assert.Equal(t, "ab…", Truncate("ab  cdefgh", 4))
	assert.Equal(t, "héll…", Truncate("héllo wörld", 5))
}
