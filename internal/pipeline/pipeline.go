// Package pipeline shapes fetched content into the data each Blogster view
// displays.
//
// Every view is two steps: fetch, then shape. Fetch failures are returned
// untouched so they reach the page boundary, which renders the generic error
// page. Nothing is rendered from a partial fetch.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"impractical.co/blogster/internal/content"
)

const (
	// ListSize is how many posts the list view shows, and how many post
	// ids are pre-enumerated for pre-rendering.
	ListSize = 10

	// ExcerptRunes is the longest excerpt the list view shows before
	// truncating.
	ExcerptRunes = 150

	// DescriptionRunes is the length of a detail page's meta
	// description.
	DescriptionRunes = 160

	// ProfileAuthorID is the user shown on the about page.
	ProfileAuthorID = 1
)

// Source is where the pipeline reads content from. *content.Client
// implements it.
type Source interface {
	Posts(ctx context.Context) ([]content.Post, error)
	Post(ctx context.Context, id string) (content.Post, error)
	User(ctx context.Context, id int) (content.User, error)
}

// Summary is one entry of the list view.
type Summary struct {
	ID       int
	Title    string
	Excerpt  string
	AuthorID int
	Href     string
}

// ListView is the data for the blog listing.
type ListView struct {
	Summaries []Summary
}

// LoadList fetches the collection and shapes the first ListSize posts.
func LoadList(ctx context.Context, src Source) (ListView, error) {
	posts, err := src.Posts(ctx)
	if err != nil {
		return ListView{}, fmt.Errorf("loading post list: %w", err)
	}
	return ShapeList(posts), nil
}

// ShapeList turns a post collection into the list view. It is a pure
// function of its input.
func ShapeList(posts []content.Post) ListView {
	posts = posts[:min(len(posts), ListSize)]
	view := ListView{Summaries: make([]Summary, 0, len(posts))}
	for _, post := range posts {
		view.Summaries = append(view.Summaries, Summary{
			ID:       post.ID,
			Title:    post.Title,
			Excerpt:  Truncate(post.Body, ExcerptRunes),
			AuthorID: post.UserID,
			Href:     PostHref(post.ID),
		})
	}
	return view
}

// DetailView is the data for a single post's page.
type DetailView struct {
	Post        content.Post
	Author      content.Author
	BackHref    string
	Description string
}

// FetchPost is the first stage of the detail view.
func FetchPost(ctx context.Context, src Source, id string) (content.Post, error) {
	post, err := src.Post(ctx, id)
	if err != nil {
		return content.Post{}, fmt.Errorf("loading post %q: %w", id, err)
	}
	return post, nil
}

// FetchAuthor is the second stage of the detail view. It resolves the author
// the post refers to, so it can only run once the post is known.
func FetchAuthor(ctx context.Context, src Source, post content.Post) (content.Author, error) {
	author, err := src.User(ctx, post.UserID)
	if err != nil {
		return content.Author{}, fmt.Errorf("loading author %d of post %d: %w", post.UserID, post.ID, err)
	}
	return author, nil
}

// LoadDetail runs FetchPost then FetchAuthor and shapes the result.
func LoadDetail(ctx context.Context, src Source, id string) (DetailView, error) {
	post, err := FetchPost(ctx, src, id)
	if err != nil {
		return DetailView{}, err
	}
	author, err := FetchAuthor(ctx, src, post)
	if err != nil {
		return DetailView{}, err
	}
	return ShapeDetail(post, author), nil
}

// ShapeDetail builds the detail view from a post and its author.
func ShapeDetail(post content.Post, author content.Author) DetailView {
	return DetailView{
		Post:        post,
		Author:      author,
		BackHref:    "/blog",
		Description: prefix(post.Body, DescriptionRunes),
	}
}

// StaticPostIDs fetches the collection and returns the ids of the first
// ListSize posts, in collection order. It is used to pre-render detail pages
// and is independent of any single request.
func StaticPostIDs(ctx context.Context, src Source) ([]string, error) {
	posts, err := src.Posts(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerating posts: %w", err)
	}
	posts = posts[:min(len(posts), ListSize)]
	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, strconv.Itoa(post.ID))
	}
	return ids, nil
}

// ProfileView is the data for the about page.
type ProfileView struct {
	Author content.Author
}

// WebsiteURL is "https://" followed by the author's website field, exactly
// as stored. The field is not validated.
func (p ProfileView) WebsiteURL() string {
	return "https://" + p.Author.Website
}

// LoadProfile fetches the fixed profile author.
func LoadProfile(ctx context.Context, src Source) (ProfileView, error) {
	author, err := src.User(ctx, ProfileAuthorID)
	if err != nil {
		return ProfileView{}, fmt.Errorf("loading profile: %w", err)
	}
	return ProfileView{Author: author}, nil
}

// PostHref is the site path of a post's detail page.
func PostHref(id int) string {
	return "/blog/" + strconv.Itoa(id)
}

// Truncate shortens s to at most n runes, replacing the cut with an
// ellipsis. Strings that fit are returned unchanged.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimRight(prefix(s, n-1), " \n") + "…"
}

func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
