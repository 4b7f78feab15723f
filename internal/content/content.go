// Package content reads posts and users from the placeholder REST API that
// backs every Blogster page.
//
// The client is read-only: GET requests, no authentication, no request
// bodies. Each call makes exactly one attempt; there is no retry and no
// caching here. Caching is the render layer's business.
package content

import (
	"errors"
	"fmt"
	"strconv"
)

// DefaultBaseURL is the public API the site reads from.
const DefaultBaseURL = "https://jsonplaceholder.typicode.com"

// ErrFetchFailure matches every *FetchFailure with errors.Is.
var ErrFetchFailure = errors.New("fetch failure")

// Post is an article, owned by the external source.
type Post struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int    `json:"userId"`
}

// Address is the part of a user's postal address the site shows.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
}

// Company is the employer shown on a user's profile.
type Company struct {
	Name        string `json:"name"`
	CatchPhrase string `json:"catchPhrase"`
}

// User is a profile referenced by posts through Post.UserID.
type User struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Address  Address `json:"address"`
	Phone    string  `json:"phone"`
	Website  string  `json:"website"`
	Company  Company `json:"company"`
}

// Author is the User that wrote a Post.
type Author = User

// FetchFailure is returned when a request gets a non-2xx response, when its
// body can't be decoded, or when it never completes.
type FetchFailure struct {
	// Resource is the path that was requested, e.g. "/posts/3".
	Resource string

	// StatusCode is the HTTP status received, or 0 if no response
	// arrived.
	StatusCode int

	// Err is the underlying transport or decoding error, if any.
	Err error
}

func (f *FetchFailure) Error() string {
	switch {
	case f.Err != nil && f.StatusCode != 0:
		return fmt.Sprintf("fetch %s: status %d: %v", f.Resource, f.StatusCode, f.Err)
	case f.Err != nil:
		return fmt.Sprintf("fetch %s: %v", f.Resource, f.Err)
	default:
		return "fetch " + f.Resource + ": status " + strconv.Itoa(f.StatusCode)
	}
}

func (f *FetchFailure) Unwrap() error {
	return f.Err
}

func (f *FetchFailure) Is(target error) bool {
	return target == ErrFetchFailure
}
