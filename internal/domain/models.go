package domain

import (
	"bytes"
	"encoding/json"
)

// Domain contains the forum resource payloads exchanged with the backend.

// Post is a forum thread as returned by the post endpoints.
type Post struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Author        *User     `json:"author,omitempty"`
	Category      string    `json:"category,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	Upvotes       int       `json:"upvotes"`
	Replies       int       `json:"replies"`
	CreatedAt     Timestamp `json:"created_at"`
	LastRepliedAt Timestamp `json:"last_replied_at"`
}

// PostInput is the body for create, replace and partial update calls.
type PostInput struct {
	Title    string   `json:"title,omitempty"`
	Content  string   `json:"content,omitempty"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// PostList is the paginated envelope of the post listing.
type PostList struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []Post `json:"results"`
}

// UnmarshalJSON accepts both the paginated envelope and a bare array of posts.
func (l *PostList) UnmarshalJSON(data []byte) error {
	if IsJSONArray(data) {
		var posts []Post
		if err := json.Unmarshal(data, &posts); err != nil {
			return err
		}
		*l = PostList{Count: len(posts), Results: posts}
		return nil
	}

	type envelope PostList
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*l = PostList(env)
	return nil
}

type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email,omitempty"`
	Avatar     string    `json:"avatar,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	DateJoined Timestamp `json:"date_joined"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Bio    string `json:"bio,omitempty"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Topic is a landing page discussion entry.
type Topic struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Slug        string      `json:"slug"`
	Category    CategoryRef `json:"category"`
	PostsCount  int         `json:"postsCount"`
	LatestPost  *LatestPost `json:"latestPost,omitempty"`
}

// CategoryRef is the short category form embedded in a topic.
type CategoryRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// LatestPost previews the newest reply of a topic. TimeAgo is preformatted by the backend.
type LatestPost struct {
	Author  *User  `json:"author,omitempty"`
	TimeAgo string `json:"timeAgo"`
	Excerpt string `json:"excerpt"`
}

type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Slug  string `json:"slug,omitempty"`
}

type Category struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Topics int    `json:"topics"`
	Icon   string `json:"icon,omitempty"`
}

// IsJSONArray reports whether the first non-space byte of data opens an array.
func IsJSONArray(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
