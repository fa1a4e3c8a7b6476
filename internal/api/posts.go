package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
)

// Posts lists the feed.
func (c *Client) Posts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.do(ctx, request{method: http.MethodGet, path: "/posts/"}, &posts); err != nil {
		return nil, err
	}

	return posts, nil
}

// CreatePost publishes a post as multipart form data.
func (c *Client) CreatePost(ctx context.Context, in NewPost) (*Post, error) {
	form := newMultipartForm()
	form.field("user_id", in.UserID)
	form.field("content", in.Content)

	for _, topic := range in.Topics {
		form.field("topics_ids", topic)
	}

	form.file("image", in.Image)

	body, contentType, err := form.close()
	if err != nil {
		return nil, err
	}

	var post Post
	if err := c.do(ctx, request{method: http.MethodPost, path: "/posts/", body: body, contentType: contentType}, &post); err != nil {
		return nil, err
	}

	return &post, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: postPath(id)}, nil)
}

// Topics lists the available topics.
func (c *Client) Topics(ctx context.Context) ([]Topic, error) {
	var topics []Topic
	if err := c.do(ctx, request{method: http.MethodGet, path: "/topics/"}, &topics); err != nil {
		return nil, err
	}

	return topics, nil
}

// UpvotePost toggles the viewer's upvote.
func (c *Client) UpvotePost(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodPost, path: postPath(id, "upvote")}, nil)
}

// DownvotePost toggles the viewer's downvote.
func (c *Client) DownvotePost(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodPost, path: postPath(id, "downvote")}, nil)
}

// SavePost bookmarks a post.
func (c *Client) SavePost(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodPost, path: postPath(id, "save")}, nil)
}

// UnsavePost removes a bookmark.
func (c *Client) UnsavePost(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: postPath(id, "save")}, nil)
}

// Comments lists the comments of a post.
func (c *Client) Comments(ctx context.Context, postID string) ([]Comment, error) {
	var comments []Comment
	if err := c.do(ctx, request{method: http.MethodGet, path: postPath(postID, "comments")}, &comments); err != nil {
		return nil, err
	}

	return comments, nil
}

// CreateComment replies to a post.
func (c *Client) CreateComment(ctx context.Context, in NewComment) (*Comment, error) {
	form := newMultipartForm()
	form.field("content", in.Content)
	form.file("image", in.Image)

	body, contentType, err := form.close()
	if err != nil {
		return nil, err
	}

	var comment Comment

	req := request{method: http.MethodPost, path: postPath(in.PostID, "comments"), body: body, contentType: contentType}
	if err := c.do(ctx, req, &comment); err != nil {
		return nil, err
	}

	return &comment, nil
}

// DeleteComment removes a comment from a post.
func (c *Client) DeleteComment(ctx context.Context, postID, commentID string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: postPath(postID, "comments", commentID)}, nil)
}

// postPath builds "/posts/<id>/<segments...>/" with escaped segments.
func postPath(id string, segments ...string) string {
	p := "/posts/" + url.PathEscape(id) + "/"
	for _, s := range segments {
		p += url.PathEscape(s) + "/"
	}

	return p
}

// multipartForm accumulates fields and remembers the first write error.
type multipartForm struct {
	buf *bytes.Buffer
	w   *multipart.Writer
	err error
}

func newMultipartForm() *multipartForm {
	buf := &bytes.Buffer{}

	return &multipartForm{buf: buf, w: multipart.NewWriter(buf)}
}

func (f *multipartForm) field(name, value string) {
	if f.err != nil {
		return
	}

	f.err = f.w.WriteField(name, value)
}

func (f *multipartForm) file(name string, up *Upload) {
	if f.err != nil || up == nil {
		return
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, up.Filename))

	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h.Set("Content-Type", contentType)

	part, err := f.w.CreatePart(h)
	if err != nil {
		f.err = err
		return
	}

	_, f.err = part.Write(up.Data)
}

func (f *multipartForm) close() (*bytes.Buffer, string, error) {
	if f.err != nil {
		return nil, "", fmt.Errorf("building multipart body: %w", f.err)
	}

	if err := f.w.Close(); err != nil {
		return nil, "", fmt.Errorf("building multipart body: %w", err)
	}

	return f.buf, f.w.FormDataContentType(), nil
}
