// Package forms validates user input before it is sent to the API.
//
// Each validator collects every failing rule into an *Errors keyed by field
// name, so callers can report all problems at once.
package forms

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/hupe1980/loop/internal/api"
)

// Limits.
const (
	MaxContentLength = 500
	MinTopics        = 1
	MaxTopics        = 3
	MaxImageSize     = 5 * 1024 * 1024
	MinUsername      = 3
	MinPassword      = 8
)

// Messages reported to the user.
const (
	MsgContentRequired = "Content is required"
	MsgContentTooLong  = "You have exceeded the maximum character limit"
	MsgTopicsRequired  = "Select at least one topic"
	MsgTooManyTopics   = "Maximum 3 topics allowed"
	MsgImageTooLarge   = "Max file size is 5MB"
	MsgImageType       = "Only .jpg, .jpeg, .png and .webp shapes are supported"
	MsgUsername        = "Invalid username."
	MsgPassword        = "Invalid password."
	MsgEmail           = "Invalid email."
)

// AcceptedImageTypes lists the MIME types allowed for uploads.
var AcceptedImageTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// Errors maps a field name to its failed rules.
type Errors struct {
	Fields map[string][]string
}

func (e *Errors) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}

	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Get(f)))
	}

	return "invalid input: " + strings.Join(parts, "; ")
}

// Get returns the messages for field joined with ", ", or "".
func (e *Errors) Get(field string) string {
	return strings.Join(e.Fields[field], ", ")
}

// Has reports whether field failed validation.
func (e *Errors) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

func (e *Errors) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}

	e.Fields[field] = append(e.Fields[field], msg)
}

// err returns e as an error, or nil when nothing failed.
func (e *Errors) err() error {
	if len(e.Fields) == 0 {
		return nil
	}

	return e
}

// PostInput is a post about to be published.
type PostInput struct {
	Content string
	Topics  []string
	Image   *api.Upload
}

// CommentInput is a comment about to be published.
type CommentInput struct {
	Content string
	Image   *api.Upload
}

// ValidatePost checks content, topic count, and the optional image.
func ValidatePost(in PostInput) error {
	errs := &Errors{}

	checkContent(errs, in.Content)

	switch {
	case len(in.Topics) < MinTopics:
		errs.add("topics", MsgTopicsRequired)
	case len(in.Topics) > MaxTopics:
		errs.add("topics", MsgTooManyTopics)
	}

	checkImage(errs, in.Image)

	return errs.err()
}

// ValidateComment checks content and the optional image.
func ValidateComment(in CommentInput) error {
	errs := &Errors{}

	checkContent(errs, in.Content)
	checkImage(errs, in.Image)

	return errs.err()
}

// ValidateLogin checks credential lengths.
func ValidateLogin(creds api.Credentials) error {
	errs := &Errors{}

	checkAccount(errs, creds.Username, creds.Password)

	return errs.err()
}

// ValidateSignup checks credential lengths and the email address.
func ValidateSignup(reg api.Registration) error {
	errs := &Errors{}

	checkAccount(errs, reg.Username, reg.Password)

	if !validEmail(reg.Email) {
		errs.add("email", MsgEmail)
	}

	return errs.err()
}

// checkContent counts characters on the NFC form so that composed and
// decomposed input measure the same.
func checkContent(errs *Errors, content string) {
	n := utf8.RuneCountInString(norm.NFC.String(content))

	switch {
	case n < 1:
		errs.add("content", MsgContentRequired)
	case n > MaxContentLength:
		errs.add("content", MsgContentTooLong)
	}
}

// checkImage reports every failing image rule; a nil image is valid.
func checkImage(errs *Errors, img *api.Upload) {
	if img == nil {
		return
	}

	size := img.Size
	if size == 0 {
		size = int64(len(img.Data))
	}

	if size > MaxImageSize {
		errs.add("image", MsgImageTooLarge)
	}

	if !AcceptedImageType(img.ContentType) {
		errs.add("image", MsgImageType)
	}
}

func checkAccount(errs *Errors, username, password string) {
	if utf8.RuneCountInString(username) < MinUsername {
		errs.add("username", MsgUsername)
	}

	if utf8.RuneCountInString(password) < MinPassword {
		errs.add("password", MsgPassword)
	}
}

// AcceptedImageType reports whether contentType may be uploaded.
func AcceptedImageType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	for _, accepted := range AcceptedImageTypes {
		if ct == accepted {
			return true
		}
	}

	return false
}

// validEmail accepts a bare address whose domain has at least one dot.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}

	at := strings.LastIndexByte(s, '@')
	domain := s[at+1:]

	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
