package api

// User is an account as returned by the API.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Topic is a post category.
type Topic struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PostActions is the per-viewer interaction state of a post.
type PostActions struct {
	Votes       int  `json:"votes"`
	Comments    int  `json:"comments"`
	IsUpvoted   bool `json:"isUpvoted"`
	IsDownvoted bool `json:"isDownvoted"`
	IsSaved     bool `json:"isSaved"`
}

// Post is a feed entry.
type Post struct {
	ID        string      `json:"id"`
	User      User        `json:"user"`
	Content   string      `json:"content"`
	Image     *string     `json:"image,omitempty"`
	Topics    []Topic     `json:"topics"`
	CreatedAt string      `json:"createdAt"`
	UpdatedAt string      `json:"updatedAt"`
	Actions   PostActions `json:"actions"`
}

// Comment is a reply to a post.
type Comment struct {
	ID        string  `json:"id"`
	User      User    `json:"user"`
	PostID    string  `json:"postId"`
	Content   string  `json:"content"`
	Image     *string `json:"image,omitempty"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// Token is a JWT access/refresh pair.
type Token struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Credentials authenticate an existing account.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration creates a new account.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Upload is a file attached to a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// NewPost is the input of CreatePost.
type NewPost struct {
	UserID  string
	Content string
	// Topics holds topic IDs.
	Topics []string
	Image  *Upload
}

// NewComment is the input of CreateComment.
type NewComment struct {
	PostID  string
	Content string
	Image   *Upload
}
