package cms

import "time"

// User is the administrative identity. Exactly one is created in
// practice, via the init-admin bootstrap. Never exposed over HTTP.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Category is a taxonomy entry. Slug is always derived from Name.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Post is the primary content entity. Category is resolved eagerly on
// reads and is nil when the post has no category or the referenced
// category was deleted. FeaturedImage holds the asset store URL.
type Post struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Content       string    `json:"content"`
	Excerpt       string    `json:"excerpt,omitempty"`
	CategoryID    string    `json:"-"`
	Category      *Category `json:"category"`
	FeaturedImage string    `json:"featuredImage,omitempty"`
	Author        string    `json:"author"`
	Published     bool      `json:"published"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PostPage is one page of published posts with pagination metadata.
type PostPage struct {
	Posts       []Post `json:"posts"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
}

// PostPatch is a partial update of a post. A nil field is left
// untouched at the storage layer; a non-nil pointer to a zero value
// clears the field. The two cases are deliberately distinct.
type PostPatch struct {
	Title      *string
	Content    *string
	Excerpt    *string
	CategoryID *string // pointer to "" detaches the category
	Author     *string
	Published  *bool
}

// ContactMessage is an append-only visitor submission.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is the server-side record behind a session cookie token.
// It expires at a fixed time regardless of activity.
type Session struct {
	Token     string
	UserID    string
	Username  string
	ExpiresAt time.Time
}
