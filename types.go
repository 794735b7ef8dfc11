package breeze

import "database/sql"

// ErrNotFound is returned when a requested article or page does not exist.
var ErrNotFound = sql.ErrNoRows

// Article is a blog post as stored in SQLite and edited in the admin console.
type Article struct {
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Date      string   `json:"date"` // YYYY-MM-DD
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	Summary   string   `json:"summary"`
	Content   string   `json:"content"`
	Cover     string   `json:"cover"`
	Published bool     `json:"published"`
}

// Image is an uploaded cover image.
type Image struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Size         int    `json:"size"`
	UploadedAt   string `json:"uploaded_at"`
	URL          string `json:"url"` // relative to the server base URL
}

// Counts are the content counters shown on the home page.
type Counts struct {
	Articles   int
	Categories int
	Tags       int
}

// Diary statuses. Only DiaryPublic entries reach the front-end.
const (
	DiaryPublic  = 1
	DiaryPrivate = 2
)

// Diary is a short dated note with optional images.
type Diary struct {
	ID       int      `json:"id"`
	Content  string   `json:"content"`
	Status   int      `json:"status"`
	IsDelete bool     `json:"is_delete"`
	Imgs     []string `json:"imgs"`
	AddTime  int64    `json:"add_time"` // unix milliseconds
}

// DiaryQuery filters a diary listing. Zero fields match everything.
type DiaryQuery struct {
	Content      string
	Status       int
	IsDelete     *bool
	AddTimeStart int64
	AddTimeEnd   int64
	Page         int
	Size         int
}

// PageResult is one page of a listing.
type PageResult[T any] struct {
	List  []T `json:"list"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}
