package api

// Response is the envelope every blog API endpoint returns. Code 0 means
// success; anything else is an application-level failure.
type Response[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Success codes and the failure codes the server uses.
const (
	CodeOK           = 0
	CodeFail         = 500
	CodeBadRequest   = 1001
	CodeUnauthorized = 1002
	CodeTooMany      = 1003
	CodeNotFound     = 1004
	CodeDatabase     = 1005
	CodeUpload       = 1006
)

// BlogInfo is the home page payload: site counters plus branding.
type BlogInfo struct {
	ArticleCount  int        `json:"article_count"`
	CategoryCount int        `json:"category_count"`
	TagCount      int        `json:"tag_count"`
	ViewCount     int        `json:"view_count"`
	UserCount     int        `json:"user_count"`
	BlogConfig    BlogConfig `json:"blog_config"`
}

// BlogConfig is the site branding.
type BlogConfig struct {
	WebsiteName   string `json:"website_name"`
	WebsiteAuthor string `json:"website_author"`
	WebsiteIntro  string `json:"website_intro"`
	WebsiteAvatar string `json:"website_avatar"`
}

// DefaultBlogConfig is the branding shown before the first fetch succeeds.
func DefaultBlogConfig() BlogConfig {
	return BlogConfig{
		WebsiteName:   "Breeze",
		WebsiteAuthor: "Breeze",
		WebsiteIntro:  "Gone with the wind",
	}
}

// Page is a standalone site page (about, links, ...) with a cover image.
type Page struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
	Cover string `json:"cover"`
}
