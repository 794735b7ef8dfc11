package breeze

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eringen/breeze/api"
	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding articles, pages, diaries, images
// and the site branding.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	// synchronous=NORMAL is safe with WAL and avoids an fsync per transaction.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    cover TEXT NOT NULL DEFAULT '',
    published INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS pages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    label TEXT NOT NULL,
    cover TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS blog_config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS images (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS diaries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    content TEXT NOT NULL DEFAULT '',
    status INTEGER NOT NULL DEFAULT 1,
    is_delete INTEGER NOT NULL DEFAULT 0,
    imgs TEXT NOT NULL DEFAULT '[]',
    add_time INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_diaries_add_time ON diaries(add_time);
`)
	return err
}

const articleColumns = `slug, title, date, category, tags, summary, content, cover, published`

func scanArticle(sc interface{ Scan(...any) error }) (Article, error) {
	var a Article
	var tags string
	var published int
	if err := sc.Scan(&a.Slug, &a.Title, &a.Date, &a.Category, &tags, &a.Summary, &a.Content, &a.Cover, &published); err != nil {
		return Article{}, err
	}
	a.Tags = ParseTags(tags)
	a.Published = published == 1
	return a, nil
}

// ListArticles returns articles ordered by date descending. Drafts are
// included only when drafts is true.
func (s *Store) ListArticles(ctx context.Context, drafts bool) ([]Article, error) {
	q := `SELECT ` + articleColumns + ` FROM articles`
	if !drafts {
		q += ` WHERE published = 1`
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY date DESC, slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := []Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// GetArticle returns an article by slug regardless of published status.
func (s *Store) GetArticle(ctx context.Context, slug string) (Article, error) {
	return scanArticle(s.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE slug = ?`, slug))
}

// SaveArticle upserts an article. Tags are normalized to lowercase.
func (s *Store) SaveArticle(ctx context.Context, a Article) error {
	published := 0
	if a.Published {
		published = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO articles (`+articleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Slug, a.Title, a.Date, a.Category, joinTags(NormalizeTags(a.Tags)), a.Summary, a.Content, a.Cover, published)
	return err
}

// DeleteArticle removes an article by slug. Returns ErrNotFound if absent.
func (s *Store) DeleteArticle(ctx context.Context, slug string) error {
	return s.deleteOne(ctx, `DELETE FROM articles WHERE slug = ?`, slug)
}

func (s *Store) deleteOne(ctx context.Context, query string, arg any) error {
	res, err := s.db.ExecContext(ctx, query, arg)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Counts returns the number of published articles and the distinct
// categories and tags they use.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT NULLIF(category, '')) FROM articles WHERE published = 1`).
		Scan(&c.Articles, &c.Categories)
	if err != nil {
		return Counts{}, fmt.Errorf("count articles: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT tags FROM articles WHERE published = 1`)
	if err != nil {
		return Counts{}, fmt.Errorf("count tags: %w", err)
	}
	defer rows.Close()
	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return Counts{}, err
		}
		for _, t := range ParseTags(tags) {
			set[t] = struct{}{}
		}
	}
	c.Tags = len(set)
	return c, rows.Err()
}

// ListPages returns all pages in creation order.
func (s *Store) ListPages(ctx context.Context) ([]api.Page, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, label, cover FROM pages ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pages := []api.Page{}
	for rows.Next() {
		var p api.Page
		if err := rows.Scan(&p.ID, &p.Name, &p.Label, &p.Cover); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// SavePage inserts a page or updates the one with the same name, and
// returns it with its id.
func (s *Store) SavePage(ctx context.Context, p api.Page) (api.Page, error) {
	err := s.db.QueryRowContext(ctx, `INSERT INTO pages (name, label, cover) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET label = excluded.label, cover = excluded.cover
		RETURNING id`, p.Name, p.Label, p.Cover).Scan(&p.ID)
	return p, err
}

// DeletePage removes a page by name. Returns ErrNotFound if absent.
func (s *Store) DeletePage(ctx context.Context, name string) error {
	return s.deleteOne(ctx, `DELETE FROM pages WHERE name = ?`, name)
}

// BlogConfig returns the stored branding, with fields never saved taken from def.
func (s *Store) BlogConfig(ctx context.Context, def api.BlogConfig) (api.BlogConfig, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM blog_config`)
	if err != nil {
		return def, err
	}
	defer rows.Close()

	cfg := def
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return def, err
		}
		switch k {
		case "website_name":
			cfg.WebsiteName = v
		case "website_author":
			cfg.WebsiteAuthor = v
		case "website_intro":
			cfg.WebsiteIntro = v
		case "website_avatar":
			cfg.WebsiteAvatar = v
		}
	}
	return cfg, rows.Err()
}

// SaveBlogConfig stores every branding field in one transaction.
func (s *Store) SaveBlogConfig(ctx context.Context, cfg api.BlogConfig) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	values := map[string]string{
		"website_name":   cfg.WebsiteName,
		"website_author": cfg.WebsiteAuthor,
		"website_intro":  cfg.WebsiteIntro,
		"website_avatar": cfg.WebsiteAvatar,
	}
	for k, v := range values {
		if _, err := tx.ExecContext(ctx, `INSERT INTO blog_config (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveImage records an uploaded image.
func (s *Store) SaveImage(ctx context.Context, img Image) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO images (filename, original_name, width, height, size, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.UploadedAt)
	return err
}

// ImageExists reports whether filename is already recorded.
func (s *Store) ImageExists(ctx context.Context, filename string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images WHERE filename = ?`, filename).Scan(&n)
	return n > 0, err
}

const diaryColumns = `id, content, status, is_delete, imgs, add_time`

func scanDiary(sc interface{ Scan(...any) error }) (Diary, error) {
	var d Diary
	var imgs string
	if err := sc.Scan(&d.ID, &d.Content, &d.Status, &d.IsDelete, &imgs, &d.AddTime); err != nil {
		return Diary{}, err
	}
	if err := json.Unmarshal([]byte(imgs), &d.Imgs); err != nil {
		return Diary{}, fmt.Errorf("diary %d imgs: %w", d.ID, err)
	}
	if d.Imgs == nil {
		d.Imgs = []string{}
	}
	return d, nil
}

// GetDiary returns a diary by id.
func (s *Store) GetDiary(ctx context.Context, id int) (Diary, error) {
	return scanDiary(s.db.QueryRowContext(ctx, `SELECT `+diaryColumns+` FROM diaries WHERE id = ?`, id))
}

// SaveDiary inserts d when its id is zero and updates it otherwise. The
// soft-delete flag is left alone on update. Returns ErrNotFound when
// updating a missing id.
func (s *Store) SaveDiary(ctx context.Context, d Diary) (Diary, error) {
	if d.Imgs == nil {
		d.Imgs = []string{}
	}
	imgs, err := json.Marshal(d.Imgs)
	if err != nil {
		return Diary{}, err
	}
	if d.ID == 0 {
		err := s.db.QueryRowContext(ctx, `INSERT INTO diaries (content, status, is_delete, imgs, add_time) VALUES (?, ?, ?, ?, ?)
			RETURNING id`, d.Content, d.Status, d.IsDelete, string(imgs), d.AddTime).Scan(&d.ID)
		return d, err
	}
	err = s.db.QueryRowContext(ctx, `UPDATE diaries SET content = ?, status = ?, imgs = ?, add_time = ? WHERE id = ?
		RETURNING is_delete`, d.Content, d.Status, string(imgs), d.AddTime, d.ID).Scan(&d.IsDelete)
	return d, err
}

// DeleteDiaries removes the given diaries and returns how many existed.
func (s *Store) DeleteDiaries(ctx context.Context, ids []int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := inClause(ids)
	return s.execCount(ctx, `DELETE FROM diaries WHERE id IN `+in, args...)
}

// SetDiariesDeleted moves the given diaries into or out of the trash.
func (s *Store) SetDiariesDeleted(ctx context.Context, ids []int, deleted bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := inClause(ids)
	return s.execCount(ctx, `UPDATE diaries SET is_delete = ? WHERE id IN `+in, append([]any{deleted}, args...)...)
}

func (s *Store) execCount(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func inClause(ids []int) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")", args
}

// ListDiaries returns one page of diaries matching q, newest first, and the
// total number of matches. q.Page and q.Size must already be positive.
func (s *Store) ListDiaries(ctx context.Context, q DiaryQuery) ([]Diary, int, error) {
	var where []string
	var args []any
	if q.Content != "" {
		where = append(where, "content LIKE ?")
		args = append(args, "%"+q.Content+"%")
	}
	if q.IsDelete != nil {
		where = append(where, "is_delete = ?")
		args = append(args, *q.IsDelete)
	}
	if q.Status != 0 {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}
	if q.AddTimeStart != 0 {
		where = append(where, "add_time >= ?")
		args = append(args, q.AddTimeStart)
	}
	if q.AddTimeEnd != 0 {
		where = append(where, "add_time <= ?")
		args = append(args, q.AddTimeEnd)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM diaries`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count diaries: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+diaryColumns+` FROM diaries`+cond+` ORDER BY add_time DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, q.Size, (q.Page-1)*q.Size)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	diaries := []Diary{}
	for rows.Next() {
		d, err := scanDiary(rows)
		if err != nil {
			return nil, 0, err
		}
		diaries = append(diaries, d)
	}
	return diaries, total, rows.Err()
}
