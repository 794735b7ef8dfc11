package breeze

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eringen/breeze/api"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "blog.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetArticle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	art := Article{
		Slug:      "test-post",
		Title:     "Test Post",
		Date:      "2024-01-15",
		Category:  "notes",
		Tags:      []string{"Go", " testing ", "go"},
		Summary:   "A test post summary",
		Content:   "# Test Content\n\nThis is test content.",
		Cover:     "uploads/test.jpg",
		Published: true,
	}
	if err := s.SaveArticle(ctx, art); err != nil {
		t.Fatalf("SaveArticle failed: %v", err)
	}

	got, err := s.GetArticle(ctx, "test-post")
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	want := art
	want.Tags = []string{"go", "testing"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("article mismatch (-want +got):\n%s", diff)
	}
}

func TestGetArticleNotFound(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.GetArticle(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListArticlesDrafts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	for _, a := range []Article{
		{Slug: "old", Title: "Old", Date: "2024-01-01", Published: true},
		{Slug: "new", Title: "New", Date: "2024-02-01", Published: true},
		{Slug: "draft", Title: "Draft", Date: "2024-03-01"},
	} {
		if err := s.SaveArticle(ctx, a); err != nil {
			t.Fatalf("SaveArticle: %v", err)
		}
	}

	published, err := s.ListArticles(ctx, false)
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if len(published) != 2 || published[0].Slug != "new" {
		t.Errorf("published = %+v", published)
	}
	all, err := s.ListArticles(ctx, true)
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if len(all) != 3 || all[0].Slug != "draft" {
		t.Errorf("all = %+v", all)
	}
}

func TestDeleteArticle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if err := s.SaveArticle(ctx, Article{Slug: "gone", Title: "Gone", Date: "2024-01-01"}); err != nil {
		t.Fatalf("SaveArticle: %v", err)
	}
	if err := s.DeleteArticle(ctx, "gone"); err != nil {
		t.Fatalf("DeleteArticle: %v", err)
	}
	if err := s.DeleteArticle(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestCounts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	for _, a := range []Article{
		{Slug: "a", Title: "A", Date: "2024-01-01", Category: "go", Tags: []string{"web", "echo"}, Published: true},
		{Slug: "b", Title: "B", Date: "2024-01-02", Category: "go", Tags: []string{"web"}, Published: true},
		{Slug: "c", Title: "C", Date: "2024-01-03", Category: "life", Published: true},
		{Slug: "d", Title: "D", Date: "2024-01-04", Category: "secret", Tags: []string{"draft-only"}},
	} {
		if err := s.SaveArticle(ctx, a); err != nil {
			t.Fatalf("SaveArticle: %v", err)
		}
	}

	got, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if diff := cmp.Diff(Counts{Articles: 3, Categories: 2, Tags: 2}, got); diff != "" {
		t.Errorf("counts (-want +got):\n%s", diff)
	}
}

func TestPagesUpsertAndDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	about, err := s.SavePage(ctx, api.Page{Name: "about", Label: "About", Cover: "uploads/a.jpg"})
	if err != nil {
		t.Fatalf("SavePage: %v", err)
	}
	if _, err := s.SavePage(ctx, api.Page{Name: "links", Label: "Links"}); err != nil {
		t.Fatalf("SavePage: %v", err)
	}
	updated, err := s.SavePage(ctx, api.Page{Name: "about", Label: "About me"})
	if err != nil {
		t.Fatalf("SavePage update: %v", err)
	}
	if updated.ID != about.ID {
		t.Errorf("update changed id %d -> %d", about.ID, updated.ID)
	}

	pages, err := s.ListPages(ctx)
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	want := []api.Page{
		{ID: about.ID, Name: "about", Label: "About me"},
		{ID: about.ID + 1, Name: "links", Label: "Links"},
	}
	if diff := cmp.Diff(want, pages); diff != "" {
		t.Errorf("pages (-want +got):\n%s", diff)
	}

	if err := s.DeletePage(ctx, "links"); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	if err := s.DeletePage(ctx, "links"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestBlogConfigDefaultsAndSave(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	def := api.DefaultBlogConfig()

	got, err := s.BlogConfig(ctx, def)
	if err != nil {
		t.Fatalf("BlogConfig: %v", err)
	}
	if got != def {
		t.Errorf("unsaved config = %+v, want defaults", got)
	}

	saved := api.BlogConfig{WebsiteName: "Wind", WebsiteAuthor: "me", WebsiteIntro: "hi", WebsiteAvatar: "uploads/me.jpg"}
	if err := s.SaveBlogConfig(ctx, saved); err != nil {
		t.Fatalf("SaveBlogConfig: %v", err)
	}
	got, err = s.BlogConfig(ctx, def)
	if err != nil {
		t.Fatalf("BlogConfig: %v", err)
	}
	if got != saved {
		t.Errorf("config = %+v, want %+v", got, saved)
	}
}

func TestImageExists(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if err := s.SaveImage(ctx, Image{Filename: "cover.jpg", OriginalName: "Cover.png", Width: 10, Height: 10, Size: 100, UploadedAt: "2024-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	if ok, err := s.ImageExists(ctx, "cover.jpg"); err != nil || !ok {
		t.Errorf("ImageExists(cover.jpg) = %v, %v", ok, err)
	}
	if ok, err := s.ImageExists(ctx, "other.jpg"); err != nil || ok {
		t.Errorf("ImageExists(other.jpg) = %v, %v", ok, err)
	}
}

func TestParseTags(t *testing.T) {
	if diff := cmp.Diff([]string{"go", "web"}, ParseTags(",go, web,")); diff != "" {
		t.Errorf("ParseTags (-want +got):\n%s", diff)
	}
	if got := ParseTags(""); len(got) != 0 {
		t.Errorf("ParseTags(\"\") = %v", got)
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello, World!":    "hello-world",
		"  Go 1.24 Notes ": "go-1-24-notes",
		"---":              "",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDiaryStore(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var ids []int
	for i, d := range []Diary{
		{Content: "morning run", Status: DiaryPublic, AddTime: 100, Imgs: []string{"uploads/run.jpg"}},
		{Content: "rainy evening", Status: DiaryPrivate, AddTime: 200},
		{Content: "evening run", Status: DiaryPublic, AddTime: 300},
	} {
		saved, err := s.SaveDiary(ctx, d)
		if err != nil {
			t.Fatalf("SaveDiary %d: %v", i, err)
		}
		ids = append(ids, saved.ID)
	}

	got, err := s.GetDiary(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetDiary: %v", err)
	}
	want := Diary{ID: ids[0], Content: "morning run", Status: DiaryPublic, AddTime: 100, Imgs: []string{"uploads/run.jpg"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("diary (-want +got):\n%s", diff)
	}
	if _, err := s.GetDiary(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDiary(999) err = %v, want ErrNotFound", err)
	}

	if n, err := s.SetDiariesDeleted(ctx, []int{ids[2]}, true); err != nil || n != 1 {
		t.Fatalf("SetDiariesDeleted = %d, %v", n, err)
	}
	// Editing a trashed diary keeps it trashed.
	edited, err := s.SaveDiary(ctx, Diary{ID: ids[2], Content: "evening run, 5k", Status: DiaryPublic, AddTime: 300})
	if err != nil {
		t.Fatalf("SaveDiary update: %v", err)
	}
	if !edited.IsDelete || len(edited.Imgs) != 0 || edited.Imgs == nil {
		t.Errorf("edited = %+v", edited)
	}

	notDeleted := false
	tests := []struct {
		name  string
		q     DiaryQuery
		total int
		first int
	}{
		{"all", DiaryQuery{}, 3, ids[2]},
		{"content", DiaryQuery{Content: "run"}, 2, ids[2]},
		{"status", DiaryQuery{Status: DiaryPrivate}, 1, ids[1]},
		{"live", DiaryQuery{IsDelete: &notDeleted}, 2, ids[1]},
		{"window", DiaryQuery{AddTimeStart: 150, AddTimeEnd: 250}, 1, ids[1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.q.Page, tt.q.Size = 1, 10
			list, total, err := s.ListDiaries(ctx, tt.q)
			if err != nil {
				t.Fatalf("ListDiaries: %v", err)
			}
			if total != tt.total || len(list) != tt.total || list[0].ID != tt.first {
				t.Errorf("total = %d, list = %+v", total, list)
			}
		})
	}

	list, total, err := s.ListDiaries(ctx, DiaryQuery{Page: 2, Size: 2})
	if err != nil {
		t.Fatalf("ListDiaries page 2: %v", err)
	}
	if total != 3 || len(list) != 1 || list[0].ID != ids[0] {
		t.Errorf("page 2 = %d, %+v", total, list)
	}

	if n, err := s.DeleteDiaries(ctx, []int{ids[0], ids[1], 999}); err != nil || n != 2 {
		t.Errorf("DeleteDiaries = %d, %v", n, err)
	}
	if n, err := s.DeleteDiaries(ctx, nil); err != nil || n != 0 {
		t.Errorf("DeleteDiaries(nil) = %d, %v", n, err)
	}
}
