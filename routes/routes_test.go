package routes

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultTableIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestSortedOrdersEveryLevel(t *testing.T) {
	table := Table{
		{Name: "c", Path: "/c", Meta: Meta{Order: 3}},
		{Name: "a", Path: "/a", Meta: Meta{Order: 1}, Children: []Route{
			{Name: "a2", Path: "two", Meta: Meta{Order: 2}},
			{Name: "a1", Path: "one", Meta: Meta{Order: 1}},
		}},
		{Name: "b", Path: "/b", Meta: Meta{Order: 1}},
	}
	got := table.Sorted()

	var names []string
	for _, r := range got {
		names = append(names, r.Name)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, names); diff != "" {
		t.Errorf("top level order (-want +got):\n%s", diff)
	}
	if got[0].Children[0].Name != "a1" {
		t.Errorf("children not sorted: %+v", got[0].Children)
	}
	if table[1].Children[0].Name != "a2" {
		t.Error("Sorted modified the original table")
	}
}

func TestMenuResolvesPaths(t *testing.T) {
	menu := Default().Menu()
	want := map[string]string{
		"Diary":     "/diary",
		"DiaryList": "/diary/list",
		"Dashboard": "/dashboard",
	}
	found := 0
	for _, item := range menu {
		if p, ok := want[item.Name]; ok {
			found++
			if item.Path != p {
				t.Errorf("%s path = %q, want %q", item.Name, item.Path, p)
			}
		}
		if item.Name == "DiaryList" && item.Depth != 1 {
			t.Errorf("DiaryList depth = %d, want 1", item.Depth)
		}
	}
	if found != len(want) {
		t.Errorf("found %d of %d menu items", found, len(want))
	}
}

func TestFind(t *testing.T) {
	r, ok := Default().Find("DiaryList")
	if !ok {
		t.Fatal("DiaryList not found")
	}
	if !r.Meta.KeepAlive || r.Meta.Title != "Diary list" {
		t.Errorf("route = %+v", r)
	}
	if _, ok := Default().Find("Missing"); ok {
		t.Error("found a route that does not exist")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		want  string
	}{
		{"missing name", Table{{Path: "/x"}}, "has no name"},
		{"missing path", Table{{Name: "X"}}, "has no path"},
		{"duplicate", Table{{Name: "X", Path: "/x"}, {Name: "X", Path: "/y"}}, "duplicate"},
		{"bad redirect", Table{{Name: "X", Path: "/x", Redirect: "/nowhere"}}, "unknown path"},
		{"relative redirect", Table{{Name: "X", Path: "/x", Redirect: "list", Children: []Route{{Name: "L", Path: "list"}}}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}
