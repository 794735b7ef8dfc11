// Package routes declares the admin console's route table: paths, the view
// each path loads, and the metadata the layout uses to build its menu.
package routes

import (
	"fmt"
	"path"
	"sort"
)

// Meta is the display metadata of a route.
type Meta struct {
	Title     string `json:"title"`
	Icon      string `json:"icon"`
	Order     int    `json:"order,omitempty"`     // position among siblings, lower first
	KeepAlive bool   `json:"keepAlive,omitempty"` // cache the view when navigating away
}

// Route is a single entry of the route table.
type Route struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	Redirect  string  `json:"redirect,omitempty"`
	Component string  `json:"component"` // view module the router lazy-loads
	Meta      Meta    `json:"meta"`
	Children  []Route `json:"children,omitempty"`
}

// Table is an ordered set of top-level routes.
type Table []Route

// MenuItem is a flattened, navigable route.
type MenuItem struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Title    string `json:"title"`
	Icon     string `json:"icon"`
	Depth    int    `json:"depth"`
	Children int    `json:"children"`
}

// Sorted returns a copy of t with every level ordered by Meta.Order. Routes
// with equal order keep their declared position.
func (t Table) Sorted() Table {
	out := make(Table, len(t))
	copy(out, t)
	sortRoutes(out)
	return out
}

func sortRoutes(rs []Route) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].Meta.Order < rs[j].Meta.Order
	})
	for i := range rs {
		if len(rs[i].Children) == 0 {
			continue
		}
		children := make([]Route, len(rs[i].Children))
		copy(children, rs[i].Children)
		sortRoutes(children)
		rs[i].Children = children
	}
}

// Find returns the route named name at any depth.
func (t Table) Find(name string) (Route, bool) {
	var found Route
	ok := false
	t.walk(func(r Route, _ string, _ int) bool {
		if r.Name == name {
			found, ok = r, true
			return false
		}
		return true
	})
	return found, ok
}

// Menu flattens the sorted table depth first, resolving child paths against
// their parent.
func (t Table) Menu() []MenuItem {
	var items []MenuItem
	t.Sorted().walk(func(r Route, full string, depth int) bool {
		items = append(items, MenuItem{
			Name:     r.Name,
			Path:     full,
			Title:    r.Meta.Title,
			Icon:     r.Meta.Icon,
			Depth:    depth,
			Children: len(r.Children),
		})
		return true
	})
	return items
}

// Validate checks that names are present and unique, paths are present, and
// every redirect points at a declared path.
func (t Table) Validate() error {
	names := make(map[string]bool)
	paths := make(map[string]bool)
	var err error
	t.walk(func(r Route, full string, _ int) bool {
		switch {
		case r.Name == "":
			err = fmt.Errorf("routes: route at %q has no name", full)
		case r.Path == "":
			err = fmt.Errorf("routes: route %q has no path", r.Name)
		case names[r.Name]:
			err = fmt.Errorf("routes: duplicate route name %q", r.Name)
		}
		names[r.Name] = true
		paths[full] = true
		return err == nil
	})
	if err != nil {
		return err
	}
	t.walk(func(r Route, full string, _ int) bool {
		if r.Redirect != "" && !paths[resolve(full, r.Redirect)] {
			err = fmt.Errorf("routes: route %q redirects to unknown path %q", r.Name, r.Redirect)
			return false
		}
		return true
	})
	return err
}

// walk visits routes depth first with their full path. fn returns false to stop.
func (t Table) walk(fn func(r Route, full string, depth int) bool) {
	var visit func(rs []Route, parent string, depth int) bool
	visit = func(rs []Route, parent string, depth int) bool {
		for _, r := range rs {
			full := resolve(parent, r.Path)
			if !fn(r, full, depth) {
				return false
			}
			if !visit(r.Children, full, depth+1) {
				return false
			}
		}
		return true
	}
	visit(t, "/", 0)
}

func resolve(parent, p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(parent, p)
}
