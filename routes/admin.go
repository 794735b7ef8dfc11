package routes

const layout = "layout/index"

// Default returns the admin console route table.
func Default() Table {
	return Table{
		{
			Name:      "Home",
			Path:      "/",
			Redirect:  "/dashboard",
			Component: layout,
			Meta:      Meta{Title: "Home", Icon: "mdi:home", Order: 0},
			Children: []Route{{
				Name:      "Dashboard",
				Path:      "dashboard",
				Component: "views/dashboard/index",
				Meta:      Meta{Title: "Dashboard", Icon: "mdi:monitor-dashboard"},
			}},
		},
		{
			Name:      "Article",
			Path:      "/article",
			Redirect:  "/article/list",
			Component: layout,
			Meta:      Meta{Title: "Articles", Icon: "ic:twotone-article", Order: 1},
			Children: []Route{
				{
					Name:      "ArticleList",
					Path:      "list",
					Component: "views/article/list/index",
					Meta:      Meta{Title: "Article list", Icon: "material-symbols:format-list-bulleted", KeepAlive: true},
				},
				{
					Name:      "ArticleWrite",
					Path:      "write",
					Component: "views/article/write/index",
					Meta:      Meta{Title: "Write article", Icon: "icon-park-outline:write"},
				},
			},
		},
		{
			Name:      "Page",
			Path:      "/page",
			Redirect:  "/page/list",
			Component: layout,
			Meta:      Meta{Title: "Pages", Icon: "iconoir:journal-page", Order: 4},
			Children: []Route{{
				Name:      "PageList",
				Path:      "list",
				Component: "views/page/list/index",
				Meta:      Meta{Title: "Page list", Icon: "mdi:file-document-multiple-outline", KeepAlive: true},
			}},
		},
		{
			Name:      "Diary",
			Path:      "/diary",
			Redirect:  "/diary/list",
			Component: layout,
			Meta:      Meta{Title: "Diary", Icon: "mdi:math-log", Order: 6},
			Children: []Route{{
				Name:      "DiaryList",
				Path:      "list",
				Component: "views/diary/list/index",
				Meta:      Meta{Title: "Diary list", Icon: "mdi:book-open-page-variant-outline", KeepAlive: true},
			}},
		},
		{
			Name:      "Visit",
			Path:      "/visit",
			Redirect:  "/visit/list",
			Component: layout,
			Meta:      Meta{Title: "Visits", Icon: "mdi:map-marker-radius", Order: 8},
			Children: []Route{{
				Name:      "VisitList",
				Path:      "list",
				Component: "views/visit/list/index",
				Meta:      Meta{Title: "Visit log", Icon: "mdi:map-search-outline", KeepAlive: true},
			}},
		},
	}
}
