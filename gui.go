//go:build gui

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/metcalfc/rak/internal/app"
	"github.com/metcalfc/rak/internal/library"
)

type gui struct {
	app    *app.App
	fyne   fyne.App
	window fyne.Window

	snap  library.Snapshot
	view  string
	books []library.Book
	sel   int

	views  *widget.Select
	list   *widget.List
	status *widget.Label
}

func runInteractive(a *app.App) error {
	g := &gui{
		app:  a,
		fyne: fyneapp.New(),
		view: library.ViewAll,
		sel:  -1,
	}
	g.window = g.fyne.NewWindow("rak - Library")
	g.build()
	g.refresh()

	cancel := a.Library.Subscribe(func(library.Snapshot) {
		fyne.Do(g.refresh)
	})
	defer cancel()

	g.window.Resize(fyne.NewSize(900, 600))
	g.window.ShowAndRun()
	return nil
}

func (g *gui) build() {
	g.views = widget.NewSelect(nil, func(v string) {
		g.view = v
		g.sel = -1
		g.list.UnselectAll()
		g.refresh()
	})

	g.list = widget.NewList(
		func() int { return len(g.books) },
		func() fyne.CanvasObject {
			return container.NewVBox(
				widget.NewLabel("Name"),
				widget.NewLabel("Details"),
			)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id >= len(g.books) {
				return
			}
			b := g.books[id]
			vbox := obj.(*fyne.Container)
			name := vbox.Objects[0].(*widget.Label)
			details := vbox.Objects[1].(*widget.Label)
			name.SetText(b.Name)
			name.TextStyle.Bold = true
			details.SetText(fmt.Sprintf("%s | %s | page %s | read %s",
				strings.ToUpper(string(b.Type)), b.Category, pageString(b), b.LastRead().Format(time.DateTime)))
		},
	)
	g.list.OnSelected = func(id widget.ListItemID) { g.sel = id }
	g.list.OnUnselected = func(widget.ListItemID) { g.sel = -1 }

	g.status = widget.NewLabel("")

	toolbar := container.NewHBox(
		widget.NewButton("Import", g.importFiles),
		widget.NewButton("Read", g.readSelected),
		widget.NewButton("Move", g.moveSelected),
		widget.NewButton("Remove", g.removeSelected),
		widget.NewSeparator(),
		widget.NewButton("New Category", g.addCategory),
		widget.NewButton("Rename Category", g.renameCategory),
		widget.NewButton("Delete Category", g.deleteCategory),
	)

	top := container.NewBorder(nil, nil, widget.NewLabel("View:"), nil, g.views)
	g.window.SetContent(container.NewBorder(
		container.NewVBox(top, toolbar),
		g.status,
		nil, nil,
		g.list,
	))
}

func (g *gui) refresh() {
	g.snap = g.app.Library.Snapshot()
	views := g.snap.Views()
	if !g.snap.HasCategory(g.view) && g.view != library.ViewRecent {
		g.view = library.ViewAll
	}
	g.views.Options = views
	g.views.Selected = g.view
	g.views.Refresh()

	g.books = g.snap.View(g.view)
	if g.sel >= len(g.books) {
		g.sel = -1
		g.list.UnselectAll()
	}
	g.list.Refresh()
}

func (g *gui) selected() (library.Book, bool) {
	if g.sel < 0 || g.sel >= len(g.books) {
		g.status.SetText("Select a book first.")
		return library.Book{}, false
	}
	return g.books[g.sel], true
}

func (g *gui) currentCategory() (string, bool) {
	if g.view == library.ViewAll || g.view == library.ViewRecent || g.view == library.Uncategorized {
		return "", false
	}
	return g.view, true
}

func (g *gui) importFiles() {
	dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, g.window)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		rc.Close()

		category, _ := g.currentCategory()
		g.status.SetText("Importing " + path + "...")
		go func() {
			report, err := g.app.ImportFiles(context.Background(), []string{path}, category)
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, g.window)
					return
				}
				if len(report.Skipped) > 0 {
					dialog.ShowError(report.Skipped[0].Err, g.window)
				}
				g.status.SetText(fmt.Sprintf("Added %d, duplicates %d", report.Added, report.Duplicates))
			})
		}()
	}, g.window)
}

func (g *gui) addCategory() {
	entry := widget.NewEntry()
	dialog.ShowForm("New Category", "Add", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Name", entry)},
		func(ok bool) {
			name := strings.TrimSpace(entry.Text)
			if !ok || name == "" {
				return
			}
			if g.snap.HasCategory(name) {
				dialog.ShowError(fmt.Errorf("category %q already exists", name), g.window)
				return
			}
			g.app.Library.AddCategory(name)
		}, g.window)
}

func (g *gui) renameCategory() {
	old, ok := g.currentCategory()
	if !ok {
		g.status.SetText("Choose a category view to rename.")
		return
	}
	entry := widget.NewEntry()
	entry.SetText(old)
	dialog.ShowForm("Rename Category", "Rename", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Name", entry)},
		func(ok bool) {
			name := strings.TrimSpace(entry.Text)
			if !ok || name == "" || name == old {
				return
			}
			if g.snap.HasCategory(name) {
				dialog.ShowError(fmt.Errorf("category %q already exists", name), g.window)
				return
			}
			g.view = name
			g.app.Library.RenameCategory(old, name)
		}, g.window)
}

func (g *gui) deleteCategory() {
	name, ok := g.currentCategory()
	if !ok {
		g.status.SetText("Choose a category view to delete.")
		return
	}
	dialog.ShowConfirm("Delete Category",
		fmt.Sprintf("Delete %q? Its books move to %s.", name, library.Uncategorized),
		func(ok bool) {
			if ok {
				g.app.Library.DeleteCategory(name)
			}
		}, g.window)
}

func (g *gui) moveSelected() {
	b, ok := g.selected()
	if !ok {
		return
	}
	options := append([]string{library.Uncategorized}, g.snap.Categories...)
	choice := widget.NewSelect(options, nil)
	choice.SetSelected(b.Category)
	dialog.ShowForm("Move "+b.Name, "Move", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Category", choice)},
		func(ok bool) {
			if ok && choice.Selected != "" {
				g.app.Library.MoveBookCategory(b.ID, choice.Selected)
			}
		}, g.window)
}

func (g *gui) removeSelected() {
	b, ok := g.selected()
	if !ok {
		return
	}
	dialog.ShowConfirm("Remove Book", fmt.Sprintf("Remove %q from the library?", b.Name), func(ok bool) {
		if !ok {
			return
		}
		if err := g.app.RemoveBook(b.ID); err != nil {
			dialog.ShowError(err, g.window)
		}
	}, g.window)
}

func (g *gui) readSelected() {
	b, ok := g.selected()
	if !ok {
		return
	}
	g.openReader(b)
}

// openReader shows a book one page at a time in its own window. Every page
// turn is recorded as reading progress.
func (g *gui) openReader(b library.Book) {
	w := g.fyne.NewWindow(b.Name)

	header := widget.NewLabel("")
	header.TextStyle.Bold = true
	text := widget.NewLabel("")
	text.Wrapping = fyne.TextWrapWord
	scroll := container.NewVScroll(text)

	var page app.Page
	render := func(p app.Page) {
		page = p
		header.SetText(fmt.Sprintf("%s | page %s", p.Title,
			pageString(library.Book{LastPage: p.Number, TotalPage: p.Total})))
		text.SetText(p.Text)
		scroll.ScrollToTop()
	}
	show := func(n int) {
		p, err := g.app.OpenPage(b.ID, n)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		render(p)
	}

	var translateBtn *widget.Button
	translateBtn = widget.NewButton("Translate", func() {
		translateBtn.Disable()
		n := page.Number
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			out, err := g.app.TranslatePage(ctx, b.ID, n)
			fyne.Do(func() {
				translateBtn.Enable()
				if err != nil {
					dialog.ShowError(err, w)
					return
				}
				if n != page.Number {
					return
				}
				text.SetText(out)
				header.SetText(header.Text + " [translated]")
				scroll.ScrollToTop()
			})
		}()
	})

	prev := widget.NewButton("◀ Prev", func() {
		if page.Number > 1 {
			show(page.Number - 1)
		}
	})
	next := widget.NewButton("Next ▶", func() {
		if page.Total == 0 || page.Number < page.Total {
			show(page.Number + 1)
		}
	})

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeyLeft:
			prev.OnTapped()
		case fyne.KeyRight:
			next.OnTapped()
		case fyne.KeyEscape, fyne.KeyQ:
			w.Close()
		}
	})

	w.SetContent(container.NewBorder(
		header,
		container.NewHBox(prev, next, translateBtn),
		nil, nil,
		scroll,
	))
	w.Resize(fyne.NewSize(700, 800))

	p, err := g.app.OpenPage(b.ID, b.LastPage)
	if err != nil {
		if errors.Is(err, app.ErrBookNotFound) {
			g.refresh()
		}
		dialog.ShowError(err, g.window)
		return
	}
	render(p)
	w.Show()
}
