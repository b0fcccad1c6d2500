package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/metcalfc/rak/internal/app"
	"github.com/metcalfc/rak/internal/document"
	"github.com/metcalfc/rak/internal/library"
)

var errUsage = errors.New("usage")

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// runCommand executes one non-interactive subcommand.
func runCommand(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usageErr("no command")
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "import":
		return cmdImport(ctx, a, args, out)
	case "ls", "list":
		return cmdList(a, args, out)
	case "category", "cat":
		return cmdCategory(a, args, out)
	case "move", "mv":
		return cmdMove(a, args, out)
	case "rm", "remove":
		return cmdRemove(a, args, out)
	case "progress":
		return cmdProgress(a, args, out)
	case "read":
		return cmdRead(a, args, out)
	case "translate":
		return cmdTranslate(ctx, a, args, out)
	case "formats":
		printFormats(out)
		return nil
	default:
		return usageErr("unknown command %q", cmd)
	}
}

func printFormats(out io.Writer) {
	fmt.Fprintln(out, "Supported formats:")
	for _, f := range document.SupportedFormats() {
		fmt.Fprintf(out, "  %s\n", f)
	}
}

func cmdImport(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	category := fs.String("c", "", "Category for the imported books")
	if err := fs.Parse(args); err != nil {
		return usageErr("import: %v", err)
	}
	if fs.NArg() == 0 {
		return usageErr("import: no files given")
	}

	report, err := a.ImportFiles(ctx, fs.Args(), *category)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Added %d, duplicates %d, skipped %d\n", report.Added, report.Duplicates, len(report.Skipped))
	for _, s := range report.Skipped {
		fmt.Fprintf(out, "  skipped %s: %v\n", s.Path, s.Err)
	}
	return nil
}

func cmdList(a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	view := fs.String("v", library.ViewAll, "View: All, Recent or a category name")
	if err := fs.Parse(args); err != nil {
		return usageErr("ls: %v", err)
	}

	books := a.Library.Snapshot().View(*view)
	if len(books) == 0 {
		fmt.Fprintln(out, "No books.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tCATEGORY\tPAGE\tLAST READ")
	for _, b := range books {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.Name, b.Type, b.Category, pageString(b), b.LastRead().Format(time.DateTime))
	}
	return tw.Flush()
}

func pageString(b library.Book) string {
	if b.TotalPage > 0 {
		return fmt.Sprintf("%d/%d", b.LastPage, b.TotalPage)
	}
	return strconv.Itoa(b.LastPage)
}

func cmdCategory(a *app.App, args []string, out io.Writer) error {
	if len(args) == 0 {
		args = []string{"ls"}
	}
	sub, args := args[0], args[1:]
	lib := a.Library

	switch sub {
	case "ls", "list":
		snap := lib.Snapshot()
		counts := snap.CategoryCounts()
		fmt.Fprintf(out, "%s (%d)\n", library.Uncategorized, counts[library.Uncategorized])
		for _, c := range snap.Categories {
			fmt.Fprintf(out, "%s (%d)\n", c, counts[c])
		}
		return nil

	case "add":
		name, err := oneArg("category add", args)
		if err != nil {
			return err
		}
		if lib.Snapshot().HasCategory(name) {
			return fmt.Errorf("category %q already exists", name)
		}
		lib.AddCategory(name)
		if !lib.Snapshot().HasCategory(name) {
			return fmt.Errorf("invalid category name %q", name)
		}
		fmt.Fprintf(out, "Added category %q\n", name)
		return nil

	case "rename", "mv":
		if len(args) != 2 {
			return usageErr("category rename <old> <new>")
		}
		oldName, newName := args[0], args[1]
		snap := lib.Snapshot()
		switch {
		case oldName == library.Uncategorized:
			return fmt.Errorf("%s cannot be renamed", library.Uncategorized)
		case !snap.HasCategory(oldName):
			return fmt.Errorf("no category %q", oldName)
		case snap.HasCategory(newName):
			return fmt.Errorf("category %q already exists", newName)
		}
		lib.RenameCategory(oldName, newName)
		if !lib.Snapshot().HasCategory(newName) {
			return fmt.Errorf("invalid category name %q", newName)
		}
		fmt.Fprintf(out, "Renamed %q to %q\n", oldName, newName)
		return nil

	case "rm", "remove", "delete":
		name, err := oneArg("category rm", args)
		if err != nil {
			return err
		}
		if name == library.Uncategorized {
			return fmt.Errorf("%s cannot be removed", library.Uncategorized)
		}
		if !lib.Snapshot().HasCategory(name) {
			return fmt.Errorf("no category %q", name)
		}
		moved := len(lib.Snapshot().View(name))
		lib.DeleteCategory(name)
		fmt.Fprintf(out, "Removed category %q, %d book(s) moved to %s\n", name, moved, library.Uncategorized)
		return nil

	default:
		return usageErr("unknown category command %q", sub)
	}
}

func oneArg(cmd string, args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", usageErr("%s <name>", cmd)
	}
	return args[0], nil
}

func cmdMove(a *app.App, args []string, out io.Writer) error {
	if len(args) != 2 {
		return usageErr("move <id> <category>")
	}
	b, err := a.Book(args[0])
	if err != nil {
		return err
	}
	if !a.Library.Snapshot().HasCategory(args[1]) {
		return fmt.Errorf("no category %q", args[1])
	}
	a.Library.MoveBookCategory(b.ID, args[1])
	fmt.Fprintf(out, "Moved %q to %s\n", b.Name, args[1])
	return nil
}

func cmdRemove(a *app.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return usageErr("rm <id>")
	}
	b, err := a.Book(args[0])
	if err != nil {
		return err
	}
	if err := a.RemoveBook(b.ID); err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed %q\n", b.Name)
	return nil
}

func cmdProgress(a *app.App, args []string, out io.Writer) error {
	if len(args) != 2 {
		return usageErr("progress <id> <page>")
	}
	b, err := a.Book(args[0])
	if err != nil {
		return err
	}
	page, err := strconv.Atoi(args[1])
	if err != nil || page < 1 {
		return usageErr("page must be a number from 1")
	}
	a.Library.UpdateProgress(b.ID, page)
	fmt.Fprintf(out, "%q is at page %d\n", b.Name, page)
	return nil
}

// bookPage parses "<id> [page]"; the page defaults to the last one read.
func bookPage(a *app.App, cmd string, args []string) (library.Book, int, error) {
	if len(args) < 1 || len(args) > 2 {
		return library.Book{}, 0, usageErr("%s <id> [page]", cmd)
	}
	b, err := a.Book(args[0])
	if err != nil {
		return library.Book{}, 0, err
	}
	page := b.LastPage
	if len(args) == 2 {
		page, err = strconv.Atoi(args[1])
		if err != nil || page < 1 {
			return library.Book{}, 0, usageErr("page must be a number from 1")
		}
	}
	return b, page, nil
}

func cmdRead(a *app.App, args []string, out io.Writer) error {
	b, page, err := bookPage(a, "read", args)
	if err != nil {
		return err
	}
	p, err := a.OpenPage(b.ID, page)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s | %s | %s\n\n%s\n", b.Name, p.Title, pageString(library.Book{LastPage: p.Number, TotalPage: p.Total}), p.Text)
	return nil
}

func cmdTranslate(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	b, page, err := bookPage(a, "translate", args)
	if err != nil {
		return err
	}
	text, err := a.TranslatePage(ctx, b.ID, page)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, text)
	return nil
}
