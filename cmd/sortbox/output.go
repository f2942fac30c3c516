package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/0xjjjjjj/sortbox/internal/history"
	"github.com/0xjjjjjj/sortbox/internal/organizer"
	"github.com/0xjjjjjj/sortbox/internal/rules"
	"github.com/0xjjjjjj/sortbox/internal/scanner"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))
)

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeListingJSON(root string, entries []scanner.Entry) error {
	return scanner.WriteJSON(os.Stdout, root, entries)
}

func printListing(root string, entries []scanner.Entry) {
	fmt.Println(titleStyle.Render(root))
	files := 0
	for _, e := range entries {
		switch {
		case e.IsDir:
			fmt.Printf("  %s/\n", e.Name)
		case e.Regular:
			files++
			fmt.Printf("  %s %s\n", e.Name, dimStyle.Render(history.FormatSize(e.Size)))
		default:
			fmt.Printf("  %s %s\n", e.Name, dimStyle.Render("(skipped)"))
		}
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf("%d files to sort", files)))
}

func outputPlan(p *organizer.Plan) error {
	if jsonOut {
		return writeJSON(p)
	}

	if p.Empty() {
		fmt.Println(dimStyle.Render("Nothing to sort in " + p.Root))
		return nil
	}
	for _, folder := range p.Folders() {
		files := p.ByFolder[folder]
		fmt.Printf("\n%s %s\n", titleStyle.Render(folder+"/"), dimStyle.Render(fmt.Sprintf("(%d files)", len(files))))
		for _, f := range files {
			fmt.Printf("  %s\n", filepath.Base(f.Source))
		}
	}
	return nil
}

func renderSort(events <-chan organizer.Event, total int) error {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Sorting"),
		progressbar.OptionClearOnFinish(),
	)

	var failures []organizer.Event
	var completed *organizer.Event
	moved := 0
	for ev := range events {
		switch ev.Kind {
		case organizer.EventFolderCreated:
			logger.Debug("folder created", "path", ev.Dest)
		case organizer.EventFileMoved:
			moved++
			logger.Debug("file moved", "from", ev.Source, "to", ev.Dest)
		case organizer.EventProgress:
			_ = bar.Set(ev.Moved)
		case organizer.EventItemFailed:
			failures = append(failures, ev)
		case organizer.EventCompleted:
			completed = &ev
		}
	}
	_ = bar.Finish()

	for _, f := range failures {
		fmt.Println(errorStyle.Render(fmt.Sprintf("✗ %s: %v", filepath.Base(f.Source), f.Err)))
	}
	if completed == nil || completed.Result == nil {
		return fmt.Errorf("sort ended without a result")
	}

	res := completed.Result
	if dryRun {
		fmt.Println(okStyle.Render(fmt.Sprintf("Would move %d of %d files", moved, res.Total)))
		return nil
	}
	summary := fmt.Sprintf("Moved %d of %d files", moved, res.Total)
	if res.Cancelled {
		summary += " (stopped early)"
	}
	fmt.Println(okStyle.Render(summary))
	if moved > 0 {
		fmt.Println(dimStyle.Render("Run `sortbox undo` to put them back."))
	}
	return completed.Err
}

func renderUndo(events <-chan organizer.Event) error {
	var completed *organizer.Event
	for ev := range events {
		switch ev.Kind {
		case organizer.EventItemRestored:
			fmt.Printf("  %s → %s\n", dimStyle.Render(ev.Source), ev.Dest)
		case organizer.EventItemFailed:
			fmt.Println(errorStyle.Render(fmt.Sprintf("✗ %s: %v", ev.Source, ev.Err)))
		case organizer.EventCompleted:
			completed = &ev
		}
	}
	if completed == nil || completed.Undo == nil {
		return fmt.Errorf("undo ended without a result")
	}

	res := completed.Undo
	fmt.Println(okStyle.Render(fmt.Sprintf("Restored %d files, %d failed, removed %d empty folders",
		len(res.Restored), len(res.Failures), len(res.RemovedDirs))))
	return completed.Err
}

func printRules(t *rules.Table) error {
	rows := t.Rows()
	if jsonOut {
		return writeJSON(rows)
	}
	for _, r := range rows {
		fmt.Printf("%s %s\n", titleStyle.Render(r.Folder), r.Extensions)
	}
	fmt.Println(dimStyle.Render("Anything else goes to " + rules.Fallback))
	return nil
}

func printBatches(batches []history.BatchSummary) error {
	if jsonOut {
		return writeJSON(batches)
	}
	if len(batches) == 0 {
		fmt.Println("No sorts recorded")
		return nil
	}
	for _, b := range batches {
		state := okStyle.Render("undoable")
		if b.UndoneAt != nil {
			state = dimStyle.Render("undone " + b.UndoneAt.Local().Format("2006-01-02 15:04"))
		}
		fmt.Printf("%s | %s | %d files, %s | %s\n",
			b.CreatedAt.Local().Format("2006-01-02 15:04"),
			b.Root,
			b.Files,
			history.FormatSize(b.Size),
			state)
	}
	return nil
}

func printMoves(moves []history.Move) error {
	if jsonOut {
		return writeJSON(moves)
	}
	if len(moves) == 0 {
		fmt.Println("No moves found")
		return nil
	}
	for _, m := range moves {
		line := fmt.Sprintf("%s | %s -> %s", m.CreatedAt.Local().Format("2006-01-02 15:04"), m.Original, m.Final)
		if m.Undone {
			line = dimStyle.Render(line + " (undone)")
		}
		fmt.Println(line)
	}
	return nil
}
