package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Walks     []WalkResult
	Articles  []ArticleOutcome
	Written   int
}

func (r *Report) Failed() int {
	n := 0
	for _, a := range r.Articles {
		if a.Err != nil {
			n++
		}
	}
	return n
}

// WriteTo renders the report as aligned plain-text tables.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "run %s (%s)\n\n", r.RunID, r.Duration.Round(time.Millisecond))

	pages := [][]string{{"source", "page", "links", "new", "error"}}
	for _, walk := range r.Walks {
		for _, p := range walk.Pages {
			pages = append(pages, []string{walk.Source, fmt.Sprint(p.Page), fmt.Sprint(p.Links), fmt.Sprint(p.New), errText(p.Err)})
		}
	}
	writeTable(&sb, pages)
	sb.WriteString("\n")

	walks := [][]string{{"source", "stopped", "urls", "feed", "reason"}}
	for _, walk := range r.Walks {
		feed := fmt.Sprint(walk.FeedLinks)
		if walk.FeedErr != nil {
			feed = "error"
		}
		walks = append(walks, []string{walk.Source, string(walk.Reason), fmt.Sprint(len(walk.URLs)), feed, errText(walk.Err)})
	}
	writeTable(&sb, walks)

	if failed := r.Failed(); failed > 0 {
		sb.WriteString("\n")
		rows := [][]string{{"url", "error"}}
		for _, a := range r.Articles {
			if a.Err != nil {
				rows = append(rows, []string{a.URL, a.Err.Error()})
			}
		}
		writeTable(&sb, rows)
	}

	fmt.Fprintf(&sb, "\nwritten %d, failed %d, attempted %d\n", r.Written, r.Failed(), len(r.Articles))

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// writeTable pads cells by display width so wide runes line up.
func writeTable(sb *strings.Builder, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	for r, row := range rows {
		for i, cell := range row {
			if i > 0 {
				sb.WriteString("  ")
			}
			if i == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
		}
		sb.WriteString("\n")
		if r == 0 {
			for i, w := range widths {
				if i > 0 {
					sb.WriteString("  ")
				}
				sb.WriteString(strings.Repeat("-", max(w, 3)))
			}
			sb.WriteString("\n")
		}
	}
}
