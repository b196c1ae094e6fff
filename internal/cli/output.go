package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mhp-content/internal/reliability"
	"mhp-content/internal/service"
	"mhp-content/internal/store"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#04B575"))
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)
	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)
)

func printTitle(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

func printReport(w io.Writer, title string, r *service.Report) {
	printTitle(w, title)
	fmt.Fprintf(w, "  total:     %d\n", r.Total)
	fmt.Fprintf(w, "  %s %d\n", okStyle.Render("succeeded:"), r.Succeeded)
	if r.Skipped > 0 {
		fmt.Fprintf(w, "  %s   %d\n", mutedStyle.Render("skipped:"), r.Skipped)
	}
	if r.Failed() > 0 {
		fmt.Fprintf(w, "  %s    %d\n", errorStyle.Render("failed:"), r.Failed())
		for _, f := range r.Failures {
			fmt.Fprintf(w, "    %s %s\n", errorStyle.Render("✗"), f.Error())
		}
	}
}

func printValidation(w io.Writer, vr *service.ValidationReport) {
	printTitle(w, "Validation")
	for _, a := range vr.Articles {
		name := a.Slug
		if name == "" {
			name = a.Title
		}
		if a.Valid() {
			fmt.Fprintf(w, "  %s %s (%s)\n", okStyle.Render("✓"), name, a.Category)
			continue
		}
		fmt.Fprintf(w, "  %s %s (%s)\n", errorStyle.Render("✗"), name, a.Category)
		if a.Error != "" {
			fmt.Fprintf(w, "      %s\n", a.Error)
		}
		if a.Result != nil {
			for _, fe := range a.Result.Errors {
				fmt.Fprintf(w, "      %s\n", fe.String())
			}
		}
	}
	fmt.Fprintf(w, "\n  total: %d  %s  %s\n",
		vr.Total,
		okStyle.Render(fmt.Sprintf("valid: %d", vr.Valid)),
		errorStyle.Render(fmt.Sprintf("invalid: %d", vr.Invalid)),
	)
}

func printSummary(w io.Writer, summary []reliability.CategorySummary) {
	if len(summary) == 0 {
		return
	}
	printTitle(w, "Reliability by category")
	for _, s := range summary {
		fmt.Fprintf(w, "  %-18s n=%-3d avg=%.2f  high=%.2f %s  low=%.2f %s\n",
			s.Category, s.Count, s.Average,
			s.Highest.Score, mutedStyle.Render(s.Highest.Title),
			s.Lowest.Score, mutedStyle.Render(s.Lowest.Title),
		)
	}
}

func printMatches(w io.Writer, query string, matches []store.Match) {
	printTitle(w, fmt.Sprintf("Results for %q", query))
	if len(matches) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  no articles above the threshold"))
		return
	}
	for i, m := range matches {
		fmt.Fprintf(w, "  %d. %s %s\n", i+1, m.Article.Title, mutedStyle.Render(fmt.Sprintf("(%s, %.3f)", m.Article.Category, m.Similarity)))
		if m.Article.Summary != "" {
			fmt.Fprintf(w, "     %s\n", truncate(m.Article.Summary, 120))
		}
	}
}

func printChecks(w io.Writer, checks []service.Check) {
	printTitle(w, "Setup verification")
	for _, c := range checks {
		mark := okStyle.Render("✓")
		switch {
		case !c.OK:
			mark = errorStyle.Render("✗")
		case c.Warning:
			mark = warnStyle.Render("!")
		}
		line := "  " + mark + " " + c.Name
		if c.Detail != "" {
			line += " " + mutedStyle.Render(c.Detail)
		}
		fmt.Fprintln(w, line)
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
