package health

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true).
			PaddingLeft(2)

	tailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			PaddingLeft(2)
)

func pass(msg string) string { return passStyle.Render("[OK]") + "   " + msg }
func warn(msg string) string { return warnStyle.Render("[!!]") + "   " + msg }
func fail(msg string) string { return failStyle.Render("[FAIL]") + " " + msg }

// Render writes the human-readable report. The NOT INSTALLED and NOT
// RUNNING lines are stable text that monitors may match on.
func Render(w io.Writer, r Report) {
	var lines []string
	add := func(s string) { lines = append(lines, s) }

	add(titleStyle.Render("Health check: " + r.Service))
	add("")

	if !r.Installed {
		add(fail("NOT INSTALLED: " + r.Service + " is not known to the init system"))
		add(hintStyle.Render("install it with: sudo newsctl install"))
		fmt.Fprintln(w, strings.Join(lines, "\n"))
		return
	}
	add(pass("installed"))

	if r.Enabled {
		add(pass("enabled at boot"))
	} else {
		add(warn("not enabled at boot"))
		add(hintStyle.Render("enable it with: sudo systemctl enable " + r.Service))
	}

	if !r.Running {
		add(fail("NOT RUNNING: " + r.Service + " is " + r.Status))
		add(hintStyle.Render("inspect the error log: tail -n 50 " + r.ErrorLog))
		add(hintStyle.Render("start it with: sudo newsctl start"))
		fmt.Fprintln(w, strings.Join(lines, "\n"))
		return
	}
	add(pass("running"))
	if r.MainPID > 0 {
		add(fmt.Sprintf("       PID:          %d", r.MainPID))
	}
	if !r.ActiveSince.IsZero() {
		add(fmt.Sprintf("       Active since: %s (%s)",
			r.ActiveSince.Format("2006-01-02 15:04:05 MST"),
			humanDuration(r.CheckedAt.Sub(r.ActiveSince))))
	}

	add("")
	add(titleStyle.Render("Logs"))
	for _, l := range r.Logs {
		if !l.Exists {
			add(warn(fmt.Sprintf("%-6s log missing: %s", l.Name, l.Path)))
			continue
		}
		add(pass(fmt.Sprintf("%-6s log %s (%s, %d lines)", l.Name, l.Path, humanSize(l.Size), l.Lines)))
	}

	add("")
	add(titleStyle.Render(fmt.Sprintf("Recent output (last %d lines)", TailLines)))
	if len(r.Tail) == 0 {
		add(tailStyle.Render("(no output yet)"))
	}
	for _, line := range r.Tail {
		add(tailStyle.Render(line))
	}

	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func humanDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	if days > 0 {
		return fmt.Sprintf("up %dd %s", days, d)
	}
	return "up " + d.String()
}
