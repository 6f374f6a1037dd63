package dashboard

import (
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/stepmeter/internal/models"
	"github.com/j-veylop/stepmeter/internal/ui/components"
	"github.com/j-veylop/stepmeter/internal/ui/styles"
)

// View renders the dashboard.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	sections := []string{
		m.renderTitle(),
		m.renderStatus(),
		m.renderTodayCard(),
	}
	if m.confirmReset {
		sections = append(sections, m.renderResetPrompt())
	}
	sections = append(sections,
		m.renderProjectionCard(),
		m.renderHourlyCard(),
	)

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

func (m *Model) renderTitle() string {
	day, _, _ := m.state.GetSteps()
	title := styles.TitleStyle.Render("Today")
	subtitle := styles.HelpStyle.Render(day.Label())
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// renderStatus shows whether the counter is live.
func (m *Model) renderStatus() string {
	status := m.state.GetStatus()
	if status.Running {
		dot := styles.SuccessTextStyle.Render("●")
		return fmt.Sprintf("%s Tracking via %s\n", dot, status.Source)
	}

	dot := lipgloss.NewStyle().Foreground(styles.Subtle).Render("○")
	line := fmt.Sprintf("%s %s", dot, styles.WarningTextStyle.Render("No step data available"))
	if status.Reason != "" {
		line += styles.HelpStyle.Render(" (" + status.Reason + ")")
	}
	return line + "\n"
}

func (m *Model) renderTodayCard() string {
	_, total, openHour := m.state.GetSteps()
	goal := m.state.GetGoal()
	width := m.cardWidth()

	big := styles.BigNumberStyle.Render(humanize.Comma(int64(total))) + styles.HelpStyle.Render(" steps")

	rows := []string{
		styles.CardTitleStyle.Render("Steps"),
		big,
		"",
		m.goalBar.View(total, goal, width-4),
		components.RenderDayBar(m.now(), width-4),
		"",
		styles.HelpStyle.Render(fmt.Sprintf("This hour: %s", humanize.Comma(int64(openHour)))),
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderResetPrompt() string {
	return styles.ConfirmStyle.Render("Reset today's counter to zero? Recorded hours are kept.  [y] yes  [n] no")
}

func (m *Model) renderProjectionCard() string {
	proj := m.state.GetProjection()
	rows := []string{styles.CardTitleStyle.Render("Goal Projection")}

	if proj == nil {
		rows = append(rows, styles.ProjectionUnknownStyle.Render("Not enough data"))
		return styles.ProjectionCardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	badge := styles.GetProjectionStyle(proj.Status).Render(proj.Status.String())
	rows = append(rows,
		fmt.Sprintf("%s  %s", badge, styles.HelpStyle.Render(proj.Confidence+" confidence")),
		"",
		row("Pace", formatRate(proj.Rate)),
		row("Projected", humanize.Comma(int64(proj.Projected))+" steps"),
	)

	switch proj.Status {
	case models.ProjectionOnTrack:
		rows = append(rows, row("Goal at", formatReachAt(proj.ReachAt, m.now())))
	case models.ProjectionBehind:
		rows = append(rows, row("Remaining", humanize.Comma(int64(proj.Remaining()))+" steps"))
	}

	rows = append(rows,
		row("History", proj.VsHistorical),
		row("Last week", proj.VsLastWeek),
	)

	return styles.ProjectionCardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderHourlyCard() string {
	series := m.state.GetSeries()
	width := m.cardWidth()

	peakHour, peakSteps := series.Peak()
	summary := styles.HelpStyle.Render("No committed hours yet")
	if peakSteps > 0 {
		summary = styles.HelpStyle.Render(fmt.Sprintf("Busiest hour %02d:00 with %s steps, %d active hours",
			peakHour, humanize.Comma(int64(peakSteps)), series.ActiveHours()))
	}

	rows := []string{
		styles.CardTitleStyle.Render("Hourly"),
		components.RenderHourlyChart(series, width-16, 8, "steps per hour"),
		"",
		components.RenderHourlyHeatmap(series.Values()),
		summary,
	}
	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func row(label, value string) string {
	labelStyle := lipgloss.NewStyle().Width(12).Foreground(styles.TextMuted)
	return labelStyle.Render(label) + " " + lipgloss.NewStyle().Foreground(styles.TextPrimary).Render(value)
}

func formatRate(rate float64) string {
	if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
		return "---"
	}
	return fmt.Sprintf("%s steps/h", humanize.Comma(int64(math.Round(rate))))
}

// formatReachAt renders the expected goal time as a clock time and a
// relative duration.
func formatReachAt(at, now time.Time) string {
	if at.IsZero() {
		return "---"
	}
	d := at.Sub(now)
	if d <= 0 {
		return at.Format("15:04")
	}
	h := int(d.Hours())
	mins := int(d.Minutes()) % 60
	return fmt.Sprintf("%s (in %dh %02dm)", at.Format("15:04"), h, mins)
}
