package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/stepmeter/internal/models"
	"github.com/j-veylop/stepmeter/internal/ui/components"
	"github.com/j-veylop/stepmeter/internal/ui/styles"
)

// View renders the history tab.
func (m *Model) View() string {
	if m.errorMsg != "" {
		return m.renderError()
	}
	if !m.loaded {
		return m.renderLoading()
	}

	sections := []string{m.renderHeader()}
	if m.pending != nil {
		sections = append(sections, m.renderConfirm())
	}
	sections = append(sections,
		m.renderDayCard(),
		m.renderRangeCard(),
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

func (m *Model) renderLoading() string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(styles.HelpStyle.Render("Loading history..."))
}

func (m *Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("History: " + m.day.Label())

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)
	rangeIndicator := rangeStyle.Render(fmt.Sprintf("[t] %s", m.timeRange.String()))

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator)

	nav := "← older"
	if m.day != m.today() {
		nav += "   newer →"
	} else {
		nav += "   (today)"
	}
	subtitle := styles.HelpStyle.Render(nav)
	if !m.lastRefresh.IsZero() {
		subtitle += styles.HelpStyle.Render("   updated " + m.lastRefresh.Format("15:04:05"))
	}
	if m.loading {
		subtitle += styles.HelpStyle.Render("   refreshing...")
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, "")
}

func (m *Model) renderConfirm() string {
	what := fmt.Sprintf("Delete all steps recorded on %s?", m.pending.Day.Label())
	if m.pending.Hour >= 0 {
		what = fmt.Sprintf("Delete the %02d:00 hour of %s?", m.pending.Hour, m.pending.Day.Label())
	}
	return styles.ConfirmStyle.Render(what + "  [y] yes  [n] no")
}

func (m *Model) renderDayCard() string {
	width := m.cardWidth()
	total := m.series.Total()

	summary := fmt.Sprintf("%s steps in %d active hours",
		styles.BigNumberStyle.Render(humanize.Comma(int64(total))),
		m.series.ActiveHours(),
	)
	if m.day == m.today() {
		// The open hour is not in the ledger yet.
		_, live, _ := m.state.GetSteps()
		if live > total {
			summary += styles.HelpStyle.Render(fmt.Sprintf("  (%s live)", humanize.Comma(int64(live))))
		}
	}

	rows := []string{
		styles.CardTitleStyle.Render("Hourly"),
		summary,
		"",
		components.RenderHourlyChart(m.series, width-16, 8, "steps per hour"),
		"",
		components.RenderHourlyHeatmap(m.series.Values()),
		"",
		m.renderHourTable(),
	}
	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderHourTable lists a window of hours around the selected one.
func (m *Model) renderHourTable() string {
	const window = 6

	start := min(max(m.hour-window/2, 0), models.HoursPerDay-window)
	lines := []string{styles.TableHeaderStyle.Render(fmt.Sprintf("%-13s %10s", "Hour", "Steps"))}

	for h := start; h < start+window; h++ {
		line := fmt.Sprintf("%02d:00-%02d:00   %10s", h, (h+1)%24, humanize.Comma(int64(m.hourSteps(h))))
		if h == m.hour {
			line = styles.TableSelectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderRangeCard() string {
	width := m.cardWidth()
	rows := []string{styles.CardTitleStyle.Render("Daily Totals: " + m.timeRange.String())}

	if len(m.totals) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No daily data available"))
		return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	values := components.DailyValues(m.totals)
	goal := m.state.GetGoal()

	if m.timeRange == models.TimeRange7Days {
		labels := make([]string, len(m.totals))
		for i, t := range m.totals {
			labels[i] = t.Day.Label()
		}
		rows = append(rows, components.RenderBarChart(values, labels, width-8))
	} else {
		rows = append(rows,
			components.RenderLineChart(values, width-16, 8, fmt.Sprintf("last %d days", len(values))),
			"",
			lipgloss.NewStyle().Foreground(styles.Primary).Render(components.RenderSparkline(values, width-8)),
		)
	}

	sum, best, bestDay, reached := 0, 0, models.Day(""), 0
	for _, t := range m.totals {
		sum += t.Steps
		if t.Steps > best {
			best, bestDay = t.Steps, t.Day
		}
		if goal > 0 && t.Steps >= goal {
			reached++
		}
	}
	avg := sum / len(m.totals)

	rows = append(rows, "", styles.HelpStyle.Render(fmt.Sprintf("Average %s/day, goal met on %d of %d days",
		humanize.Comma(int64(avg)), reached, len(m.totals))))
	if best > 0 {
		rows = append(rows, fmt.Sprintf("Best: %s with %s steps",
			lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).Render(bestDay.Label()),
			humanize.Comma(int64(best))))
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
