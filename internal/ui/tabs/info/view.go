package info

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/stepmeter/internal/ui/styles"
	"github.com/j-veylop/stepmeter/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderSensorCard(),
		m.renderConfigCard(),
		m.renderAboutCard(),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Sensor, configuration and build information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 80)
}

func (m *Model) renderSensorCard() string {
	rows := []string{styles.CardTitleStyle.Render("Sensor")}

	status := m.state.GetStatus()
	switch {
	case status.Running:
		rows = append(rows,
			m.renderConfigRow("State", styles.SuccessTextStyle.Render("tracking")),
			m.renderConfigRow("Source", status.Source.String()),
		)
	case status.Reason != "":
		rows = append(rows,
			m.renderConfigRow("State", styles.WarningTextStyle.Render("unavailable")),
			m.renderConfigRow("Reason", status.Reason),
		)
	default:
		rows = append(rows, m.renderConfigRow("State", styles.HelpStyle.Render("starting")))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration")}

	cfg := m.config
	if cfg == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	rows = append(rows,
		m.renderConfigRow("Database", cfg.DatabasePath),
		m.renderConfigRow("Backend", cfg.SensorBackend),
	)
	switch cfg.SensorBackend {
	case "file":
		rows = append(rows, m.renderConfigRow("Feed File", cfg.SensorFilePath))
	case "iio":
		rows = append(rows, m.renderConfigRow("IIO Root", cfg.IIORoot))
	}
	if len(cfg.SensorFileKinds) > 0 {
		rows = append(rows, m.renderConfigRow("Preference", strings.Join(cfg.SensorFileKinds, " > ")))
	}

	rows = append(rows,
		m.renderConfigRow("Daily Goal", humanize.Comma(int64(cfg.DailyGoal))+" steps"),
		m.renderConfigRow("Retention", fmt.Sprintf("%d days", cfg.RetentionDays)),
		m.renderConfigRow("Notifications", notifySummary(cfg.NotifyEnabled, cfg.NotifyInterval.String())),
		m.renderConfigRow("MQTT", orNone(cfg.MQTTBroker)),
	)
	if cfg.MQTTBroker != "" {
		rows = append(rows, m.renderConfigRow("MQTT Publish", fmt.Sprintf("%t (%s/...)", cfg.MQTTPublish, cfg.MQTTTopicPrefix)))
	}
	rows = append(rows,
		m.renderConfigRow("HTTP API", orNone(cfg.HTTPAddr)),
		m.renderConfigRow("Log File", orNone(cfg.LogPath)),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func notifySummary(enabled bool, every string) string {
	if !enabled {
		return "off"
	}
	return "every " + every
}

func orNone(s string) string {
	if s == "" {
		return "disabled"
	}
	return s
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(16).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About stepmeter"),
		m.renderConfigRow("Version", version.GetVersion()),
		m.renderConfigRow("Git Commit", version.GetCommit()),
		m.renderConfigRow("Build Date", version.GetDate()),
		m.renderConfigRow("Go Version", runtime.Version()),
		m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
