package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/stepmeter/internal/logger"
	"github.com/j-veylop/stepmeter/internal/ui/styles"
)

const (
	gradientFrom = "#ff6b6b"
	gradientTo   = "#51cf66"
)

type AnimationTickMsg time.Time

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*50, func(t time.Time) tea.Msg {
		return AnimationTickMsg(t)
	})
}

// GoalBar renders progress toward the daily step goal. Changes to the
// percentage are eased in over a few animation ticks.
type GoalBar struct {
	progress       progress.Model
	targetPercent  float64
	currentPercent float64
	isAnimating    bool
}

// NewGoalBar creates a goal bar with the red-to-green gradient.
func NewGoalBar() GoalBar {
	return GoalBar{
		progress: progress.New(
			progress.WithScaledGradient(gradientFrom, gradientTo),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
	}
}

// Init initializes the progress bar model.
func (g GoalBar) Init() tea.Cmd {
	return nil
}

// Update advances the animation.
func (g GoalBar) Update(msg tea.Msg) (GoalBar, tea.Cmd) {
	var cmds []tea.Cmd

	if _, ok := msg.(AnimationTickMsg); ok && g.isAnimating {
		diff := g.targetPercent - g.currentPercent
		if diff == 0 {
			g.isAnimating = false
		} else {
			step := diff / 10
			if step > 0 && step < 0.5 {
				step = 0.5
			} else if step < 0 && step > -0.5 {
				step = -0.5
			}
			g.currentPercent += step
			if (diff > 0 && g.currentPercent > g.targetPercent) || (diff < 0 && g.currentPercent < g.targetPercent) {
				g.currentPercent = g.targetPercent
			}
			cmds = append(cmds, animationTick())
		}
	}

	model, cmd := g.progress.Update(msg)
	g.progress = model.(progress.Model)
	cmds = append(cmds, cmd)

	return g, tea.Batch(cmds...)
}

// SetPercent sets the target percentage (0-100) and starts animating toward it.
func (g *GoalBar) SetPercent(percent float64) tea.Cmd {
	percent = clampPercent(percent)
	g.targetPercent = percent
	if g.isAnimating || g.currentPercent == percent {
		return nil
	}
	g.isAnimating = true
	return animationTick()
}

// Percent returns the percentage currently displayed.
func (g GoalBar) Percent() float64 {
	return g.currentPercent
}

// Target returns the percentage the bar is moving toward.
func (g GoalBar) Target() float64 {
	return g.targetPercent
}

// SetWidth sets the progress bar width.
func (g *GoalBar) SetWidth(width int) {
	g.progress.Width = width
}

// View renders "label [bar] 42%  4,200 / 10,000".
func (g GoalBar) View(current, goal, width int) string {
	barWidth := max(width-40, 10)
	g.progress.Width = barWidth

	label := styles.ProgressLabelStyle.Width(8).Render("Goal")
	bar := g.progress.ViewAs(g.currentPercent / 100)

	target := goalPercent(current, goal)
	percentStr := styles.GetGoalStyle(target).
		Width(6).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", target))

	counts := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(fmt.Sprintf("%s / %s", humanize.Comma(int64(current)), humanize.Comma(int64(goal))))

	return lipgloss.JoinHorizontal(lipgloss.Center, label, bar, " ", percentStr, "  ", counts)
}

// ViewCompact renders the bar and its percentage only.
func (g GoalBar) ViewCompact(percent float64, width int) string {
	g.progress.Width = max(width-8, 5)
	percent = clampPercent(percent)

	bar := g.progress.ViewAs(percent / 100)
	percentStr := styles.GetGoalStyle(percent).Render(fmt.Sprintf("%.0f%%", percent))
	return lipgloss.JoinHorizontal(lipgloss.Center, bar, " ", percentStr)
}

func goalPercent(current, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	return clampPercent(float64(current) / float64(goal) * 100)
}

func clampPercent(p float64) float64 {
	return min(max(p, 0), 100)
}

// RenderDayBar renders how much of the local day has elapsed at now, with the
// time left until midnight.
func RenderDayBar(now time.Time, width int) string {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)
	left := end.Sub(now)
	fraction := float64(now.Sub(start)) / float64(end.Sub(start))

	label := styles.ProgressLabelStyle.Width(8).Render("Day")
	bar := RenderGradientBar(fraction*100, max(width-30, 10))
	timeStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(fmt.Sprintf("%dh %02dm left", int(left.Hours()), int(left.Minutes())%60))

	return fmt.Sprintf("%s[%s] %s", label, bar, timeStr)
}

// RenderGradientBar renders just the bar part with gradient colors.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := min(max(int(float64(width)*percent/100), 0), width)

	var b strings.Builder
	empty := lipgloss.NewStyle().Foreground(styles.Subtle)
	for i := range width {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(interpolateColor(gradientFrom, gradientTo, t)))
			b.WriteString(style.Render("█"))
		} else {
			b.WriteString(empty.Render("░"))
		}
	}
	return b.String()
}

// RenderLoadingBar renders a shimmer placeholder while data is loading.
func RenderLoadingBar(width, frame int) string {
	const cycle = 120

	barWidth := max(width, 10)
	t := float64(frame%cycle) / float64(cycle)
	p := t * 2
	if t >= 0.5 {
		p = (1 - t) * 2
	}
	eased := p * p * (3 - 2*p)
	shimmerPos := int(eased * float64(barWidth))

	var b strings.Builder
	for i := range barWidth {
		dist := shimmerPos - i
		if dist < 0 {
			dist = -dist
		}
		switch {
		case dist < 3:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Primary).Render("▓"))
		case dist < 5:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.TextSecondary).Render("▒"))
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.BgLight).Render("░"))
		}
	}
	return b.String()
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("Failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
