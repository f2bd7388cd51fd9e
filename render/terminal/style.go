package terminal

import "github.com/charmbracelet/lipgloss"

var (
	// Section colors: blue for questions, emerald for answers, purple for
	// dealer and cover fields.
	colorQuestion = lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#60a5fa"}
	colorAnswer   = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34d399"}
	colorField    = lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#a78bfa"}

	// UI colors.
	colorBright = lipgloss.AdaptiveColor{Light: "#0f172a", Dark: "#f1f5f9"}
	colorDim    = lipgloss.AdaptiveColor{Light: "#94a3b8", Dark: "#64748b"}
)

var (
	styleQuestionLabel = lipgloss.NewStyle().Foreground(colorQuestion).Bold(true)
	styleAnswerLabel   = lipgloss.NewStyle().Foreground(colorAnswer).Bold(true)
	styleFieldLabel    = lipgloss.NewStyle().Foreground(colorField).Bold(true)

	styleTitle = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleMeta  = lipgloss.NewStyle().Foreground(colorDim)
	styleBadge = lipgloss.NewStyle().Foreground(colorBright).Bold(true)

	styleStat      = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleStatLabel = lipgloss.NewStyle().Foreground(colorDim)

	styleSeparator = lipgloss.NewStyle().Foreground(colorDim)
)
