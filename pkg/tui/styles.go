package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorPurple      = lipgloss.Color("#7D56F4")
	ColorGreen       = lipgloss.Color("#25A065")
	ColorBlue        = lipgloss.Color("#4285F4")
	ColorRed         = lipgloss.Color("#E05252")
	ColorYellow      = lipgloss.Color("#E5C07B")
	ColorGray        = lipgloss.Color("#626262")
	ColorGrayDim     = lipgloss.Color("#404040")
	ColorWhite       = lipgloss.Color("#FFFFFF")
	ColorOffWhite    = lipgloss.Color("#D0D0D0")
	ColorSelectionBg = lipgloss.Color("#2D3B4D")
	ColorCyan        = lipgloss.Color("#56B6C2")
	ColorOrange      = lipgloss.Color("#D19A66")
	ColorMoveBg      = lipgloss.Color("#3E2F1F")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)

	HeaderCountStyle = lipgloss.NewStyle().
				Foreground(ColorGray)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	StatusLineStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	PathStyle = lipgloss.NewStyle().
			Foreground(ColorGrayDim)
)

// List tabs
var (
	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorPurple).
			Padding(0, 1)

	InactiveTabStyle = lipgloss.NewStyle().
				Foreground(ColorGray).
				Padding(0, 1)
)

// Outline rows
var (
	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorSelectionBg)

	DoneStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	DoneTitleStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Strikethrough(true)

	DoingStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	TodoStyle = lipgloss.NewStyle().
			Foreground(ColorOffWhite)

	ProgressStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	MoveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorOrange).
			Background(ColorMoveBg)

	DepthIndent = "  "
)

var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPurple).
			Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)

	InputPromptStyle = lipgloss.NewStyle().
				Foreground(ColorPurple).
				Bold(true)
)

// Search
var (
	ColorSearchRowBg  = lipgloss.Color("#1E1A2E")
	ColorSearchCharBg = lipgloss.Color("#2E2545")

	SearchBarStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	SearchRowStyle = lipgloss.NewStyle().
			Background(ColorSearchRowBg)

	SearchCharStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple).
			Background(ColorSearchCharBg)

	SearchCharSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPurple).
				Background(ColorSelectionBg)

	SearchCountStyle = lipgloss.NewStyle().
				Foreground(ColorGray)
)

const (
	IconDone      = "✓"
	IconDoing     = "◐"
	IconTodo      = "○"
	IconExpanded  = "▼"
	IconCollapsed = "▶"
	IconMove      = "↕"
)
