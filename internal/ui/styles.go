package ui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	ColorSuccess   = lipgloss.Color("#00D26A") // green  — success, confirmed
	ColorWarning   = lipgloss.Color("#FFB800") // yellow — pending, warning
	ColorError     = lipgloss.Color("#FF4444") // red    — error, danger
	ColorInfo      = lipgloss.Color("#00B4D8") // cyan   — info, addresses, hashes
	ColorValue     = lipgloss.Color("#FFFFFF") // white bold — amounts
	ColorMeta      = lipgloss.Color("#555555") // dim gray   — timestamps, metadata
	ColorBorder    = lipgloss.Color("#1E3A5F") // dark blue  — UI chrome
	ColorBrand     = lipgloss.Color("#9B5DE5") // purple     — CROWW brand
	ColorHighlight = lipgloss.Color("#F15BB5") // pink       — selected rows
)

// Base styles.
var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleBrand   = lipgloss.NewStyle().Foreground(ColorBrand).Bold(true)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorBrand).
			Bold(true).
			MarginBottom(1)
)

// Banner returns the crowsale ASCII banner.
func Banner() string {
	art := `
   ██████╗██████╗  ██████╗ ██╗    ██╗███████╗ █████╗ ██╗     ███████╗
  ██╔════╝██╔══██╗██╔═══██╗██║    ██║██╔════╝██╔══██╗██║     ██╔════╝
  ██║     ██████╔╝██║   ██║██║ █╗ ██║███████╗███████║██║     █████╗
  ██║     ██╔══██╗██║   ██║██║███╗██║╚════██║██╔══██║██║     ██╔══╝
  ╚██████╗██║  ██║╚██████╔╝╚███╔███╔╝███████║██║  ██║███████╗███████╗
   ╚═════╝╚═╝  ╚═╝ ╚═════╝  ╚══╝╚══╝ ╚══════╝╚═╝  ╚═╝╚══════╝╚══════╝`

	tagline := StyleMeta.Render("     CROWW presale from the terminal")
	return StyleBrand.Render(art) + "\n" + tagline + "\n"
}

// Success formats a success message.
func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }

// Warn formats a warning message.
func Warn(msg string) string { return StyleWarning.Render("⚠ " + msg) }

// Err formats an error message.
func Err(msg string) string { return StyleError.Render("✗ " + msg) }

// Info formats an informational message.
func Info(msg string) string { return StyleInfo.Render("ℹ " + msg) }

// Hint formats a usage hint.
func Hint(msg string) string { return StyleMeta.Render("💡 " + msg) }

// Addr formats an address.
func Addr(a string) string { return StyleAddress.Render(a) }

// Val formats an amount.
func Val(v string) string { return StyleValue.Render(v) }

// Meta formats metadata text.
func Meta(m string) string { return StyleMeta.Render(m) }

// Brand formats text in the CROWW brand color.
func Brand(s string) string { return StyleBrand.Render(s) }

// DangerBox renders content in a red-bordered box for secret material.
func DangerBox(content string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(ColorError).
		Padding(1, 2).
		Render(content)
}

// TruncateAddr shortens an address for display: 0x1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
