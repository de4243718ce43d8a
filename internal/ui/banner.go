// Package ui provides styled console output for the quadrelay server.
package ui

import (
	"fmt"

	"github.com/fatih/color"
)

// ══════════════════════════════════════════════════════════════════════════════
// ASCII ART BANNER
// ══════════════════════════════════════════════════════════════════════════════

// PrintBanner displays the ASCII art startup banner.
func PrintBanner() {
	// Clear some space
	fmt.Println()

	cyan := color.New(color.FgCyan, color.Bold)
	magenta := color.New(color.FgMagenta, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	white := color.New(color.FgWhite)
	dim := color.New(color.FgHiBlack)

	quad := []string{
		" ██████╗ ██╗   ██╗ █████╗ ██████╗ ",
		"██╔═══██╗██║   ██║██╔══██╗██╔══██╗",
		"██║   ██║██║   ██║███████║██║  ██║",
		"██║▄▄ ██║██║   ██║██╔══██║██║  ██║",
		"╚██████╔╝╚██████╔╝██║  ██║██████╔╝",
		" ╚══▀▀═╝  ╚═════╝ ╚═╝  ╚═╝╚═════╝ ",
	}
	relay := []string{
		"██████╗ ███████╗██╗      █████╗ ██╗   ██╗",
		"██╔══██╗██╔════╝██║     ██╔══██╗╚██╗ ██╔╝",
		"██████╔╝█████╗  ██║     ███████║ ╚████╔╝ ",
		"██╔══██╗██╔══╝  ██║     ██╔══██║  ╚██╔╝  ",
		"██║  ██║███████╗███████╗██║  ██║   ██║   ",
		"╚═╝  ╚═╝╚══════╝╚══════╝╚═╝  ╚═╝   ╚═╝   ",
	}

	for i := range quad {
		fmt.Print("  ")
		cyan.Print(quad[i])
		dim.Print("  ")
		magenta.Println(relay[i])
	}

	fmt.Println()
	fmt.Print("  ")
	yellow.Print("MULTI-PROVIDER CHAT RELAY")
	dim.Print("  │  ")
	white.Print("OpenAI · Anthropic · Google · xAI")
	dim.Print("  │  ")
	white.Println("v1.0.0")
	fmt.Println()
}
