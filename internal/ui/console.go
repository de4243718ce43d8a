// Package ui provides styled console output for the quadrelay server.
// It colorizes request logs, provider status lines, and startup messages.
package ui

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR DEFINITIONS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// Badge colors
	successBadge = color.New(color.BgGreen, color.FgBlack, color.Bold)
	warningBadge = color.New(color.FgYellow, color.Bold)
	errorBadge   = color.New(color.BgRed, color.FgWhite, color.Bold)
	infoBadge    = color.New(color.FgCyan, color.Bold)
	debugBadge   = color.New(color.FgMagenta)

	// Text colors
	successText = color.New(color.FgGreen, color.Bold)
	warningText = color.New(color.FgYellow)
	errorText   = color.New(color.FgRed)
	mutedText   = color.New(color.FgHiBlack)
	accentText  = color.New(color.FgMagenta, color.Bold)

	// Special colors
	neonBlue = color.New(color.FgHiCyan, color.Bold)

	// Method colors
	methodPOST   = color.New(color.BgHiMagenta, color.FgBlack, color.Bold)
	methodGET    = color.New(color.BgHiCyan, color.FgBlack, color.Bold)
	methodPUT    = color.New(color.BgHiYellow, color.FgBlack, color.Bold)
	methodDELETE = color.New(color.BgHiRed, color.FgBlack, color.Bold)
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS BADGES
// ══════════════════════════════════════════════════════════════════════════════

// PrintProviderStatus prints one provider's readiness line.
// Format: ✓ openai  gpt-5.1  ready   /   ✗ grok  grok-3  xAI API key not configured...
func PrintProviderStatus(id, name, model string, available bool, reason string) {
	fmt.Print("  ")
	if available {
		successText.Print("✓ ")
	} else {
		errorText.Print("✗ ")
	}
	accentText.Printf("%-10s", id)
	fmt.Printf("%-34s ", model)
	if available {
		successText.Println("ready")
	} else {
		mutedText.Println(reason)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST LOGGING
// ══════════════════════════════════════════════════════════════════════════════

// PrintRequest logs a request with styled output.
// Color-codes status, method, and latency for quick visual parsing.
func PrintRequest(method, path string, status int, latency time.Duration) {
	// Timestamp
	mutedText.Printf("%s ", time.Now().Format("15:04:05"))

	// Method badge
	printMethodBadge(method)
	fmt.Print(" ")

	// Path
	fmt.Printf("%-36s ", truncatePath(path, 36))

	// Status badge
	printStatusBadge(status)
	fmt.Print(" ")

	// Latency with color gradient
	printLatency(latency)

	fmt.Println()
}

// printMethodBadge prints the HTTP method with appropriate color.
func printMethodBadge(method string) {
	switch method {
	case "POST":
		methodPOST.Printf(" %s ", method)
	case "GET":
		methodGET.Printf(" %s ", method)
	case "PUT":
		methodPUT.Printf(" %s ", method)
	case "DELETE":
		methodDELETE.Printf(" %s ", method)
	default:
		debugBadge.Printf(" %s ", method)
	}
}

// printStatusBadge prints the status code with appropriate color.
func printStatusBadge(status int) {
	switch {
	case status >= 200 && status < 300:
		successBadge.Printf(" %d ", status)
	case status >= 300 && status < 400:
		infoBadge.Printf(" %d ", status)
	case status >= 400 && status < 500:
		warningBadge.Printf(" %d ", status)
	default:
		errorBadge.Printf(" %d ", status)
	}
}

// printLatency prints latency with color gradient.
// Green: < 100ms, Yellow: < 500ms, Red: >= 500ms
func printLatency(latency time.Duration) {
	ms := latency.Milliseconds()
	latencyStr := fmt.Sprintf("%4dms", ms)

	switch {
	case ms < 100:
		successText.Print(latencyStr)
	case ms < 500:
		warningText.Print(latencyStr)
	default:
		errorText.Print(latencyStr)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// UTILITY FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

// truncatePath truncates a path to maxLen characters.
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return path[:maxLen-3] + "..."
}

// ══════════════════════════════════════════════════════════════════════════════
// STARTUP MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// PrintStartupInfo prints styled server startup information.
func PrintStartupInfo(host string, port int, availableProviders, totalProviders int) {
	fmt.Println()
	infoBadge.Print("[RELAY]")
	fmt.Print(" Server starting on ")
	neonBlue.Printf("http://%s:%d\n", host, port)

	infoBadge.Print("[RELAY]")
	fmt.Print(" Providers ready: ")
	if availableProviders > 0 {
		successText.Printf("%d", availableProviders)
	} else {
		errorText.Printf("%d", availableProviders)
	}
	mutedText.Printf(" of %d\n", totalProviders)

	fmt.Println()
	printEndpoints()
}

// printEndpoints prints the main API endpoints.
func printEndpoints() {
	mutedText.Println("  ┌──────────────────────────────────────────────────────────────┐")

	mutedText.Print("  │ ")
	methodPOST.Print(" POST ")
	fmt.Print(" /api/conversations/:id/messages ")
	mutedText.Print(" Send a chat message    ")
	mutedText.Println("│")

	mutedText.Print("  │ ")
	methodPOST.Print(" POST ")
	fmt.Print(" /api/chat/batch                 ")
	mutedText.Print(" Fan out to providers   ")
	mutedText.Println("│")

	mutedText.Print("  │ ")
	methodGET.Print(" GET  ")
	fmt.Print(" /api/providers                  ")
	mutedText.Print(" Provider availability  ")
	mutedText.Println("│")

	mutedText.Print("  │ ")
	methodGET.Print(" GET  ")
	fmt.Print(" /health                         ")
	mutedText.Print(" Health check           ")
	mutedText.Println("│")

	mutedText.Println("  └──────────────────────────────────────────────────────────────┘")
	fmt.Println()
}

// PrintShutdown prints a styled shutdown message.
func PrintShutdown() {
	fmt.Println()
	warningBadge.Print("[SHUTDOWN]")
	warningText.Println(" Graceful shutdown initiated...")
}

// PrintGoodbye prints a styled goodbye message.
func PrintGoodbye() {
	successBadge.Print(" OK ")
	fmt.Print(" ")
	successText.Println("Server stopped. Goodbye! 👋")
}
