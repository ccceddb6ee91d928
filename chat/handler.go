// Package chat is the terminal front-end for interactive conversation
// sessions: a prompt loop, a spinner while the backend task runs, and
// markdown rendering for assistant replies.
package chat

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Handler owns terminal I/O for an interactive session.
type Handler struct {
	reader   *bufio.Reader
	spinner  *spinner
	renderer *glamour.TermRenderer
}

// NewHandler creates a terminal chat handler.
func NewHandler() *Handler {
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	return &Handler{
		reader:   bufio.NewReader(os.Stdin),
		spinner:  newSpinner(),
		renderer: renderer,
	}
}

// Welcome prints the session header.
func (h *Handler) Welcome(title string) {
	fmt.Printf("%s%sChatting in conversation '%s'%s\n", colorBold, colorOrange, title, colorReset)
	fmt.Printf("%sType 'exit' or 'quit' to end the conversation.%s\n", colorGray, colorReset)
	fmt.Println()
}

// Prompt reads one user message. The echoed input is repainted so the
// transcript reads as a dialogue.
func (h *Handler) Prompt() (string, error) {
	fmt.Printf("%s>  %s", colorGray, colorReset)
	input, err := h.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	input = strings.TrimSpace(input)
	if input != "" {
		fmt.Print("\033[1A\033[K")
		fmt.Printf("%s>  %s%s%s\n\n", colorGray, colorLightBrown, input, colorReset)
	}
	return input, nil
}

// Thinking starts the waiting animation.
func (h *Handler) Thinking() {
	h.spinner.Start("Agent is thinking...")
}

// Assistant stops the spinner and prints a reply, rendered as markdown
// when the renderer is available.
func (h *Handler) Assistant(content string) {
	h.spinner.Stop()
	if content == "" {
		return
	}
	rendered := content
	if h.renderer != nil {
		if out, err := h.renderer.Render(content); err == nil {
			rendered = out
		}
	}
	fmt.Printf("%s•%s %s\n\n", colorGray, colorReset, strings.TrimSpace(rendered))
}

// Error stops the spinner and reports an error without ending the
// session.
func (h *Handler) Error(err error) {
	h.spinner.Stop()
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// Goodbye ends the session.
func (h *Handler) Goodbye() {
	h.spinner.Stop()
	fmt.Printf("%sGoodbye!%s\n", colorGray, colorReset)
}
