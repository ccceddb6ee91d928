package chat

// ANSI color codes
const (
	colorReset      = "\033[0m"
	colorLightBrown = "\033[38;5;180m" // user messages
	colorOrange     = "\033[38;5;208m"
	colorGray       = "\033[90m"
	colorGreen      = "\033[32m"
	colorBold       = "\033[1m"
)
