package notify

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/devantler-tech/scalebench/pkg/utils/timer"
	fcolor "github.com/fatih/color"
)

// MessageType defines the type of notification message.
type MessageType int

const (
	// ErrorType is red with a ✗ symbol.
	ErrorType MessageType = iota
	// WarningType is yellow with a ⚠ symbol.
	WarningType
	// ActivityType is uncolored with a ► symbol.
	ActivityType
	// GenerateType is uncolored with a ✚ symbol and marks written files.
	GenerateType
	// SuccessType is green with a ✔ symbol.
	SuccessType
	// InfoType is blue with an ℹ symbol.
	InfoType
	// TitleType is bold and prefixed by an emoji.
	TitleType
)

// Message is a single notification.
type Message struct {
	Type    MessageType
	Content string
	Args    []any
	// Timer adds a timing block after success messages when set.
	Timer timer.Timer
	// Emoji prefixes TitleType messages.
	Emoji string
	// Writer defaults to os.Stdout.
	Writer io.Writer
}

// Errorf writes an error message.
func Errorf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: ErrorType, Content: format, Args: args, Writer: writer})
}

// Warningf writes a warning message.
func Warningf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: WarningType, Content: format, Args: args, Writer: writer})
}

// Activityf writes a progress message.
func Activityf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: ActivityType, Content: format, Args: args, Writer: writer})
}

// Generatef writes a file generation message.
func Generatef(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: GenerateType, Content: format, Args: args, Writer: writer})
}

// Successf writes a success message.
func Successf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: SuccessType, Content: format, Args: args, Writer: writer})
}

// SuccessWithTimerf writes a success message followed by timing information.
func SuccessWithTimerf(writer io.Writer, tmr timer.Timer, format string, args ...any) {
	WriteMessage(Message{
		Type:    SuccessType,
		Content: format,
		Args:    args,
		Timer:   tmr,
		Writer:  writer,
	})
}

// Infof writes an informational message.
func Infof(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: InfoType, Content: format, Args: args, Writer: writer})
}

// Titlef writes a stage title prefixed by emoji.
func Titlef(writer io.Writer, emoji, format string, args ...any) {
	WriteMessage(Message{
		Type:    TitleType,
		Content: fmt.Sprintf(format, args...),
		Emoji:   emoji,
		Writer:  writer,
	})
}

// WriteMessage writes msg with the styling of its type.
// Continuation lines of multi-line content are indented under the first line.
func WriteMessage(msg Message) {
	if msg.Writer == nil {
		msg.Writer = os.Stdout
	}

	content := msg.Content
	if len(msg.Args) > 0 {
		content = fmt.Sprintf(msg.Content, msg.Args...)
	}

	style := styleFor(msg.Type)

	if msg.Type == TitleType {
		emoji := msg.Emoji
		if emoji == "" {
			emoji = "ℹ️"
		}

		_, err := style.color.Fprintf(msg.Writer, "%s %s\n", emoji, content)
		reportWriteError(err)

		return
	}

	content = indentContinuation(content, style.symbol)

	_, err := style.color.Fprintf(msg.Writer, "%s%s\n", style.symbol, content)
	reportWriteError(err)

	if msg.Type == SuccessType && msg.Timer != nil {
		total, stage := msg.Timer.GetTiming()

		_, err = style.color.Fprintf(msg.Writer, "⏲ current: %s\n  total:  %s\n", stage, total)
		reportWriteError(err)
	}
}

type style struct {
	symbol string
	color  *fcolor.Color
}

func styleFor(msgType MessageType) style {
	switch msgType {
	case ErrorType:
		return style{symbol: "✗ ", color: fcolor.New(fcolor.FgRed)}
	case WarningType:
		return style{symbol: "⚠ ", color: fcolor.New(fcolor.FgYellow)}
	case ActivityType:
		return style{symbol: "► ", color: fcolor.New(fcolor.Reset)}
	case GenerateType:
		return style{symbol: "✚ ", color: fcolor.New(fcolor.Reset)}
	case SuccessType:
		return style{symbol: "✔ ", color: fcolor.New(fcolor.FgGreen)}
	case InfoType:
		return style{symbol: "ℹ ", color: fcolor.New(fcolor.FgBlue)}
	case TitleType:
		return style{color: fcolor.New(fcolor.Reset, fcolor.Bold)}
	default:
		return style{color: fcolor.New(fcolor.Reset)}
	}
}

// reportWriteError logs to stderr instead of failing the caller.
func reportWriteError(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "notify: failed to print message: %v\n", err)
	}
}

func indentContinuation(content, symbol string) string {
	if symbol == "" || !strings.Contains(content, "\n") {
		return content
	}

	indent := strings.Repeat(" ", len([]rune(symbol)))
	lines := strings.Split(content, "\n")

	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}

	return strings.Join(lines, "\n")
}
