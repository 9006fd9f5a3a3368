package ui

import (
	"fmt"
	"io"
)

// Title prints a highlighted heading.
func Title(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf(format, args...)))
}

// Success prints a line prefixed with a check mark.
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Error prints a line prefixed with a cross.
func Error(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Warning prints a line prefixed with an exclamation mark.
func Warning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, WarningStyle.Render("! "+fmt.Sprintf(format, args...)))
}

// Dim prints secondary, indented text.
func Dim(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, DimStyle.Render("  "+fmt.Sprintf(format, args...)))
}

// Field prints an aligned "label: value" line.
func Field(w io.Writer, label, value string) {
	if value == "" {
		value = DimStyle.Render("-")
	}
	fmt.Fprintf(w, "%s %s\n", BoldStyle.Render(fmt.Sprintf("%-12s", label+":")), value)
}
