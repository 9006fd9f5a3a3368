package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = errors.New("prompt cancelled")

// Input asks for a single line of text.
func Input(title, description string) (string, error) {
	var value string
	input := huh.NewInput().
		Title(title).
		Value(&value)
	if description != "" {
		input = input.Description(description)
	}
	if err := run(huh.NewForm(huh.NewGroup(input))); err != nil {
		return "", err
	}
	return value, nil
}

// Secret asks for a value without echoing it.
func Secret(title string) (string, error) {
	var value string
	input := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&value)
	if err := run(huh.NewForm(huh.NewGroup(input))); err != nil {
		return "", err
	}
	return value, nil
}

// Confirm asks a yes/no question.
func Confirm(title string) (bool, error) {
	var ok bool
	confirm := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok)
	if err := run(huh.NewForm(huh.NewGroup(confirm))); err != nil {
		return false, err
	}
	return ok, nil
}

// PlaceholderPrompt asks for the value of a template placeholder.
func PlaceholderPrompt(key string) (string, error) {
	return Input(fmt.Sprintf("Value for {{%s}}", key), "")
}

func run(form *huh.Form) error {
	err := form.Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrCancelled
	}
	return err
}
