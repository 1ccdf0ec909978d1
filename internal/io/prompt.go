package io

import (
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	bkErrors "github.com/bnookala/spk/internal/errors"
)

var errNoTTY = errors.New("no TTY available")

// Prompter asks the user for values. Survey backs the terminal implementation; tests supply
// their own.
type Prompter interface {
	Input(message, defaultValue string, required bool) (string, error)
	Password(message string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []string, defaultValue string) (string, error)
}

// SurveyPrompter prompts on the terminal.
type SurveyPrompter struct{}

func (SurveyPrompter) Input(message, defaultValue string, required bool) (string, error) {
	var answer string
	var opts []survey.AskOpt
	if required {
		opts = append(opts, survey.WithValidator(survey.Required))
	}
	err := ask(&survey.Input{Message: message, Default: defaultValue}, &answer, opts...)
	return answer, err
}

func (SurveyPrompter) Password(message string) (string, error) {
	var answer string
	err := ask(&survey.Password{Message: message}, &answer, survey.WithValidator(survey.Required))
	return answer, err
}

func (SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	answer := defaultValue
	err := ask(&survey.Confirm{Message: message, Default: defaultValue}, &answer)
	return answer, err
}

func (SurveyPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	var answer string
	prompt := &survey.Select{Message: message, Options: options}
	if defaultValue != "" {
		prompt.Default = defaultValue
	}
	err := ask(prompt, &answer)
	return answer, err
}

func ask(prompt survey.Prompt, answer any, opts ...survey.AskOpt) error {
	if !CanPrompt() {
		return bkErrors.NewValidationError(errNoTTY, "cannot prompt for input", "Pass the value with a flag or run with --no-input")
	}

	err := survey.AskOne(prompt, answer, opts...)
	if errors.Is(err, terminal.InterruptErr) {
		return bkErrors.NewUserAbortedError(err, "prompt cancelled")
	}
	return err
}
