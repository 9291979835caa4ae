package tui

import (
	"errors"

	"github.com/charmbracelet/huh"
)

// ProfileForm holds the values collected by the profile completion form.
type ProfileForm struct {
	Nickname       string
	TrackAnalytics bool
}

// RunProfileForm prompts for the display name and analytics preference.
func RunProfileForm(current ProfileForm) (ProfileForm, error) {
	values := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Display name").
				Placeholder("How should we address you?").
				Value(&values.Nickname).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("a display name is required")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Share anonymous usage analytics?").
				Affirmative("Yes").
				Negative("No").
				Value(&values.TrackAnalytics),
		),
	)
	if err := form.Run(); err != nil {
		return current, err
	}
	return values, nil
}
