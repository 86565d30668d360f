package bindings

import (
	"fmt"

	"github.com/lewtec/astrorank/internal/domain"
)

// Action names an operation of the ranking interface.
type Action string

const (
	ActionQuit           Action = "quit"
	ActionClearInput     Action = "clear_input"
	ActionClearRank      Action = "clear_rank"
	ActionFit            Action = "fit"
	ActionZoomIn         Action = "zoom_in"
	ActionZoomOut        Action = "zoom_out"
	ActionToggleHelp     Action = "toggle_help"
	ActionToggleList     Action = "toggle_list"
	ActionToggleDarkMode Action = "toggle_dark_mode"
	ActionComment        Action = "comment"
	ActionSubmit         Action = "submit"
	ActionPrevious       Action = "previous"
	ActionNext           Action = "next"
	ActionFirst          Action = "first"
	ActionSkipUnranked   Action = "skip_unranked"
	ActionOpenBrowser    Action = "open_browser"
	ActionFetchSecondary Action = "fetch_secondary"
)

var catalogue = []struct {
	action      Action
	description string
	keys        []string
}{
	{ActionSubmit, "Submit the entered rank and go to the next image", []string{"return", "enter"}},
	{ActionPrevious, "Submit the entered rank, if any, and go back", []string{"left", "up"}},
	{ActionNext, "Submit the entered rank, if any, and go forward", []string{"right", "down"}},
	{ActionFirst, "Go to the first image", []string{"shift+left", "shift+up"}},
	{ActionSkipUnranked, "Skip to the next unranked image", []string{"shift+right", "shift+down"}},
	{ActionClearInput, "Clear the rank input", []string{"delete", "backspace"}},
	{ActionClearRank, "Remove the rank of the current image", []string{"c"}},
	{ActionComment, "Add or edit a comment", []string{"k"}},
	{ActionZoomIn, "Zoom in", []string{"plus", "equal"}},
	{ActionZoomOut, "Zoom out", []string{"minus"}},
	{ActionFit, "Fit the image to the window", []string{"f"}},
	{ActionToggleList, "Show or hide the image list", []string{"l"}},
	{ActionToggleDarkMode, "Toggle dark mode", []string{"d"}},
	{ActionToggleHelp, "Show or hide this help", []string{"?"}},
	{ActionOpenBrowser, "Open the survey viewer for the image coordinates", []string{"b"}},
	{ActionFetchSecondary, "Fetch the secondary provider composite", []string{"g"}},
	{ActionQuit, "Quit", []string{"q"}},
}

// Catalogue lists the known actions in help order.
func Catalogue() []Action {
	ret := make([]Action, len(catalogue))
	for i, entry := range catalogue {
		ret[i] = entry.action
	}
	return ret
}

// ParseAction validates an action name from configuration.
func ParseAction(name string) (Action, error) {
	for _, entry := range catalogue {
		if string(entry.action) == name {
			return entry.action, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", name)
}

// Description is the help text of the action.
func (a Action) Description() string {
	for _, entry := range catalogue {
		if entry.action == a {
			return entry.description
		}
	}
	return ""
}

// DefaultActions is the key table used when the configuration has none.
func DefaultActions() map[string][]string {
	ret := make(map[string][]string, len(catalogue))
	for _, entry := range catalogue {
		ret[string(entry.action)] = append([]string(nil), entry.keys...)
	}
	return ret
}

// DefaultRanks is the rank table used when the configuration has none.
func DefaultRanks() map[string]domain.Rank {
	return map[string]domain.Rank{
		"0":        "0",
		"1":        "1",
		"2":        "2",
		"3":        "3",
		"backtick": "0",
	}
}
