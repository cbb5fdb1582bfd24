package search

import "fmt"

// Mode is the comparison applied between a column and the search value.
type Mode string

const (
	Equals     Mode = "equals"
	Contains   Mode = "contains"
	StartsWith Mode = "starts_with"
	EndsWith   Mode = "ends_with"
)

// ModeOption is a mode with its display label.
type ModeOption struct {
	Value Mode   `json:"value"`
	Label string `json:"label"`
}

var modeOptions = []ModeOption{
	{Value: Equals, Label: "Equal to"},
	{Value: Contains, Label: "Contains"},
	{Value: StartsWith, Label: "Starts with"},
	{Value: EndsWith, Label: "Ends with"},
}

// Modes returns the supported modes in display order.
func Modes() []ModeOption {
	out := make([]ModeOption, len(modeOptions))
	copy(out, modeOptions)
	return out
}

// ParseMode validates s as a Mode.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return "", ErrNoMode
	}
	for _, o := range modeOptions {
		if string(o.Value) == s {
			return o.Value, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}
