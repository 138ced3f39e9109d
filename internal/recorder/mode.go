package recorder

import (
	"fmt"
	"strings"
)

// Mode selects what a finished session is used for.
type Mode int

const (
	// Off observes only; sessions never start.
	Off Mode = iota
	// Predict exports to the transient directory for immediate consumption.
	Predict
	// Output exports into the persisted dataset.
	Output
)

var modeNames = [...]string{
	Off:     "off",
	Predict: "predict",
	Output:  "output",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode parses a mode name. "idle" is accepted for Off and "record" for Output.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "idle":
		return Off, nil
	case "predict":
		return Predict, nil
	case "output", "record":
		return Output, nil
	}
	return Off, fmt.Errorf("unknown mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
