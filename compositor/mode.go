package compositor

import "fmt"

// ControlMode selects which offset layers are applied on top of the base value.
type ControlMode int

const (
	ManualBoth ControlMode = iota
	ManualReactions
	ManualChoreography
	FullAuto
)

var controlModeNames = map[ControlMode]string{
	ManualBoth:         "manual+both",
	ManualReactions:    "manual+reactions",
	ManualChoreography: "manual+choreography",
	FullAuto:           "full-auto",
}

func (m ControlMode) String() string {
	if s, ok := controlModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("ControlMode(%d)", int(m))
}

// ParseControlMode accepts the names produced by String.
func ParseControlMode(s string) (ControlMode, error) {
	for m, name := range controlModeNames {
		if name == s {
			return m, nil
		}
	}
	return ManualBoth, fmt.Errorf("unknown control mode %q", s)
}

func (m ControlMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *ControlMode) UnmarshalText(text []byte) error {
	parsed, err := ParseControlMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Choreography reports whether choreography offsets apply in this mode.
func (m ControlMode) Choreography() bool {
	return m != ManualReactions
}

// Reactions reports whether reaction offsets apply in this mode.
func (m ControlMode) Reactions() bool {
	return m != ManualChoreography
}

// BalanceMode selects how the three layer weights combine.
type BalanceMode int

const (
	// Independent applies each weight as is. Results may exceed the parameter range.
	Independent BalanceMode = iota
	// Normalized rescales the weights to sum to one.
	Normalized
)

func (b BalanceMode) String() string {
	switch b {
	case Independent:
		return "independent"
	case Normalized:
		return "normalized"
	}
	return fmt.Sprintf("BalanceMode(%d)", int(b))
}

// ParseBalanceMode accepts "independent" or "normalized".
func ParseBalanceMode(s string) (BalanceMode, error) {
	switch s {
	case "independent":
		return Independent, nil
	case "normalized":
		return Normalized, nil
	}
	return Independent, fmt.Errorf("unknown balance mode %q", s)
}

func (b BalanceMode) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *BalanceMode) UnmarshalText(text []byte) error {
	parsed, err := ParseBalanceMode(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Weights scale the manual, choreography and reaction layers.
type Weights struct {
	Manual       float64 `yaml:"manual"`
	Choreography float64 `yaml:"choreography"`
	Reaction     float64 `yaml:"reaction"`
}

// DefaultWeights weighs every layer fully.
func DefaultWeights() Weights {
	return Weights{Manual: 1, Choreography: 1, Reaction: 1}
}

// Normalized rescales the weights to sum to one. A zero total falls back to manual only.
func (w Weights) Normalized() Weights {
	total := w.Manual + w.Choreography + w.Reaction
	if total == 0 {
		return Weights{Manual: 1}
	}
	return Weights{
		Manual:       w.Manual / total,
		Choreography: w.Choreography / total,
		Reaction:     w.Reaction / total,
	}
}
