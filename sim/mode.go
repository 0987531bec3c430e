package sim

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// BESSMode selects how the battery blends its aFRR share with the damping command.
type BESSMode string

const (
	// ModeAFRRAndDamping sums the aFRR share and the full damping command.
	ModeAFRRAndDamping BESSMode = "afrr_and_damping"
	// ModeOff keeps the battery idle for the whole run.
	ModeOff BESSMode = "off"
	// ModeShareScaledDamping is experimental: damping authority is scaled by
	// the same share fraction as the aFRR contribution.
	ModeShareScaledDamping BESSMode = "share_scaled_damping"
)

// validBESSModes maps accepted mode strings.
var validBESSModes = map[BESSMode]bool{
	ModeAFRRAndDamping:     true,
	ModeOff:                true,
	ModeShareScaledDamping: true,
}

// IsValidBESSMode returns true if the given string names a BESS mode.
func IsValidBESSMode(mode string) bool {
	return validBESSModes[BESSMode(mode)]
}

// ValidBESSModeNames lists the accepted modes in a stable order for help text.
func ValidBESSModeNames() []string {
	return []string{string(ModeAFRRAndDamping), string(ModeOff), string(ModeShareScaledDamping)}
}

// ParseBESSMode converts a string into a BESSMode, rejecting unknown names.
func ParseBESSMode(s string) (BESSMode, error) {
	if !IsValidBESSMode(s) {
		return "", fmt.Errorf("unknown BESS mode %q; valid: %v", s, ValidBESSModeNames())
	}
	return BESSMode(s), nil
}

// UnmarshalYAML rejects unknown modes at load time so a typo never falls through to another branch.
func (m *BESSMode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseBESSMode(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*m = parsed
	return nil
}

// String implements fmt.Stringer (and pflag.Value together with Set and Type).
func (m BESSMode) String() string { return string(m) }

// Set parses a flag value into the mode.
func (m *BESSMode) Set(s string) error {
	parsed, err := ParseBESSMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Type names the flag value type for help output.
func (m *BESSMode) Type() string { return "bessMode" }
