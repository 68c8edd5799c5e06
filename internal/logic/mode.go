package logic

// DecodeMode maps a switch pin pair to a mode.
// Mode1 iff only a is asserted, Mode2 iff only b is asserted.
// Both asserted or both released decode as ModeDisabled.
func DecodeMode(a, b bool) Mode {
	switch {
	case a && !b:
		return Mode1
	case b && !a:
		return Mode2
	default:
		return ModeDisabled
	}
}

// InteriorMode decodes the interior lights switch.
func (s Switches) InteriorMode() Mode {
	return DecodeMode(s.InteriorA, s.InteriorB)
}

// ExteriorMode decodes the exterior lights switch.
func (s Switches) ExteriorMode() Mode {
	return DecodeMode(s.ExteriorA, s.ExteriorB)
}

// SensitivityLevel converts a sensitivity pot reading to a photoresistor threshold
// (3/4 of the pot value, integer arithmetic as on the ADC side).
func SensitivityLevel(pot int) int {
	return pot / 4 * 3
}

// IsDark reports whether both photoresistors read at or below their sensitivity threshold.
func IsDark(a Analog) bool {
	return a.PhotoLeft <= SensitivityLevel(a.SensLeft) &&
		a.PhotoRight <= SensitivityLevel(a.SensRight)
}

// DimmerSeconds converts the dimmer-time pot to whole seconds (0..20).
// Reported for display only; ramps use Timing.RampStep.
func DimmerSeconds(a Analog) int {
	return a.DimmerTime / 50
}
