package domain

import "strings"

// Substance identifies the compound taken in a session.
type Substance string

const (
	Substance2CB      Substance = "2CB"
	SubstanceCannabis Substance = "Cannabis"
	SubstanceKetamine Substance = "Ketamine"
	SubstanceLSD      Substance = "LSD"
	SubstanceMDMA     Substance = "MDMA"
	SubstanceRitalin  Substance = "Ritalin"
	SubstanceShrooms  Substance = "Shrooms"
)

// Substances lists every known substance in display order.
func Substances() []Substance {
	return []Substance{
		Substance2CB,
		SubstanceCannabis,
		SubstanceKetamine,
		SubstanceLSD,
		SubstanceMDMA,
		SubstanceRitalin,
		SubstanceShrooms,
	}
}

// Valid reports whether s is one of the known substances.
func (s Substance) Valid() bool {
	for _, known := range Substances() {
		if s == known {
			return true
		}
	}
	return false
}

// ParseSubstance resolves a substance name case-insensitively.
func ParseSubstance(raw string) (Substance, error) {
	needle := strings.TrimSpace(raw)
	for _, known := range Substances() {
		if strings.EqualFold(string(known), needle) {
			return known, nil
		}
	}
	return "", Validation("parse substance", "substance", "unknown substance %q", raw)
}

// SocialEnvironment records whether the subject was alone.
type SocialEnvironment string

const (
	SocialAlone    SocialEnvironment = "Alone"
	SocialNotAlone SocialEnvironment = "Not Alone"
)

// Valid reports whether e is a known social setting.
func (e SocialEnvironment) Valid() bool {
	return e == SocialAlone || e == SocialNotAlone
}

// ParseSocial accepts the display value or the short forms "alone" and "social".
func ParseSocial(raw string) (SocialEnvironment, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "alone":
		return SocialAlone, nil
	case "not alone", "not-alone", "social":
		return SocialNotAlone, nil
	}
	return "", Validation("parse social", "social", "unknown social setting %q", raw)
}

// PhysicalEnvironment records whether the surroundings were familiar.
type PhysicalEnvironment string

const (
	PhysicalFamiliar PhysicalEnvironment = "Familiar Environment"
	PhysicalNew      PhysicalEnvironment = "New Environment"
)

// Valid reports whether e is a known physical setting.
func (e PhysicalEnvironment) Valid() bool {
	return e == PhysicalFamiliar || e == PhysicalNew
}

// ParsePhysical accepts the display value or the short forms "familiar" and "new".
func ParsePhysical(raw string) (PhysicalEnvironment, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "familiar", "familiar environment":
		return PhysicalFamiliar, nil
	case "new", "new environment":
		return PhysicalNew, nil
	}
	return "", Validation("parse physical", "physical", "unknown physical setting %q", raw)
}

// Horizon names one of the post-session outcome snapshots.
type Horizon string

const (
	HorizonOneHour Horizon = "oneHour"
	HorizonOneDay  Horizon = "oneDay"
	HorizonOneWeek Horizon = "oneWeek"
)

// Horizons lists the outcome horizons in chronological order.
func Horizons() []Horizon {
	return []Horizon{HorizonOneHour, HorizonOneDay, HorizonOneWeek}
}

// ParseHorizon accepts the field name or the short forms 1h, 24h and 7d.
func ParseHorizon(raw string) (Horizon, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "onehour", "1h", "hour":
		return HorizonOneHour, nil
	case "oneday", "24h", "1d", "day":
		return HorizonOneDay, nil
	case "oneweek", "7d", "1w", "week":
		return HorizonOneWeek, nil
	}
	return "", Validation("parse horizon", "horizon", "unknown horizon %q", raw)
}

// Log entry categories used by the in-flight log stream. The type field is
// free-form; these are the values the recorder offers.
const (
	LogText              = "text"
	LogVisualObservation = "Visual Observation"
	LogSomaticSensation  = "Somatic Sensation"
	LogCognitiveShift    = "Cognitive Shift"
	LogAudio             = "audio"
	LogFile              = "file"
)

// LogTypes lists the offered log entry categories.
func LogTypes() []string {
	return []string{LogText, LogVisualObservation, LogSomaticSensation, LogCognitiveShift, LogAudio, LogFile}
}
