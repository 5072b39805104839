// Package plate turns raw OCR output into canonical plate candidates.
//
// Recognized text arrives noisy: whitespace, punctuation, stray characters
// around the plate. The normalizer cleans the text, hunts for a known plate
// format, and adjusts the OCR confidence according to how the candidate was
// found. Absence of a plate is a result, never an error.
package plate

import (
	"math"
	"regexp"
	"strings"
)

// Plate formats in evaluation order; the first match wins.
var platePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{3}[0-9]{3}$`),      // standard: ABC123
	regexp.MustCompile(`^[A-Z]{3}[0-9]{2}[A-Z]$`), // new format: ABC12D
	regexp.MustCompile(`^[A-Z]{2}[0-9]{4}$`),      // motorcycle: AB1234
	regexp.MustCompile(`^[0-9]{3}[A-Z]{3}$`),      // reverse: 123ABC
}

var nonAlphanumeric = regexp.MustCompile(`[^A-Z0-9]`)

// Config tunes the confidence heuristics. The floors are operational
// parameters rather than constants: installations with better cameras can
// raise them, noisy ones can lower them.
type Config struct {
	// PatternMatchFloor is the minimum confidence reported when the
	// candidate matched a known plate format.
	PatternMatchFloor float64
	// FallbackFloor is the minimum confidence for a length-6 candidate
	// accepted without a format match.
	FallbackFloor float64
	// FallbackScale discounts the raw confidence for fallback candidates.
	FallbackScale float64
	// NoMatchCeiling caps the confidence when no candidate was found.
	NoMatchCeiling float64
}

// DefaultConfig returns the tuning used in production gates.
func DefaultConfig() Config {
	return Config{
		PatternMatchFloor: 75,
		FallbackFloor:     50,
		FallbackScale:     0.8,
		NoMatchCeiling:    40,
	}
}

// Result is the outcome of normalizing one piece of recognized text.
type Result struct {
	Success      bool   `json:"success"`
	Plate        string `json:"plate,omitempty"`
	Confidence   int    `json:"confidence"`
	PatternMatch bool   `json:"patternMatch"`
	RawText      string `json:"rawText"`
	CleanedText  string `json:"cleanedText"`
}

// Normalizer converts raw recognized text into a canonical plate candidate.
type Normalizer struct {
	cfg Config
}

func NewNormalizer(cfg Config) *Normalizer {
	def := DefaultConfig()
	if cfg.PatternMatchFloor <= 0 {
		cfg.PatternMatchFloor = def.PatternMatchFloor
	}
	if cfg.FallbackFloor <= 0 {
		cfg.FallbackFloor = def.FallbackFloor
	}
	if cfg.FallbackScale <= 0 {
		cfg.FallbackScale = def.FallbackScale
	}
	if cfg.NoMatchCeiling <= 0 {
		cfg.NoMatchCeiling = def.NoMatchCeiling
	}
	return &Normalizer{cfg: cfg}
}

// Normalize cleans rawText, searches for a plate candidate, and adjusts the
// raw OCR confidence (0-100). It never fails; a missing plate yields a
// Result with Success=false and diagnostic fields populated.
func (n *Normalizer) Normalize(rawText string, rawConfidence float64) Result {
	cleaned := nonAlphanumeric.ReplaceAllString(
		strings.ToUpper(strings.Join(strings.Fields(rawText), "")), "")

	candidate, patternMatch := findCandidate(cleaned)

	// Fallback: six characters of clean alphanumeric text is plausibly a
	// plate even when it matches no known format.
	if candidate == "" && len(cleaned) == 6 {
		candidate = cleaned
	}

	var confidence float64
	switch {
	case patternMatch:
		confidence = math.Max(rawConfidence, n.cfg.PatternMatchFloor)
	case candidate != "":
		confidence = math.Max(rawConfidence*n.cfg.FallbackScale, n.cfg.FallbackFloor)
	default:
		confidence = math.Min(rawConfidence, n.cfg.NoMatchCeiling)
	}

	return Result{
		Success:      candidate != "",
		Plate:        candidate,
		Confidence:   int(math.Round(confidence)),
		PatternMatch: patternMatch,
		RawText:      strings.TrimSpace(rawText),
		CleanedText:  cleaned,
	}
}

// MatchesPattern reports whether the text is exactly one of the accepted
// plate formats. The input must already be normalized.
func MatchesPattern(plate string) bool {
	for _, pattern := range platePatterns {
		if pattern.MatchString(plate) {
			return true
		}
	}
	return false
}

// findCandidate tries the cleaned text as-is, then slides windows of length
// 6 and 7 across it. Windows are tested in offset order, shorter window
// first at each offset, patterns in declaration order.
func findCandidate(cleaned string) (string, bool) {
	if MatchesPattern(cleaned) {
		return cleaned, true
	}

	if len(cleaned) < 6 {
		return "", false
	}

	for offset := 0; offset <= len(cleaned)-6; offset++ {
		for _, size := range []int{6, 7} {
			if offset+size > len(cleaned) {
				continue
			}
			window := cleaned[offset : offset+size]
			if MatchesPattern(window) {
				return window, true
			}
		}
	}

	return "", false
}
