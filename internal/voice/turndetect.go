package voice

import (
	"regexp"
	"strings"
	"time"
)

// TurnHint is the detector's judgement on a partial transcript: whether
// the player sounds finished and how long to hold before committing.
type TurnHint struct {
	Reason       string
	Confidence   float64
	Hold         time.Duration
	ShouldCommit bool
}

const (
	turnHoldMin           = 40 * time.Millisecond
	turnHoldMax           = 900 * time.Millisecond
	turnEmitRefresh       = 1200 * time.Millisecond
	turnHoldBucketWidth   = 80
	turnConfBucketWidth   = 10
	turnConfidenceUnknown = 0.55
	turnConfidenceCommit  = 0.50
)

var (
	turnContinuationTailRe = regexp.MustCompile(`(?i)\b(and|but|because|so|then|which|that|if|when|while|as|to|for)\s*$`)
	turnContinuationHeadRe = regexp.MustCompile(`(?i)^(and|but|because|so|then)\b`)
	turnOpenTailRe         = regexp.MustCompile(`[,;:\-…]\s*$`)
	turnTerminalTailRe     = regexp.MustCompile(`(?i)([.!?]["']?\s*$|\b(done|that's it|thats it|restart|start over)\s*$)`)
	// A bare option answer ("B", "option c please") is the dominant player
	// utterance in this game and should commit fast.
	turnOptionAnswerRe = regexp.MustCompile(`(?i)^(option\s+)?[abcd][.!?]?\s*(please)?$`)
)

// TurnDetector evaluates STT partials for end-of-turn cues and
// de-duplicates hints so the session loop only reacts to changes.
// One detector per connection; not safe for concurrent use.
type TurnDetector struct {
	hasValue       bool
	lastReason     string
	lastHoldBucket int
	lastCommitFlag bool
	lastConfBucket int
	lastSentAt     time.Time
}

func NewTurnDetector() *TurnDetector { return &TurnDetector{} }

// Evaluate returns the hint for the given partial and whether it differs
// enough from the previous one to act on.
func (d *TurnDetector) Evaluate(partial string, confidence float64, utteranceAge time.Duration) (TurnHint, bool) {
	hint, ok := buildTurnHint(partial, confidence, utteranceAge)
	if !ok {
		return TurnHint{}, false
	}
	return hint, d.shouldEmit(hint, time.Now())
}

func (d *TurnDetector) Reset() { *d = TurnDetector{} }

func buildTurnHint(partial string, confidence float64, utteranceAge time.Duration) (TurnHint, bool) {
	normalized := strings.TrimSpace(strings.ToLower(partial))
	if normalized == "" {
		return TurnHint{}, false
	}

	if confidence <= 0 || confidence > 1 {
		confidence = turnConfidenceUnknown
	}
	hint := TurnHint{
		Reason:     "neutral",
		Confidence: maxFloat(0.58, confidence),
		Hold:       210 * time.Millisecond,
	}

	switch {
	case turnOptionAnswerRe.MatchString(normalized):
		hint.Reason = "option_answer"
		hint.Confidence = maxFloat(hint.Confidence, 0.92)
		hint.Hold = 60 * time.Millisecond
		hint.ShouldCommit = confidence >= turnConfidenceCommit
	case hasContinuationCue(normalized):
		hint.Reason = "continuation"
		hint.Confidence = maxFloat(hint.Confidence, 0.86)
		hint.Hold = 520 * time.Millisecond
	case hasTerminalCue(normalized):
		hint.Reason = "terminal"
		hint.Confidence = maxFloat(hint.Confidence, 0.82)
		hint.Hold = 90 * time.Millisecond
		hint.ShouldCommit = confidence >= turnConfidenceCommit
	}

	if utteranceAge > 0 && utteranceAge < 700*time.Millisecond && hint.Reason == "neutral" {
		hint.Reason = "short_utterance"
		hint.Hold += 110 * time.Millisecond
	}

	if confidence < 0.45 {
		hint.Hold += 140 * time.Millisecond
		hint.Confidence = minFloat(hint.Confidence, 0.62)
		hint.ShouldCommit = false
		if hint.Reason == "neutral" || hint.Reason == "terminal" {
			hint.Reason = "low_confidence"
		}
	}

	hint.Hold = clampDuration(hint.Hold, turnHoldMin, turnHoldMax)
	hint.Confidence = clampFloat(hint.Confidence, 0.05, 0.99)
	return hint, true
}

func (d *TurnDetector) shouldEmit(h TurnHint, now time.Time) bool {
	reason := h.Reason
	holdBucket := int(h.Hold.Milliseconds()) / turnHoldBucketWidth
	confBucket := int(clampFloat(h.Confidence, 0, 1)*100) / turnConfBucketWidth

	if !d.hasValue ||
		reason != d.lastReason ||
		holdBucket != d.lastHoldBucket ||
		h.ShouldCommit != d.lastCommitFlag ||
		confBucket != d.lastConfBucket ||
		now.Sub(d.lastSentAt) >= turnEmitRefresh {
		d.hasValue = true
		d.lastReason = reason
		d.lastHoldBucket = holdBucket
		d.lastCommitFlag = h.ShouldCommit
		d.lastConfBucket = confBucket
		d.lastSentAt = now
		return true
	}
	return false
}

func hasContinuationCue(normalized string) bool {
	return turnOpenTailRe.MatchString(normalized) ||
		turnContinuationHeadRe.MatchString(normalized) ||
		turnContinuationTailRe.MatchString(normalized)
}

func hasTerminalCue(normalized string) bool {
	if turnOpenTailRe.MatchString(normalized) {
		return false
	}
	return turnTerminalTailRe.MatchString(normalized)
}

func clampDuration(v, min, max time.Duration) time.Duration {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
