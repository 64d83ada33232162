package services

import (
	"guardian-shield/internal/domain/models"
)

// Branch confidences. Link, voice and video scores are fixed per verdict
// rather than weighted by how many signals fired.
const (
	LinkPhishingConfidence   = 92
	LinkSafeConfidence       = 95
	VoiceAIConfidence        = 94
	VoiceHumanConfidence     = 97
	VideoFakeConfidence      = 89
	VideoAuthenticConfidence = 97

	// EmailPhishingThreshold is exclusive: a risk level of exactly 50 is safe
	EmailPhishingThreshold = 50

	// FakeManipulationMarkers is reported for every deepfake verdict
	FakeManipulationMarkers = 4

	MinScore = 0
	MaxScore = 100
)

// Scorer maps a SignalSet onto a verdict and a 0-100 score. It holds no
// mutable state; the same signals always produce the same outcome.
type Scorer struct {
	weights       EmailWeights
	voiceMinBytes int64
	videoMinBytes int64
}

// NewScorer creates a new Scorer
func NewScorer(rules DetectionRules) *Scorer {
	return &Scorer{
		weights:       rules.Weights,
		voiceMinBytes: rules.VoiceMinBytes,
		videoMinBytes: rules.VideoMinBytes,
	}
}

// Score dispatches on the content type. Unknown content types and empty
// signal sets fall through to the safe branch.
func (s *Scorer) Score(ct models.ContentType, signals models.SignalSet) (models.Verdict, int) {
	switch ct {
	case models.ContentTypeLink:
		return s.scoreLink(signals)
	case models.ContentTypeEmail:
		return s.scoreEmail(signals)
	case models.ContentTypeVoice:
		return s.scoreVoice(signals)
	case models.ContentTypeVideo:
		return s.scoreVideo(signals)
	}
	return models.VerdictSafe, MaxScore
}

func (s *Scorer) scoreLink(signals models.SignalSet) (models.Verdict, int) {
	secure := signals.Bool(models.SignalIsSecure)
	lookalike := signals.Bool(models.SignalHasSuspiciousSubdomain) || signals.Bool(models.SignalHasSuspiciousDomain)

	if (!secure && lookalike) || signals.Bool(models.SignalHasSuspiciousPath) {
		return models.VerdictPhishing, LinkPhishingConfidence
	}
	return models.VerdictSafe, LinkSafeConfidence
}

// EmailRiskLevel sums the category weights and clamps to [0,100]. Addition
// is commutative, so the order of checks does not matter.
func (s *Scorer) EmailRiskLevel(signals models.SignalSet) int {
	points := 0
	if signals.Bool(models.SignalHasUrgentLanguage) {
		points += s.weights.Urgency
	}
	if signals.Bool(models.SignalHasSuspiciousLinks) {
		points += s.weights.Links
	}
	if signals.Bool(models.SignalRequestsPersonalInfo) {
		points += s.weights.PersonalInfo
	}
	if signals.Bool(models.SignalHasPoorGrammar) {
		points += s.weights.Grammar
	}
	return clampScore(points)
}

// IsPhishingRisk applies the email threshold to a risk level
func IsPhishingRisk(riskLevel int) bool {
	return riskLevel > EmailPhishingThreshold
}

func (s *Scorer) scoreEmail(signals models.SignalSet) (models.Verdict, int) {
	risk := s.EmailRiskLevel(signals)
	if IsPhishingRisk(risk) {
		return models.VerdictPhishing, risk
	}
	return models.VerdictSafe, risk
}

func (s *Scorer) scoreVoice(signals models.SignalSet) (models.Verdict, int) {
	if signals.Bool(models.SignalHasAIMarker) || belowThreshold(signals, s.voiceMinBytes) {
		return models.VerdictAIVoice, VoiceAIConfidence
	}
	return models.VerdictSafe, VoiceHumanConfidence
}

func (s *Scorer) scoreVideo(signals models.SignalSet) (models.Verdict, int) {
	if signals.Bool(models.SignalHasFakeMarker) || belowThreshold(signals, s.videoMinBytes) {
		return models.VerdictDeepfake, VideoFakeConfidence
	}
	return models.VerdictSafe, VideoAuthenticConfidence
}

// belowThreshold is false when no size was extracted, keeping an empty signal
// set on the benign branch
func belowThreshold(signals models.SignalSet, min int64) bool {
	if !signals.Has(models.SignalFileSizeBytes) {
		return false
	}
	return signals.Int(models.SignalFileSizeBytes) < min
}

func clampScore(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
