package models

// The types below reproduce the response bodies of the first-generation API
// so existing web and extension clients keep working. Field names are
// camelCase on purpose.

// LinkAnalysisResult is the legacy link response
type LinkAnalysisResult struct {
	IsPhishing      bool     `json:"isPhishing"`
	Confidence      int      `json:"confidence"`
	Details         []string `json:"details"`
	Recommendations []string `json:"recommendations"`
}

// EmailAnalysisResult is the legacy email response
type EmailAnalysisResult struct {
	IsPhishing      bool           `json:"isPhishing"`
	RiskLevel       int            `json:"riskLevel"`
	Details         EmailBreakdown `json:"details"`
	Recommendations []string       `json:"recommendations"`
}

// VoiceAnalysisResult is the legacy voice response
type VoiceAnalysisResult struct {
	IsAI            bool     `json:"isAI"`
	Confidence      int      `json:"confidence"`
	Details         []string `json:"details"`
	Recommendations []string `json:"recommendations"`
}

// DeepfakeAnalysisResult is the legacy video response
type DeepfakeAnalysisResult struct {
	IsAuthentic         bool     `json:"isAuthentic"`
	ConfidenceScore     int      `json:"confidenceScore"`
	ManipulationMarkers int      `json:"manipulationMarkers"`
	Details             []string `json:"details"`
	Recommendations     []string `json:"recommendations"`
}

// Legacy converts a result into the matching first-generation response body
func (r *AnalysisResult) Legacy() any {
	switch r.ContentType {
	case ContentTypeLink:
		return LinkAnalysisResult{
			IsPhishing:      r.Verdict == VerdictPhishing,
			Confidence:      r.Score,
			Details:         r.Details,
			Recommendations: r.Recommendations,
		}
	case ContentTypeEmail:
		var breakdown EmailBreakdown
		if r.Breakdown != nil {
			breakdown = *r.Breakdown
		}
		return EmailAnalysisResult{
			IsPhishing:      r.Verdict == VerdictPhishing,
			RiskLevel:       r.Score,
			Details:         breakdown,
			Recommendations: r.Recommendations,
		}
	case ContentTypeVoice:
		return VoiceAnalysisResult{
			IsAI:            r.Verdict == VerdictAIVoice,
			Confidence:      r.Score,
			Details:         r.Details,
			Recommendations: r.Recommendations,
		}
	case ContentTypeVideo:
		markers := 0
		if r.ManipulationMarkers != nil {
			markers = *r.ManipulationMarkers
		}
		return DeepfakeAnalysisResult{
			IsAuthentic:         r.Verdict != VerdictDeepfake,
			ConfidenceScore:     r.Score,
			ManipulationMarkers: markers,
			Details:             r.Details,
			Recommendations:     r.Recommendations,
		}
	}
	return r
}
