package services

import (
	"guardian-shield/internal/domain/models"
)

// Email breakdown ratings
const (
	RatingSuspicious   = "Suspicious"
	RatingQuestionable = "Questionable"
	RatingLegitimate   = "Legitimate"
	RatingDangerous    = "Dangerous"
	RatingSafe         = "Safe"
	RatingHighUrgency  = "High (Red Flag)"
	RatingMedium       = "Medium"
	RatingLow          = "Low"
)

// EmailEscalationThreshold is the risk level above which the two escalation
// steps are appended to email recommendations
const EmailEscalationThreshold = 80

type guidanceKey struct {
	contentType models.ContentType
	verdict     models.Verdict
}

var detailTable = map[guidanceKey][]string{
	{models.ContentTypeLink, models.VerdictPhishing}: {
		"Domain registered within the last 24 hours",
		"Mimics legitimate bank domain with slight spelling variation",
		"Uses HTTP instead of secure HTTPS connection",
		"Known phishing patterns in URL structure",
	},
	{models.ContentTypeLink, models.VerdictSafe}: {
		"Domain has existed for more than 1 year",
		"Secure HTTPS connection established",
		"No known phishing patterns detected",
		"Domain matches the expected legitimate service",
	},
	{models.ContentTypeVoice, models.VerdictAIVoice}: {
		"Unnatural speech patterns in consonant transitions",
		"Inconsistent breathing patterns",
		"Robotic cadence in emotional expressions",
		"Uniform audio quality throughout recording",
	},
	{models.ContentTypeVoice, models.VerdictSafe}: {
		"Natural breathing patterns detected",
		"Consistent speech cadence and rhythm",
		"Variable audio quality consistent with real-world conditions",
		"Natural emotional inflections in speech",
	},
	{models.ContentTypeVideo, models.VerdictDeepfake}: {
		"Inconsistent blinking patterns detected",
		"Unnatural facial movements around mouth area",
		"Digital artifacts detected at face boundaries",
		"Inconsistent lighting reflections in eyes",
	},
	{models.ContentTypeVideo, models.VerdictSafe}: {
		"Natural micro-expressions detected",
		"Consistent lighting reflections in eyes",
		"Authentic blinking patterns",
		"No digital manipulation artifacts found",
	},
}

var recommendationTable = map[guidanceKey][]string{
	{models.ContentTypeLink, models.VerdictPhishing}: {
		"Do not click this link",
		"If you've already entered credentials on this site, immediately change your passwords",
		"Report this URL to the relevant security teams or authorities",
	},
	{models.ContentTypeLink, models.VerdictSafe}: {
		"URL appears safe, but always remain vigilant",
		"Verify the website's identity through its security certificate",
		"Only enter sensitive information on pages you trust",
	},
	{models.ContentTypeEmail, models.VerdictPhishing}: {
		"Do not reply to this email",
		"Do not click any links or download attachments",
		"Report the email as phishing to your email provider",
		"Contact the purported sender through official channels to verify",
	},
	{models.ContentTypeEmail, models.VerdictSafe}: {
		"Email appears legitimate, but always remain cautious",
		"Verify the sender's address carefully",
		"If you're unsure, contact the sender through a verified phone number",
	},
	{models.ContentTypeVoice, models.VerdictAIVoice}: {
		"Do not share personal information with this caller",
		"Report this number to relevant authorities",
		"If this was a voicemail, do not call back the number",
		"Contact the purported organization through official channels",
	},
	{models.ContentTypeVoice, models.VerdictSafe}: {
		"Voice appears authentic, but remain vigilant",
		"Verify caller identity through independent means if sensitive information is requested",
		"Trust but verify - ask questions only the real person would know",
	},
	{models.ContentTypeVideo, models.VerdictDeepfake}: {
		"Do not share personal or financial information with this person",
		"Report this video to the platform where it was shared",
		"Verify identity through voice call or in-person meeting",
		"Contact the purported individual through verified channels",
	},
	{models.ContentTypeVideo, models.VerdictSafe}: {
		"Ask verification questions only the real person would know",
		"Confirm via an alternative communication channel",
		"Be cautious about urgent requests involving sensitive information",
	},
}

var emailEscalation = []string{
	"Immediately delete this email",
	"If you've already clicked links or shared information, change passwords immediately",
}

// fallbackGuidance keeps details and recommendations non-empty for pairs the
// tables do not cover
var fallbackGuidance = []string{"No specific guidance available; treat unexpected requests with caution"}

// RecommendationSelector looks up ordered guidance by content type and
// verdict. Every returned slice is a fresh copy.
type RecommendationSelector struct{}

// NewRecommendationSelector creates a new selector
func NewRecommendationSelector() *RecommendationSelector {
	return &RecommendationSelector{}
}

// Recommend returns the recommendations for a verdict
func (rs *RecommendationSelector) Recommend(ct models.ContentType, verdict models.Verdict, score int) []string {
	out := lookup(recommendationTable, ct, verdict)
	if ct == models.ContentTypeEmail && verdict == models.VerdictPhishing && score > EmailEscalationThreshold {
		out = append(out, emailEscalation...)
	}
	return out
}

// Details returns the findings for a verdict. Email findings come from the
// breakdown rather than a fixed table.
func (rs *RecommendationSelector) Details(ct models.ContentType, verdict models.Verdict, signals models.SignalSet, score int) []string {
	if ct == models.ContentTypeEmail {
		b := rs.EmailBreakdown(verdict, signals, score)
		return []string{
			"Sender: " + b.Sender,
			"Links: " + b.Links,
			"Content: " + b.Content,
			"Urgency: " + b.Urgency,
		}
	}
	return lookup(detailTable, ct, verdict)
}

// EmailBreakdown rates the sender, links, content and urgency of an email
func (rs *RecommendationSelector) EmailBreakdown(verdict models.Verdict, signals models.SignalSet, riskLevel int) models.EmailBreakdown {
	phishing := verdict == models.VerdictPhishing

	var b models.EmailBreakdown
	switch {
	case riskLevel > 70:
		b.Sender = RatingSuspicious
	case riskLevel > 40:
		b.Sender = RatingQuestionable
	default:
		b.Sender = RatingLegitimate
	}

	switch {
	case signals.Bool(models.SignalHasSuspiciousLinks):
		b.Links = RatingDangerous
	case phishing:
		b.Links = RatingSuspicious
	default:
		b.Links = RatingSafe
	}

	switch {
	case signals.Bool(models.SignalRequestsPersonalInfo):
		b.Content = RatingDangerous
	case signals.Bool(models.SignalHasPoorGrammar):
		b.Content = RatingSuspicious
	default:
		b.Content = RatingSafe
	}

	switch {
	case signals.Bool(models.SignalHasUrgentLanguage):
		b.Urgency = RatingHighUrgency
	case phishing:
		b.Urgency = RatingMedium
	default:
		b.Urgency = RatingLow
	}

	return b
}

func lookup(table map[guidanceKey][]string, ct models.ContentType, verdict models.Verdict) []string {
	src, ok := table[guidanceKey{ct, verdict}]
	if !ok {
		src = fallbackGuidance
	}
	out := make([]string, len(src), len(src)+len(emailEscalation))
	copy(out, src)
	return out
}
