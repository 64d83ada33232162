package services

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"guardian-shield/internal/domain/models"
	"guardian-shield/pkg/logger"
)

// FeatureExtractor turns an AnalysisInput into a SignalSet. Extraction is a
// total function: anything it cannot parse yields the negative signal set,
// which the scorer resolves to the safe branch.
type FeatureExtractor struct {
	rules  DetectionRules
	logger *logger.Logger
}

// NewFeatureExtractor creates a new feature extractor
func NewFeatureExtractor(rules DetectionRules, log *logger.Logger) *FeatureExtractor {
	return &FeatureExtractor{
		rules:  rules,
		logger: log.WithComponent("feature-extractor"),
	}
}

// Extract derives the signals for one input
func (fe *FeatureExtractor) Extract(in models.AnalysisInput) models.SignalSet {
	switch in.Type {
	case models.ContentTypeLink:
		return fe.extractURLFeatures(in.URL)
	case models.ContentTypeEmail:
		return fe.extractEmailFeatures(in.EmailText)
	case models.ContentTypeVoice:
		return fe.extractMediaFeatures(in.FileName, in.SizeBytes, models.SignalHasAIMarker, fe.rules.VoiceMarkers)
	case models.ContentTypeVideo:
		return fe.extractMediaFeatures(in.FileName, in.SizeBytes, models.SignalHasFakeMarker, fe.rules.VideoMarkers)
	}
	return models.SignalSet{}
}

func negativeURLSignals() models.SignalSet {
	return models.SignalSet{
		models.SignalIsSecure:               false,
		models.SignalHasSuspiciousSubdomain: false,
		models.SignalHasSuspiciousDomain:    false,
		models.SignalHasSuspiciousPath:      false,
		models.SignalSubdomainDepth:         int64(0),
	}
}

// extractURLFeatures extracts link signals from the parsed URL
func (fe *FeatureExtractor) extractURLFeatures(rawURL string) models.SignalSet {
	signals := negativeURLSignals()

	raw := strings.TrimSpace(rawURL)
	parsed, err := url.Parse(raw)
	if raw != "" && !strings.Contains(raw, "://") && (err != nil || parsed.Hostname() == "") {
		// typed without a scheme, e.g. "paypa1.com/login"
		parsed, err = url.Parse("http://" + raw)
	}
	if err != nil || parsed.Hostname() == "" {
		fe.logger.Debug().Str("url", rawURL).Msg("unparseable url, using negative signals")
		return signals
	}

	host := foldText(parsed.Hostname())
	path := foldText(parsed.EscapedPath())

	signals[models.SignalIsSecure] = strings.EqualFold(parsed.Scheme, "https")
	signals[models.SignalHasSuspiciousDomain] = fe.rules.LookalikeDomains.Matches(host)
	signals[models.SignalHasSuspiciousSubdomain] = fe.rules.SubdomainMarkers.Matches(host)
	signals[models.SignalHasSuspiciousPath] = fe.rules.SuspiciousPaths.Matches(path)
	signals[models.SignalSubdomainDepth] = int64(subdomainDepth(host))

	return signals
}

// subdomainDepth counts the labels left of the registrable domain
func subdomainDepth(host string) int {
	if net.ParseIP(host) != nil {
		return 0
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil || registrable == host {
		return 0
	}
	prefix := strings.TrimSuffix(host, "."+registrable)
	return strings.Count(prefix, ".") + 1
}

// extractEmailFeatures scans the email body for each phrase category
func (fe *FeatureExtractor) extractEmailFeatures(text string) models.SignalSet {
	folded := foldText(text)
	return models.SignalSet{
		models.SignalHasUrgentLanguage:    fe.rules.Urgency.Matches(folded),
		models.SignalHasSuspiciousLinks:   fe.rules.Links.Matches(folded),
		models.SignalRequestsPersonalInfo: fe.rules.PersonalInfo.Matches(folded),
		models.SignalHasPoorGrammar:       fe.rules.Grammar.Matches(folded),
	}
}

// extractMediaFeatures only looks at the filename and size; no decoding happens
func (fe *FeatureExtractor) extractMediaFeatures(name string, size int64, markerSignal string, markers MarkerSet) models.SignalSet {
	return models.SignalSet{
		markerSignal:               markers.Matches(foldText(name)),
		models.SignalFileSizeBytes: size,
	}
}
