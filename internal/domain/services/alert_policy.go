package services

import (
	"fmt"
	"net/url"

	"guardian-shield/internal/domain/models"
)

// Block thresholds per alert level. A score must exceed the threshold.
var blockThresholds = map[models.AlertLevel]int{
	models.AlertLevelLow:    90,
	models.AlertLevelMedium: 75,
	models.AlertLevelHigh:   60,
}

// ShouldBlock reports whether a threat scored at score is blocked under the
// given alert level. Unknown levels behave like medium.
func ShouldBlock(level models.AlertLevel, score int) bool {
	threshold, ok := blockThresholds[level]
	if !ok {
		threshold = blockThresholds[models.AlertLevelMedium]
	}
	return score > threshold
}

// ValidAlertLevel reports whether level is one of low, medium or high
func ValidAlertLevel(level models.AlertLevel) bool {
	_, ok := blockThresholds[level]
	return ok
}

// NavigationPolicy turns a link analysis into an allow/warn/redirect decision
type NavigationPolicy struct {
	warningPage string
}

// NewNavigationPolicy creates a policy that redirects blocked pages to warningPage
func NewNavigationPolicy(warningPage string) *NavigationPolicy {
	if warningPage == "" {
		warningPage = "warning.html"
	}
	return &NavigationPolicy{warningPage: warningPage}
}

// Decide returns the navigation decision for rawURL. Phishing pages are
// redirected when the client auto-blocks, otherwise the user is warned.
func (p *NavigationPolicy) Decide(cfg models.ExtensionConfig, rawURL string, result *models.AnalysisResult) models.NavigationDecision {
	decision := models.NavigationDecision{
		Action:   models.NavigationAllow,
		Analysis: result.Legacy(),
	}

	if result.Verdict != models.VerdictPhishing {
		return decision
	}

	if cfg.AutoBlockThreats {
		decision.Action = models.NavigationRedirect
		decision.RedirectURL = p.WarningURL(rawURL, "phishing", result.Score)
		decision.Blocked = true
		return decision
	}

	decision.Action = models.NavigationWarn
	return decision
}

// WarningURL builds the interstitial URL. Parameters keep the order the
// warning page reads them in.
func (p *NavigationPolicy) WarningURL(rawURL, threat string, confidence int) string {
	return fmt.Sprintf("%s?url=%s&threat=%s&confidence=%d",
		p.warningPage, url.QueryEscape(rawURL), url.QueryEscape(threat), confidence)
}

// MediaBlocked reports whether a media verdict should be blocked for the client
func MediaBlocked(cfg models.ExtensionConfig, result *models.AnalysisResult) bool {
	return cfg.AutoBlockThreats && result.IsThreat() && ShouldBlock(cfg.AlertLevel, result.Score)
}
