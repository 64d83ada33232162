package services

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"guardian-shield/internal/config"
)

// MarkerSet is a named group of substrings. A set matches when any one of
// its markers occurs in the (case-folded) subject.
type MarkerSet struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Markers     []string `yaml:"markers"`
}

// Matches reports whether any marker occurs in folded. folded must already
// be case-folded with foldText.
func (m MarkerSet) Matches(folded string) bool {
	for _, marker := range m.Markers {
		if marker != "" && strings.Contains(folded, marker) {
			return true
		}
	}
	return false
}

// MatchedMarkers returns every marker that occurs in folded, in table order
func (m MarkerSet) MatchedMarkers(folded string) []string {
	var out []string
	for _, marker := range m.Markers {
		if marker != "" && strings.Contains(folded, marker) {
			out = append(out, marker)
		}
	}
	return out
}

// EmailWeights are the risk points added per matched email category
type EmailWeights struct {
	Urgency      int `yaml:"urgency"`
	Links        int `yaml:"links"`
	PersonalInfo int `yaml:"personal_info"`
	Grammar      int `yaml:"grammar"`
}

// DetectionRules holds every table the extractor and scorer read. A rules
// value is immutable once built; share it freely between goroutines.
type DetectionRules struct {
	// Link
	LookalikeDomains MarkerSet `yaml:"lookalike_domains"`
	SubdomainMarkers MarkerSet `yaml:"subdomain_markers"`
	SuspiciousPaths  MarkerSet `yaml:"suspicious_paths"`

	// Email
	Urgency      MarkerSet    `yaml:"urgency"`
	Links        MarkerSet    `yaml:"links"`
	PersonalInfo MarkerSet    `yaml:"personal_info"`
	Grammar      MarkerSet    `yaml:"grammar"`
	Weights      EmailWeights `yaml:"weights"`

	// Media
	VoiceMarkers  MarkerSet `yaml:"voice_markers"`
	VideoMarkers  MarkerSet `yaml:"video_markers"`
	VoiceMinBytes int64     `yaml:"voice_min_bytes"`
	VideoMinBytes int64     `yaml:"video_min_bytes"`
}

// DefaultDetectionRules returns the built-in heuristic tables
func DefaultDetectionRules() DetectionRules {
	r := DetectionRules{
		LookalikeDomains: MarkerSet{
			Name:        "lookalike_domain",
			Description: "Hostname imitates a well-known brand",
			Markers:     []string{"paypa1.com", "amaz0n.com", "g00gle.com"},
		},
		SubdomainMarkers: MarkerSet{
			Name:        "suspicious_subdomain",
			Description: "Hostname carries a credential-bait prefix",
			Markers:     []string{"secure-", "login-", "verify-"},
		},
		SuspiciousPaths: MarkerSet{
			Name:        "suspicious_path",
			Description: "Path imitates an account verification flow",
			Markers:     []string{"/verify-account", "/login/verify", "/secure-login"},
		},
		Urgency: MarkerSet{
			Name:        "urgent_language",
			Description: "Message pressures the reader to act now",
			Markers:     []string{"urgent", "immediate action", "account suspended"},
		},
		Links: MarkerSet{
			Name:        "suspicious_links",
			Description: "Message pushes a link or a URL shortener",
			Markers:     []string{"click here", "https://bit.ly", "https://tinyurl.com"},
		},
		PersonalInfo: MarkerSet{
			Name:        "personal_info_request",
			Description: "Message asks for credentials or identity data",
			Markers:     []string{"verify your password", "confirm your credit card", "social security"},
		},
		Grammar: MarkerSet{
			Name:        "poor_grammar",
			Description: "Generic greeting or awkward phrasing",
			Markers:     []string{"dear valued customer", "kindly", "please to do"},
		},
		Weights: EmailWeights{
			Urgency:      25,
			Links:        20,
			PersonalInfo: 30,
			Grammar:      15,
		},
		VoiceMarkers: MarkerSet{
			Name:        "synthetic_voice_name",
			Description: "Filename suggests generated audio",
			Markers:     []string{"ai", "synthetic"},
		},
		VideoMarkers: MarkerSet{
			Name:        "manipulated_video_name",
			Description: "Filename suggests manipulated video",
			Markers:     []string{"fake", "deep"},
		},
		VoiceMinBytes: 100000,
		VideoMinBytes: 1000000,
	}
	return r.normalized()
}

// RulesFromConfig overlays configured tables on the defaults, then the
// rules file if one is set
func RulesFromConfig(cfg config.DetectionConfig) (DetectionRules, error) {
	r := DefaultDetectionRules()

	if cfg.RulesFile != "" {
		loaded, err := LoadDetectionRules(cfg.RulesFile)
		if err != nil {
			return DetectionRules{}, err
		}
		r = loaded
	}

	override := func(set *MarkerSet, markers []string) {
		if len(markers) > 0 {
			set.Markers = markers
		}
	}
	override(&r.LookalikeDomains, cfg.LookalikeDomains)
	override(&r.SubdomainMarkers, cfg.SubdomainMarkers)
	override(&r.SuspiciousPaths, cfg.SuspiciousPaths)
	override(&r.Urgency, cfg.UrgencyPhrases)
	override(&r.Links, cfg.LinkPhrases)
	override(&r.PersonalInfo, cfg.PersonalInfo)
	override(&r.Grammar, cfg.GrammarMarkers)
	override(&r.VoiceMarkers, cfg.VoiceMarkers)
	override(&r.VideoMarkers, cfg.VideoMarkers)

	if cfg.VoiceMinBytes > 0 {
		r.VoiceMinBytes = cfg.VoiceMinBytes
	}
	if cfg.VideoMinBytes > 0 {
		r.VideoMinBytes = cfg.VideoMinBytes
	}

	return r.normalized(), nil
}

// LoadDetectionRules reads a YAML rules file. Sections left out of the file
// keep their default values.
func LoadDetectionRules(path string) (DetectionRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DetectionRules{}, fmt.Errorf("failed to read rules file: %w", err)
	}

	r := DefaultDetectionRules()
	if err := yaml.Unmarshal(data, &r); err != nil {
		return DetectionRules{}, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	if err := r.validate(); err != nil {
		return DetectionRules{}, fmt.Errorf("invalid rules file %s: %w", path, err)
	}

	return r.normalized(), nil
}

func (r DetectionRules) validate() error {
	w := r.Weights
	if w.Urgency < 0 || w.Links < 0 || w.PersonalInfo < 0 || w.Grammar < 0 {
		return fmt.Errorf("email weights must not be negative")
	}
	if r.VoiceMinBytes < 0 || r.VideoMinBytes < 0 {
		return fmt.Errorf("size thresholds must not be negative")
	}
	return nil
}

// normalized folds every marker so matching only has to fold the subject
func (r DetectionRules) normalized() DetectionRules {
	for _, set := range []*MarkerSet{
		&r.LookalikeDomains, &r.SubdomainMarkers, &r.SuspiciousPaths,
		&r.Urgency, &r.Links, &r.PersonalInfo, &r.Grammar,
		&r.VoiceMarkers, &r.VideoMarkers,
	} {
		folded := make([]string, 0, len(set.Markers))
		for _, m := range set.Markers {
			if m = strings.TrimSpace(m); m != "" {
				folded = append(folded, foldText(m))
			}
		}
		set.Markers = folded
	}
	return r
}

// foldText applies Unicode case folding. A fresh Caser is used per call since
// cases.Caser is not safe for concurrent use.
func foldText(s string) string {
	return cases.Fold().String(s)
}
