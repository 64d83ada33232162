package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"guardian-shield/internal/config"
)

func TestRulesFromConfigOverrides(t *testing.T) {
	rules, err := RulesFromConfig(config.DetectionConfig{
		SubdomainMarkers: []string{" Account-", "SIGNIN-"},
		VoiceMinBytes:    2048,
	})
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"account-", "signin-"}, rules.SubdomainMarkers.Markers); diff != "" {
		t.Errorf("subdomain markers mismatch (-want +got):\n%s", diff)
	}
	if rules.VoiceMinBytes != 2048 {
		t.Errorf("VoiceMinBytes = %d, want 2048", rules.VoiceMinBytes)
	}

	defaults := DefaultDetectionRules()
	if diff := cmp.Diff(defaults.LookalikeDomains, rules.LookalikeDomains); diff != "" {
		t.Errorf("untouched table changed (-want +got):\n%s", diff)
	}
	if rules.VideoMinBytes != defaults.VideoMinBytes {
		t.Errorf("VideoMinBytes = %d, want default %d", rules.VideoMinBytes, defaults.VideoMinBytes)
	}
}

func TestLoadDetectionRules(t *testing.T) {
	dir := t.TempDir()

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(dir, "rules.yaml")
		body := `
urgency:
  name: urgency
  markers: ["ACT NOW", "final notice"]
weights:
  urgency: 40
  links: 25
  personal_info: 30
  grammar: 15
`
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}

		rules, err := LoadDetectionRules(path)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"act now", "final notice"}, rules.Urgency.Markers); diff != "" {
			t.Errorf("urgency markers mismatch (-want +got):\n%s", diff)
		}
		if rules.Weights.Urgency != 40 {
			t.Errorf("urgency weight = %d, want 40", rules.Weights.Urgency)
		}
		if diff := cmp.Diff(DefaultDetectionRules().SuspiciousPaths, rules.SuspiciousPaths); diff != "" {
			t.Errorf("suspicious paths changed (-want +got):\n%s", diff)
		}
	})

	t.Run("negative weight rejected", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("weights:\n  grammar: -5\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadDetectionRules(path); err == nil || !strings.Contains(err.Error(), "must not be negative") {
			t.Errorf("error = %v, want negative weight error", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadDetectionRules(filepath.Join(dir, "absent.yaml")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})

	t.Run("config rules file with overlay", func(t *testing.T) {
		path := filepath.Join(dir, "overlay.yaml")
		if err := os.WriteFile(path, []byte("video_min_bytes: 500\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		rules, err := RulesFromConfig(config.DetectionConfig{RulesFile: path, VideoMarkers: []string{"Synth"}})
		if err != nil {
			t.Fatal(err)
		}
		if rules.VideoMinBytes != 500 {
			t.Errorf("VideoMinBytes = %d, want 500", rules.VideoMinBytes)
		}
		if diff := cmp.Diff([]string{"synth"}, rules.VideoMarkers.Markers); diff != "" {
			t.Errorf("video markers mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestMarkerSetMatchedMarkers(t *testing.T) {
	set := MarkerSet{Markers: []string{"urgent", "", "kindly"}}
	got := set.MatchedMarkers(foldText("URGENT: Kindly reply"))
	if diff := cmp.Diff([]string{"urgent", "kindly"}, got); diff != "" {
		t.Errorf("MatchedMarkers mismatch (-want +got):\n%s", diff)
	}
	if set.Matches("nothing here") {
		t.Error("empty marker must not match")
	}
}
