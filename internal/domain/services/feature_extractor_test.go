package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"guardian-shield/internal/domain/models"
	"guardian-shield/pkg/logger"
)

func newTestExtractor() *FeatureExtractor {
	return NewFeatureExtractor(DefaultDetectionRules(), logger.NewNop())
}

func TestExtractURLFeatures(t *testing.T) {
	fe := newTestExtractor()

	tests := []struct {
		name string
		url  string
		want models.SignalSet
	}{
		{
			name: "phishing link",
			url:  "http://secure-login.example.com/verify-account",
			want: models.SignalSet{
				models.SignalIsSecure:               false,
				models.SignalHasSuspiciousSubdomain: true,
				models.SignalHasSuspiciousDomain:    false,
				models.SignalHasSuspiciousPath:      true,
				models.SignalSubdomainDepth:         int64(1),
			},
		},
		{
			name: "plain https",
			url:  "https://example.com/",
			want: negativeWith(models.SignalIsSecure, true),
		},
		{
			name: "lookalike domain with mixed case",
			url:  "HTTPS://WWW.PAYPA1.COM/home",
			want: models.SignalSet{
				models.SignalIsSecure:               true,
				models.SignalHasSuspiciousSubdomain: false,
				models.SignalHasSuspiciousDomain:    true,
				models.SignalHasSuspiciousPath:      false,
				models.SignalSubdomainDepth:         int64(1),
			},
		},
		{
			name: "marker in query is ignored",
			url:  "https://example.com/?next=/verify-account",
			want: negativeWith(models.SignalIsSecure, true),
		},
		{
			name: "no scheme with suspicious path",
			url:  "paypa1.com/verify-account",
			want: models.SignalSet{
				models.SignalIsSecure:               false,
				models.SignalHasSuspiciousSubdomain: false,
				models.SignalHasSuspiciousDomain:    true,
				models.SignalHasSuspiciousPath:      true,
				models.SignalSubdomainDepth:         int64(0),
			},
		},
		{
			name: "no scheme lookalike host",
			url:  "www.paypa1.com",
			want: models.SignalSet{
				models.SignalIsSecure:               false,
				models.SignalHasSuspiciousSubdomain: false,
				models.SignalHasSuspiciousDomain:    true,
				models.SignalHasSuspiciousPath:      false,
				models.SignalSubdomainDepth:         int64(1),
			},
		},
		{
			name: "no scheme phishing link",
			url:  " secure-login.example.com/verify-account ",
			want: models.SignalSet{
				models.SignalIsSecure:               false,
				models.SignalHasSuspiciousSubdomain: true,
				models.SignalHasSuspiciousDomain:    false,
				models.SignalHasSuspiciousPath:      true,
				models.SignalSubdomainDepth:         int64(1),
			},
		},
		{
			name: "unparseable",
			url:  "://bad url",
			want: negativeURLSignals(),
		},
		{
			name: "empty",
			url:  "",
			want: negativeURLSignals(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fe.Extract(models.NewURLInput(tt.url))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func negativeWith(name string, v any) models.SignalSet {
	s := negativeURLSignals()
	s[name] = v
	return s
}

func TestExtractEmailFeatures(t *testing.T) {
	fe := newTestExtractor()

	got := fe.Extract(models.NewEmailInput("URGENT: verify your password immediately, click here"))
	want := models.SignalSet{
		models.SignalHasUrgentLanguage:    true,
		models.SignalHasSuspiciousLinks:   true,
		models.SignalRequestsPersonalInfo: true,
		models.SignalHasPoorGrammar:       false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractMediaFeatures(t *testing.T) {
	fe := newTestExtractor()

	got := fe.Extract(models.NewAudioInput("Synthetic_Voice.wav", 250000))
	want := models.SignalSet{
		models.SignalHasAIMarker:   true,
		models.SignalFileSizeBytes: int64(250000),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("voice mismatch (-want +got):\n%s", diff)
	}

	got = fe.Extract(models.NewVideoInput("holiday.mp4", 2000000))
	want = models.SignalSet{
		models.SignalHasFakeMarker: false,
		models.SignalFileSizeBytes: int64(2000000),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("video mismatch (-want +got):\n%s", diff)
	}
}

func TestSubdomainDepth(t *testing.T) {
	tests := []struct {
		host string
		want int
	}{
		{"example.com", 0},
		{"www.example.com", 1},
		{"a.b.example.co.uk", 2},
		{"192.168.0.1", 0},
		{"localhost", 0},
	}
	for _, tt := range tests {
		if got := subdomainDepth(tt.host); got != tt.want {
			t.Errorf("subdomainDepth(%q) = %d, want %d", tt.host, got, tt.want)
		}
	}
}
