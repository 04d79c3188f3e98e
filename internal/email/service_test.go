package email

import (
	"strings"
	"testing"
)

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   bool
	}{
		{
			name:   "fully configured",
			config: Config{Host: "smtp.example.com", Port: "587", From: "noreply@example.com"},
			want:   true,
		},
		{
			name:   "missing host",
			config: Config{Port: "587", From: "noreply@example.com"},
			want:   false,
		},
		{
			name:   "missing port",
			config: Config{Host: "smtp.example.com", From: "noreply@example.com"},
			want:   false,
		},
		{
			name:   "missing from",
			config: Config{Host: "smtp.example.com", Port: "587"},
			want:   false,
		},
		{
			name:   "empty",
			config: Config{},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(tt.config)
			if got := s.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSendEmailUnconfigured(t *testing.T) {
	s := NewService(Config{})
	if err := s.SendEmail([]string{"a@example.com"}, "subject", "body"); err == nil {
		t.Error("expected error when not configured")
	}
	if err := s.SendHTMLEmail([]string{"a@example.com"}, "subject", "<p>body</p>"); err == nil {
		t.Error("expected error when not configured")
	}
}

func TestDigestTemplateRenders(t *testing.T) {
	html, err := renderTemplate(digestEmailTemplate, DigestData{
		AppName: "Padhub",
		Entries: []DigestEntry{
			{PadName: "Notes", PadURL: "http://localhost/p/p1", Authors: "ann ben", Excerpt: "hello"},
		},
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	for _, want := range []string{"Notes", "http://localhost/p/p1", "ann ben", "hello"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered digest missing %q", want)
		}
	}
}
