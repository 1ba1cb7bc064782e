package pagetl

import "testing"

func TestPreserveWhitespace(t *testing.T) {
	tests := []struct {
		original   string
		translated string
		want       string
	}{
		{"Hello", "Hola", "Hola"},
		{"  Hello", "Hola", "  Hola"},
		{"Hello  ", "Hola", "Hola  "},
		{"\n\tHello\n", "Hola", "\n\tHola\n"},
		{"  Hello  ", "  Hola ", "  Hola  "},
		{"   ", "Hola", "Hola"},
	}

	for _, tt := range tests {
		if got := preserveWhitespace(tt.original, tt.translated); got != tt.want {
			t.Errorf("preserveWhitespace(%q, %q) = %q, want %q", tt.original, tt.translated, got, tt.want)
		}
	}
}

func TestSchedulerConfig_Defaults(t *testing.T) {
	var cfg SchedulerConfig
	cfg.defaults()

	if cfg.BatchSize != DefaultBatchSize || cfg.MaxBatchSize != DefaultBatchSize {
		t.Errorf("batch sizes = %d/%d", cfg.BatchSize, cfg.MaxBatchSize)
	}
	if cfg.Interval != DefaultBatchInterval {
		t.Errorf("Interval = %v", cfg.Interval)
	}
	if cfg.Timeout != DefaultBatchTimeout || cfg.TrickleWindow != DefaultTrickleWindow {
		t.Errorf("Timeout = %v, TrickleWindow = %v", cfg.Timeout, cfg.TrickleWindow)
	}
	if cfg.TrickleThreshold != DefaultTrickleThreshold {
		t.Errorf("TrickleThreshold = %d", cfg.TrickleThreshold)
	}
	if cfg.SourceLang != "en" || cfg.Style != StyleNeutral || cfg.Logger == nil {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	cfg = SchedulerConfig{Interval: -1}
	cfg.defaults()
	if cfg.Interval != 0 {
		t.Errorf("negative interval should disable pacing, got %v", cfg.Interval)
	}
}

func TestItemContext(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindPlaceholder, "input placeholder"},
		{KindTitle, "tooltip"},
		{KindAlt, "image alt text"},
		{KindText, ""},
	}
	for _, tt := range tests {
		if got := itemContext(TranslatableItem{Kind: tt.kind}); got != tt.want {
			t.Errorf("itemContext(%s) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
