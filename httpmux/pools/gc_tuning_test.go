package pools

import "testing"

func TestApplyGCConfig_RetainsBaseline(t *testing.T) {
	ApplyGCConfig(GCConfig{MinRetainExtra: 1 << 20})

	if len(gcBaseline) != 1<<20 {
		t.Fatalf("expected gcBaseline of length %d, got %d", 1<<20, len(gcBaseline))
	}
}

func TestApplyGCConfig_ZeroRetainLeavesBaselineUntouched(t *testing.T) {
	ApplyGCConfig(GCConfig{MinRetainExtra: 1 << 20})
	ApplyGCConfig(GCConfig{GOGC: 100})

	if len(gcBaseline) != 1<<20 {
		t.Fatalf("expected previous gcBaseline to survive a no-op call, got length %d", len(gcBaseline))
	}
}
