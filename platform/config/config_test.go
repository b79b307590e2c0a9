package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.GetDuplicateOverallThreshold() != 75 {
		t.Fatalf("expected overall threshold 75, got %v", cfg.GetDuplicateOverallThreshold())
	}
	if cfg.GetDuplicateAutoMergeThreshold() != 95 {
		t.Fatalf("expected auto-merge threshold 95, got %v", cfg.GetDuplicateAutoMergeThreshold())
	}
	if cfg.GetPhoneDefaultRegion() != "US" {
		t.Fatalf("expected region US, got %q", cfg.GetPhoneDefaultRegion())
	}
}

func TestLoadRejectsRedisBackendWithoutURL(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for redis backend without REDIS_URL")
	}
}

func TestLoadRejectsThresholdOutOfRange(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("DUPLICATE_OVERALL_THRESHOLD", "120")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for threshold above 100")
	}
}
