package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDev_ReturnsSensibleDefaults(t *testing.T) {
	t.Setenv("SHOPIFY_API_SECRET", "")
	t.Setenv("INVOICE_STORAGE", "")

	cfg := LoadDev()
	if cfg == nil {
		t.Fatal("LoadDev returned nil")
	}

	if cfg.Port != 8080 {
		t.Errorf("Port: want 8080, got %d", cfg.Port)
	}
	if cfg.Shopify.APISecret == "" || !cfg.UsesDevSecret() {
		t.Error("LoadDev should substitute the development secret")
	}
	if cfg.Shopify.APIVersion != "2025-01" {
		t.Errorf("APIVersion: got %q", cfg.Shopify.APIVersion)
	}
	if cfg.InvoiceStorage != "local" || cfg.InvoicePath != "./invoices" || cfg.InvoiceURL != "/files" {
		t.Errorf("invoice storage: %q %q %q", cfg.InvoiceStorage, cfg.InvoicePath, cfg.InvoiceURL)
	}
	if cfg.PresignExpiry != 15*time.Minute {
		t.Errorf("PresignExpiry: want 15m, got %v", cfg.PresignExpiry)
	}
	if cfg.OSSThresholdScope != "country" {
		t.Errorf("OSSThresholdScope: got %q", cfg.OSSThresholdScope)
	}
	if cfg.RateLimit.PerSecond != 5 || cfg.RateLimit.Burst != 20 {
		t.Errorf("RateLimit: %+v", cfg.RateLimit)
	}
}

func TestLoadDev_FallsBackToLocalStorage(t *testing.T) {
	t.Setenv("SHOPIFY_API_SECRET", "")
	t.Setenv("INVOICE_STORAGE", "s3")
	t.Setenv("S3_BUCKET", "")

	if cfg := LoadDev(); cfg.InvoiceStorage != "local" {
		t.Errorf("InvoiceStorage: want local without a bucket, got %q", cfg.InvoiceStorage)
	}
}

func TestLoadDev_KeepsRealSecret(t *testing.T) {
	t.Setenv("SHOPIFY_API_SECRET", "shpss_real")

	cfg := LoadDev()
	if cfg.UsesDevSecret() || cfg.Shopify.APISecret != "shpss_real" {
		t.Errorf("secret: got %q", cfg.Shopify.APISecret)
	}
}

func TestLoad_MissingShopifySecret(t *testing.T) {
	t.Setenv("SHOPIFY_API_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing SHOPIFY_API_SECRET, got nil")
	}
}

func TestLoad_S3RequiresBucket(t *testing.T) {
	t.Setenv("SHOPIFY_API_SECRET", "secret")
	t.Setenv("INVOICE_STORAGE", "s3")
	t.Setenv("S3_BUCKET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for s3 storage without bucket")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SHOPIFY_API_SECRET", "secret")
	t.Setenv("SHOPIFY_API_KEY", "key")
	t.Setenv("INVOICE_STORAGE", "s3")
	t.Setenv("S3_BUCKET", "invoices")
	t.Setenv("S3_FORCE_PATH_STYLE", "false")
	t.Setenv("OSS_THRESHOLD_SCOPE", "eu")
	t.Setenv("RATE_LIMIT_PER_SECOND", "0.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Shopify.APIKey != "key" || cfg.Shopify.APISecret != "secret" {
		t.Errorf("Shopify: %+v", cfg.Shopify)
	}
	if cfg.S3.Bucket != "invoices" || cfg.S3.ForcePathStyle {
		t.Errorf("S3: %+v", cfg.S3)
	}
	if cfg.OSSThresholdScope != "eu" || cfg.RateLimit.PerSecond != 0.5 {
		t.Errorf("scope %q, rate %v", cfg.OSSThresholdScope, cfg.RateLimit.PerSecond)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FACTURA_TEST_DOTENV=from-file\nFACTURA_TEST_SET=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FACTURA_TEST_DOTENV", "")
	os.Unsetenv("FACTURA_TEST_DOTENV")
	t.Setenv("FACTURA_TEST_SET", "from-env")

	LoadDotEnv(path)

	if got := os.Getenv("FACTURA_TEST_DOTENV"); got != "from-file" {
		t.Errorf("FACTURA_TEST_DOTENV: got %q", got)
	}
	if got := os.Getenv("FACTURA_TEST_SET"); got != "from-env" {
		t.Errorf("existing variable overridden: %q", got)
	}
	LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
}

func TestGetEnvInt(t *testing.T) {
	key := "FACTURA_TEST_INT_VAR"
	t.Setenv(key, "")

	if got := getEnvInt(key, 42); got != 42 {
		t.Errorf("expected fallback 42, got %d", got)
	}
	t.Setenv(key, "100")
	if got := getEnvInt(key, 42); got != 100 {
		t.Errorf("expected 100, got %d", got)
	}
	t.Setenv(key, "not-a-number")
	if got := getEnvInt(key, 42); got != 42 {
		t.Errorf("expected fallback 42 for invalid int, got %d", got)
	}
}

func TestGetEnvFloat(t *testing.T) {
	key := "FACTURA_TEST_FLOAT_VAR"
	t.Setenv(key, "2.5")
	if got := getEnvFloat(key, 1); got != 2.5 {
		t.Errorf("expected 2.5, got %v", got)
	}
	t.Setenv(key, "fast")
	if got := getEnvFloat(key, 1); got != 1 {
		t.Errorf("expected fallback 1, got %v", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	key := "FACTURA_TEST_BOOL_VAR"
	t.Setenv(key, "")

	if !getEnvBool(key, true) {
		t.Error("expected fallback true")
	}
	t.Setenv(key, "false")
	if getEnvBool(key, true) {
		t.Error("expected false")
	}
	t.Setenv(key, "maybe")
	if !getEnvBool(key, true) {
		t.Error("expected fallback true for invalid bool")
	}
}

func TestGetEnvDuration(t *testing.T) {
	key := "FACTURA_TEST_DUR_VAR"
	t.Setenv(key, "")

	if got := getEnvDuration(key, 5*time.Second); got != 5*time.Second {
		t.Errorf("expected fallback 5s, got %v", got)
	}
	t.Setenv(key, "30s")
	if got := getEnvDuration(key, 5*time.Second); got != 30*time.Second {
		t.Errorf("expected 30s, got %v", got)
	}
	t.Setenv(key, "not-a-duration")
	if got := getEnvDuration(key, 5*time.Second); got != 5*time.Second {
		t.Errorf("expected fallback 5s for invalid duration, got %v", got)
	}
}
