package config

import (
	"testing"
	"time"
)

func TestLoad_WithDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	if cfg.Server.Port != 8094 {
		t.Errorf("Server.Port = %d, want 8094", cfg.Server.Port)
	}

	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}

	if cfg.Lake.Bucket != "smartstream-lake" {
		t.Errorf("Lake.Bucket = %q, want %q", cfg.Lake.Bucket, "smartstream-lake")
	}

	if cfg.Lake.RawPrefix != "data/raw/" {
		t.Errorf("Lake.RawPrefix = %q, want %q", cfg.Lake.RawPrefix, "data/raw/")
	}

	if cfg.Lake.TrustedPrefix != "data/trusted/" {
		t.Errorf("Lake.TrustedPrefix = %q, want %q", cfg.Lake.TrustedPrefix, "data/trusted/")
	}

	if !cfg.NATS.Enabled {
		t.Error("NATS.Enabled should be true by default")
	}

	if cfg.NATS.Subject != "lake.raw.events" {
		t.Errorf("NATS.Subject = %q, want %q", cfg.NATS.Subject, "lake.raw.events")
	}

	if cfg.Redis.Enabled {
		t.Error("Redis.Enabled should be false by default")
	}

	if cfg.Pipeline.Workers != 4 {
		t.Errorf("Pipeline.Workers = %d, want 4", cfg.Pipeline.Workers)
	}

	if cfg.Pipeline.EnrichMetadata {
		t.Error("Pipeline.EnrichMetadata should be false by default")
	}

	if cfg.Routing.FinanceSchema != "finance" {
		t.Errorf("Routing.FinanceSchema = %q, want %q", cfg.Routing.FinanceSchema, "finance")
	}

	if len(cfg.Routing.FinanceTables) != 2 || cfg.Routing.FinanceTables[0] != "transactions" || cfg.Routing.FinanceTables[1] != "accounts" {
		t.Errorf("Routing.FinanceTables = %v, want [transactions accounts]", cfg.Routing.FinanceTables)
	}

	if cfg.Routing.LegacyDomain != "legacy" {
		t.Errorf("Routing.LegacyDomain = %q, want %q", cfg.Routing.LegacyDomain, "legacy")
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}

	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_FinanceEnvOverrides(t *testing.T) {
	t.Setenv("FINANCE_SCHEMA_NAME", "billing")
	t.Setenv("FINANCE_TABLE_LIST", "invoices,payments,refunds")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Routing.FinanceSchema != "billing" {
		t.Errorf("Routing.FinanceSchema = %q, want %q", cfg.Routing.FinanceSchema, "billing")
	}

	if len(cfg.Routing.FinanceTables) != 3 {
		t.Fatalf("Routing.FinanceTables = %v, want 3 entries", cfg.Routing.FinanceTables)
	}

	if cfg.Routing.FinanceTables[2] != "refunds" {
		t.Errorf("Routing.FinanceTables[2] = %q, want %q", cfg.Routing.FinanceTables[2], "refunds")
	}
}

func TestLoad_PrefixedEnvOverrides(t *testing.T) {
	t.Setenv("REFINERY_LAKE_BUCKET", "other-lake")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Lake.Bucket != "other-lake" {
		t.Errorf("Lake.Bucket = %q, want %q", cfg.Lake.Bucket, "other-lake")
	}
}
