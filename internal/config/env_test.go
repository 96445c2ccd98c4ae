package config

import "testing"

func TestLoadEnvDefaults(t *testing.T) {
	e, err := LoadEnv()
	if err != nil { t.Fatalf("load env: %v", err) }
	if e.Addr != ":8080" { t.Fatalf("addr default = %q", e.Addr) }
	if e.UpstreamHost == "" { t.Fatalf("upstream host default missing") }
	if e.DefaultModel != "llama3-8b-8192" { t.Fatalf("default model = %q", e.DefaultModel) }
	if e.MaxBodyBytes != 1<<20 { t.Fatalf("max body = %d", e.MaxBodyBytes) }
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CHATRELAY_ADDR", ":9001")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("DEFAULT_SYSTEM_PROMPT", "be brief")
	e, err := LoadEnv()
	if err != nil { t.Fatalf("load env: %v", err) }
	if e.Addr != ":9001" || e.APIKey != "sk-env" || e.SystemPrompt != "be brief" {
		t.Fatalf("unexpected env: %+v", e)
	}
}

func TestMergeFileWinsWhereSet(t *testing.T) {
	e := Env{Addr: ":8080", APIKey: "sk-env", DefaultModel: "llama3-8b-8192", Temperature: 1}
	got := Merge(e, Config{Addr: ":7000", Temperature: 0.3})
	if got.Addr != ":7000" { t.Fatalf("addr = %q", got.Addr) }
	if got.Temperature != 0.3 { t.Fatalf("temperature = %v", got.Temperature) }
	if got.APIKey != "sk-env" { t.Fatalf("api key overwritten: %q", got.APIKey) }
	if got.DefaultModel != "llama3-8b-8192" { t.Fatalf("model overwritten: %q", got.DefaultModel) }
}

func TestMergeCORSDisableFromFile(t *testing.T) {
	off := false
	e := Env{CORSEnabled: true}
	got := Merge(e, Config{CORSEnabled: &off})
	if got.CORSEnabled { t.Fatalf("file cors_enabled=false did not override") }
}

func TestMergeCORSUnsetKeepsEnv(t *testing.T) {
	e := Env{CORSEnabled: true}
	got := Merge(e, Config{})
	if !got.CORSEnabled { t.Fatalf("unset file value clobbered env cors setting") }
}
