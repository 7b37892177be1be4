package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDotEnv_MissingFile(t *testing.T) {
	got, err := LoadDotEnv(filepath.Join(t.TempDir(), ".env"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %v", got)
	}
}

func TestLoadDotEnv_Parsing(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# credentials\nGROQ_API_KEY=gsk_abc\n\nOTHER = spaced\nbroken-line\n=novalue\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := LoadDotEnv(path)
	if err != nil {
		t.Fatal(err)
	}
	if got["GROQ_API_KEY"] != "gsk_abc" {
		t.Errorf("key %q", got["GROQ_API_KEY"])
	}
	if got["OTHER"] != " spaced" {
		t.Errorf("value should be taken as-is: %q", got["OTHER"])
	}
	if len(got) != 2 {
		t.Errorf("got %v", got)
	}
}

func TestAPIKey_EnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := SaveAPIKey(path, "gsk_fromfile"); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvKeyAPIKey, "gsk_fromenv")
	got, err := APIKey(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "gsk_fromenv" {
		t.Errorf("got %q", got)
	}

	t.Setenv(EnvKeyAPIKey, "")
	got, err = APIKey(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "gsk_fromfile" {
		t.Errorf("got %q", got)
	}
}

func TestSaveAPIKey_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", ".env")
	if err := SaveAPIKey(path, "gsk_new"); err != nil {
		t.Fatal(err)
	}
	got, err := LoadDotEnv(path)
	if err != nil {
		t.Fatal(err)
	}
	if got[EnvKeyAPIKey] != "gsk_new" {
		t.Errorf("got %v", got)
	}
}

func TestSaveAPIKey_UpdatesInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# keep this comment\nGROQ_API_KEY=gsk_old\nOTHER=stays\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if err := SaveAPIKey(path, "gsk_updated"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)
	if !strings.Contains(body, "# keep this comment") {
		t.Error("comment dropped")
	}
	if !strings.Contains(body, "GROQ_API_KEY=gsk_updated") {
		t.Errorf("key not updated:\n%s", body)
	}
	if strings.Contains(body, "gsk_old") {
		t.Error("stale key left behind")
	}
	if !strings.Contains(body, "OTHER=stays") {
		t.Error("unrelated line dropped")
	}
}

func TestSaveAPIKey_AppendsWhenAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("OTHER=x\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := SaveAPIKey(path, "gsk_appended"); err != nil {
		t.Fatal(err)
	}
	got, err := LoadDotEnv(path)
	if err != nil {
		t.Fatal(err)
	}
	if got[EnvKeyAPIKey] != "gsk_appended" || got["OTHER"] != "x" {
		t.Errorf("got %v", got)
	}
}
