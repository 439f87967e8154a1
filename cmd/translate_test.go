package cmd

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/valpere/sheetran/internal/completion"
	"github.com/valpere/sheetran/internal/dictionary"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeWorkbook(t *testing.T, path string, cells map[string]string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", "Worksheet"); err != nil {
		t.Fatal(err)
	}
	for cell, text := range cells {
		if err := f.SetCellStr("Worksheet", cell, text); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
}

func runTranslate(t *testing.T, baseURL, dictPath, sourcePath, destPath string) error {
	t.Helper()
	rootCmd.SetArgs([]string{
		"translate", dictPath, sourcePath, destPath,
		"--api-key", "test-key",
		"--base-url", baseURL,
		"--interval", "10ms",
		"--log-output", filepath.Join(t.TempDir(), "sheetran.log"),
	})
	return rootCmd.Execute()
}

func TestTranslate_MalformedDictionaryAbortsBeforeSource(t *testing.T) {
	dir := t.TempDir()
	dictPath := filepath.Join(dir, "dictionary.txt")
	writeFile(t, dictPath, "cat – pisică\nno separator here\n")

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	// The source file does not exist; the dictionary error must come first.
	err := runTranslate(t, server.URL, dictPath, filepath.Join(dir, "missing.xlsx"), filepath.Join(dir, "out.xlsx"))

	var lineErr *dictionary.LineError
	if !errors.As(err, &lineErr) {
		t.Fatalf("expected dictionary line error, got %v", err)
	}
	if lineErr.Line != 2 {
		t.Errorf("expected line 2, got %d", lineErr.Line)
	}
	if requests.Load() != 0 {
		t.Errorf("expected no requests, got %d", requests.Load())
	}
	if _, statErr := os.Stat(filepath.Join(dir, "out.xlsx")); !os.IsNotExist(statErr) {
		t.Error("expected no destination file")
	}
}

func TestTranslate_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	dictPath := filepath.Join(dir, "dictionary.txt")
	writeFile(t, dictPath, "cat – pisică\n")

	sourcePath := filepath.Join(dir, "source.xlsx")
	writeWorkbook(t, sourcePath, map[string]string{
		"A1": "Word",
		"A2": "Cat",
		"A3": "Hello",
		"C6": "hello ",
		"A4": "World",
	})

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		var req completion.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		if strings.Contains(req.Prompt, "\nWorld\n") {
			w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		w.Write([]byte(`{"choices":[{"text":" Salut"}]}`))
	}))
	defer server.Close()

	destPath := filepath.Join(dir, "out.xlsx")
	if err := runTranslate(t, server.URL, dictPath, sourcePath, destPath); err != nil {
		t.Fatalf("translate failed: %v", err)
	}

	if got := requests.Load(); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}

	f, err := excelize.OpenFile(destPath)
	if err != nil {
		t.Fatalf("failed to open destination: %v", err)
	}
	defer f.Close()

	want := map[string]string{
		"A1": "Word",
		"A2": "pisică",
		"A3": "Salut",
		"C6": "Salut",
		"A4": "",
	}
	for cell, text := range want {
		got, err := f.GetCellValue("Worksheet", cell)
		if err != nil {
			t.Fatalf("read %s: %v", cell, err)
		}
		if got != text {
			t.Errorf("cell %s: got %q, want %q", cell, got, text)
		}
	}
}
