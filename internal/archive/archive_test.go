package archive

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"econpipe/internal/logger"
	"econpipe/pkg/clock"
)

func testLogger() *logger.Logger {
	return logger.NewLoggerTo(io.Discard, "error")
}

// Helper to create a snapshot source file to archive.
func writeSource(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "news.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write source snapshot: %v", err)
	}

	return path
}

func TestStore_DatedLayout(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "archive")
	src := writeSource(t, tmpDir, `{"articles":[]}`)

	clk := clock.NewFixed(time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC))
	arch := New(root, 30, clk, testLogger())

	result, err := arch.Store(src)
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	want := filepath.Join(root, "2024", "03", "news-20240315-0600.json")
	if result.Path != want {
		t.Errorf("Path = %s, want %s", result.Path, want)
	}

	if result.Bytes != int64(len(`{"articles":[]}`)) {
		t.Errorf("Bytes = %d, want %d", result.Bytes, len(`{"articles":[]}`))
	}

	if result.Digest == "" {
		t.Error("Expected non-empty digest")
	}

	data, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("Reading archived copy: %v", err)
	}
	if string(data) != `{"articles":[]}` {
		t.Errorf("Archived content = %q", data)
	}
}

func TestStore_SingleDigitMonthIsPadded(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "archive")
	src := writeSource(t, tmpDir, `{}`)

	clk := clock.NewFixed(time.Date(2025, 1, 2, 23, 59, 0, 0, time.UTC))
	arch := New(root, 30, clk, testLogger())

	result, err := arch.Store(src)
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	want := filepath.Join(root, "2025", "01", "news-20250102-2359.json")
	if result.Path != want {
		t.Errorf("Path = %s, want %s", result.Path, want)
	}
}

func TestStore_SameMinuteOverwrites(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "archive")
	src := writeSource(t, tmpDir, `{"articles":[]}`)

	clk := clock.NewFixed(time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC))
	arch := New(root, 30, clk, testLogger())

	if _, err := arch.Store(src); err != nil {
		t.Fatalf("first Store failed: %v", err)
	}

	clk.Advance(30 * time.Second) // still the same minute

	if err := os.WriteFile(src, []byte(`{"articles":[{"title":"late"}]}`), 0644); err != nil {
		t.Fatalf("rewriting source: %v", err)
	}

	result, err := arch.Store(src)
	if err != nil {
		t.Fatalf("second Store failed: %v", err)
	}

	entries, err := arch.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry after same-minute stores, got %d", len(entries))
	}

	data, _ := os.ReadFile(result.Path)
	if string(data) != `{"articles":[{"title":"late"}]}` {
		t.Errorf("Archive holds stale content: %q", data)
	}
}

func TestList_MissingRoot(t *testing.T) {
	arch := New(filepath.Join(t.TempDir(), "never-created"), 30, clock.NewFixed(time.Now()), testLogger())

	entries, err := arch.List()
	if err != nil {
		t.Fatalf("List on missing root failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty list, got %d entries", len(entries))
	}
}

func TestList_NewestFirstAcrossYears(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "archive")
	src := writeSource(t, tmpDir, `{}`)

	clk := clock.NewFixed(time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC))
	arch := New(root, 30, clk, testLogger())

	times := []time.Time{
		time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 6, 1, 12, 30, 0, 0, time.UTC),
	}
	for _, at := range times {
		clk.Set(at)
		if _, err := arch.Store(src); err != nil {
			t.Fatalf("Store at %v failed: %v", at, err)
		}
	}

	entries, err := arch.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	wantOrder := []string{
		"news-20240101-0000.json",
		"news-20231231-2359.json",
		"news-20230601-1230.json",
	}

	if len(entries) != len(wantOrder) {
		t.Fatalf("Expected %d entries, got %d", len(wantOrder), len(entries))
	}

	for i, want := range wantOrder {
		if entries[i].Name != want {
			t.Errorf("entries[%d].Name = %s, want %s", i, entries[i].Name, want)
		}
	}
}

func TestList_IgnoresForeignFiles(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "archive")
	src := writeSource(t, tmpDir, `{}`)

	clk := clock.NewFixed(time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC))
	arch := New(root, 30, clk, testLogger())

	if _, err := arch.Store(src); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	// Files that live near the archive but are not archived snapshots.
	foreign := []string{
		filepath.Join(root, "last-run.json"),
		filepath.Join(root, "README.md"),
		filepath.Join(root, "2024", "03", "news-2024.json"),
		filepath.Join(root, "2024", "03", "notes.txt"),
		filepath.Join(root, "2024", "03", "news-20240315-0600.json.bak"),
	}
	for _, path := range foreign {
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}

	entries, err := arch.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Name != "news-20240315-0600.json" {
		t.Errorf("entry = %s", entries[0].Name)
	}
}

func TestPrune_KeepsNewestWithinLimit(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "archive")
	src := writeSource(t, tmpDir, `{}`)

	clk := clock.NewFixed(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	arch := New(root, 30, clk, testLogger())

	// 36 stores, one minute apart.
	for i := 0; i < 36; i++ {
		if _, err := arch.Store(src); err != nil {
			t.Fatalf("Store %d failed: %v", i, err)
		}
		clk.Advance(time.Minute)
	}

	result, err := arch.Prune()
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	if len(result.Removed) != 6 {
		t.Errorf("Removed %d entries, want 6", len(result.Removed))
	}
	if result.Kept != 30 {
		t.Errorf("Kept = %d, want 30", result.Kept)
	}

	// Deletion order is oldest first.
	if first := filepath.Base(result.Removed[0]); first != "news-20240101-0000.json" {
		t.Errorf("Removed[0] = %s, want news-20240101-0000.json", first)
	}
	if last := filepath.Base(result.Removed[len(result.Removed)-1]); last != "news-20240101-0005.json" {
		t.Errorf("Removed[%d] = %s, want news-20240101-0005.json", len(result.Removed)-1, last)
	}

	entries, err := arch.List()
	if err != nil {
		t.Fatalf("List after prune failed: %v", err)
	}
	if len(entries) != 30 {
		t.Fatalf("Expected 30 survivors, got %d", len(entries))
	}

	// The oldest six went, so the oldest survivor is minute 6.
	oldest := entries[len(entries)-1].Name
	if oldest != "news-20240101-0006.json" {
		t.Errorf("oldest survivor = %s, want news-20240101-0006.json", oldest)
	}
	if newest := entries[0].Name; newest != "news-20240101-0035.json" {
		t.Errorf("newest survivor = %s, want news-20240101-0035.json", newest)
	}

	for _, removed := range result.Removed {
		if _, statErr := os.Stat(removed); !os.IsNotExist(statErr) {
			t.Errorf("pruned file still exists: %s", removed)
		}
	}
}

func TestPrune_UnderLimitIsNoop(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "archive")
	src := writeSource(t, tmpDir, `{}`)

	clk := clock.NewFixed(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	arch := New(root, 30, clk, testLogger())

	for i := 0; i < 5; i++ {
		if _, err := arch.Store(src); err != nil {
			t.Fatalf("Store %d failed: %v", i, err)
		}
		clk.Advance(time.Minute)
	}

	result, err := arch.Prune()
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	if len(result.Removed) != 0 {
		t.Errorf("Removed %d entries, want 0", len(result.Removed))
	}
	if result.Kept != 5 {
		t.Errorf("Kept = %d, want 5", result.Kept)
	}
}

func TestPrune_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "archive")
	src := writeSource(t, tmpDir, `{}`)

	clk := clock.NewFixed(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	arch := New(root, 3, clk, testLogger())

	for i := 0; i < 10; i++ {
		if _, err := arch.Store(src); err != nil {
			t.Fatalf("Store %d failed: %v", i, err)
		}
		clk.Advance(time.Minute)
	}

	first, err := arch.Prune()
	if err != nil {
		t.Fatalf("first Prune failed: %v", err)
	}
	if len(first.Removed) != 7 {
		t.Errorf("first prune removed %d, want 7", len(first.Removed))
	}

	second, err := arch.Prune()
	if err != nil {
		t.Fatalf("second Prune failed: %v", err)
	}
	if len(second.Removed) != 0 {
		t.Errorf("second prune removed %d, want 0", len(second.Removed))
	}
	if second.Kept != 3 {
		t.Errorf("second prune kept %d, want 3", second.Kept)
	}
}

func TestExcess_DryRunLeavesFiles(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "archive")
	src := writeSource(t, tmpDir, `{}`)

	clk := clock.NewFixed(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	arch := New(root, 4, clk, testLogger())

	for i := 0; i < 6; i++ {
		if _, err := arch.Store(src); err != nil {
			t.Fatalf("Store %d failed: %v", i, err)
		}
		clk.Advance(time.Minute)
	}

	excess, err := arch.Excess()
	if err != nil {
		t.Fatalf("Excess failed: %v", err)
	}

	if len(excess) != 2 {
		t.Fatalf("Excess = %d entries, want 2", len(excess))
	}

	// Oldest two are the excess.
	if excess[0].Name != "news-20240101-0001.json" || excess[1].Name != "news-20240101-0000.json" {
		t.Errorf("unexpected excess entries: %s, %s", excess[0].Name, excess[1].Name)
	}

	// Nothing deleted.
	entries, err := arch.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 6 {
		t.Errorf("Expected all 6 entries intact, got %d", len(entries))
	}
}

func TestTotalBytes(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "archive")
	src := writeSource(t, tmpDir, `{"articles":[]}`)

	clk := clock.NewFixed(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	arch := New(root, 30, clk, testLogger())

	for i := 0; i < 3; i++ {
		if _, err := arch.Store(src); err != nil {
			t.Fatalf("Store %d failed: %v", i, err)
		}
		clk.Advance(time.Minute)
	}

	entries, err := arch.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := int64(3 * len(`{"articles":[]}`))
	if got := TotalBytes(entries); got != want {
		t.Errorf("TotalBytes = %d, want %d", got, want)
	}
}
