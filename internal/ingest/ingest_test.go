package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/staysense/cancelcast/internal/dataset"
	"github.com/staysense/cancelcast/pkg/errors"
)

func writeRawCSV(t *testing.T, rows int) string {
	t.Helper()
	tbl := dataset.New([]string{"booking_id", "lead_time", "is_cancelled"})
	for i := 0; i < rows; i++ {
		label := "0"
		if i%3 == 0 {
			label = "1"
		}
		err := tbl.AppendRow([]string{strconv.Itoa(i), strconv.Itoa(i % 50), label})
		if err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "source.csv")
	if err := tbl.WriteCSVFile(path); err != nil {
		t.Fatalf("WriteCSVFile: %v", err)
	}
	return path
}

func TestIngestorSplitArithmetic(t *testing.T) {
	src := writeRawCSV(t, 100)
	dir := t.TempDir()

	result, err := New(Config{TrainRatio: 0.8, Seed: 42, ArtifactsDir: dir}, &FileFetcher{Path: src}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Train.NumRows() != 80 {
		t.Errorf("train rows = %d, want 80", result.Train.NumRows())
	}
	if result.Train.NumRows()+result.Test.NumRows() != 100 {
		t.Errorf("splits do not cover input: %d + %d", result.Train.NumRows(), result.Test.NumRows())
	}

	// booking_id is unique in the source, so the union of splits must hold
	// each id exactly once.
	seen := make(map[string]int)
	for _, tbl := range []*dataset.Table{result.Train, result.Test} {
		ids, err := tbl.Column("booking_id")
		if err != nil {
			t.Fatalf("Column: %v", err)
		}
		for _, id := range ids {
			seen[id]++
		}
	}
	if len(seen) != 100 {
		t.Errorf("splits hold %d distinct rows, want 100", len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("row %s appears %d times across splits", id, count)
		}
	}
}

func TestIngestorDeterministicUnderSeed(t *testing.T) {
	src := writeRawCSV(t, 60)

	run := func(dir string) *Result {
		result, err := New(Config{TrainRatio: 0.75, Seed: 7, ArtifactsDir: dir}, &FileFetcher{Path: src}).Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return result
	}

	first := run(t.TempDir())
	second := run(t.TempDir())

	firstIDs, _ := first.Train.Column("booking_id")
	secondIDs, _ := second.Train.Column("booking_id")
	for i := range firstIDs {
		if firstIDs[i] != secondIDs[i] {
			t.Fatalf("train order differs at %d across seeded runs", i)
		}
	}
}

func TestIngestorSeedChangesSplit(t *testing.T) {
	src := writeRawCSV(t, 60)

	a, err := New(Config{TrainRatio: 0.75, Seed: 1, ArtifactsDir: t.TempDir()}, &FileFetcher{Path: src}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := New(Config{TrainRatio: 0.75, Seed: 2, ArtifactsDir: t.TempDir()}, &FileFetcher{Path: src}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	aIDs, _ := a.Train.Column("booking_id")
	bIDs, _ := b.Train.Column("booking_id")
	same := true
	for i := range aIDs {
		if aIDs[i] != bIDs[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical shuffles")
	}
}

func TestIngestorRatioOutOfRange(t *testing.T) {
	src := writeRawCSV(t, 10)
	for _, ratio := range []float64{0, 1, -0.5, 1.5} {
		_, err := New(Config{TrainRatio: ratio, Seed: 1, ArtifactsDir: t.TempDir()}, &FileFetcher{Path: src}).Run(context.Background())
		var se *errors.StageError
		if !errors.As(err, &se) {
			t.Errorf("ratio %v: expected StageError, got %v", ratio, err)
		}
	}
}

func TestIngestorMissingSource(t *testing.T) {
	fetcher := &FileFetcher{Path: filepath.Join(t.TempDir(), "missing.csv")}
	_, err := New(Config{TrainRatio: 0.8, Seed: 1, ArtifactsDir: t.TempDir()}, fetcher).Run(context.Background())
	var se *errors.StageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if se.Stage != errors.StageIngestion {
		t.Errorf("stage = %q", se.Stage)
	}
}

func TestIngestorWritesArtifacts(t *testing.T) {
	src := writeRawCSV(t, 40)
	dir := t.TempDir()

	result, err := New(Config{TrainRatio: 0.5, Seed: 3, ArtifactsDir: dir}, &FileFetcher{Path: src}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, path := range []string{result.RawPath, result.TrainPath, result.TestPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("artifact missing: %v", err)
		}
	}

	reloaded, err := dataset.ReadCSVFile(result.TrainPath)
	if err != nil {
		t.Fatalf("ReadCSVFile: %v", err)
	}
	if reloaded.NumRows() != result.Train.NumRows() {
		t.Errorf("persisted train rows = %d, want %d", reloaded.NumRows(), result.Train.NumRows())
	}
}
