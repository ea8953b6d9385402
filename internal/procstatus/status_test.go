package procstatus

import (
	"testing"

	"proctor/internal/analysis"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	status := New("sess-1")
	status.VideoAnalyzed = true
	status.AudioExtracted = true
	status.CheatingAnalysis = &analysis.Summary{
		CheatingScore:      12.5,
		IsCheatingDetected: false,
	}

	if err := Write(dir, status); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, ok, err := Read(dir)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !ok {
		t.Fatal("expected artifact present")
	}
	if got.SessionID != "sess-1" || !got.VideoAnalyzed || !got.AudioExtracted {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.CheatingAnalysis == nil || got.CheatingAnalysis.CheatingScore != 12.5 {
		t.Errorf("embedded summary mismatch: %+v", got.CheatingAnalysis)
	}
	if got.ProcessingCompleted {
		t.Error("completion must not be set by Write")
	}
}

func TestReadMissingArtifact(t *testing.T) {
	status, ok, err := Read(t.TempDir())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing artifact")
	}
	if status != (Status{}) {
		t.Errorf("expected zero status, got %+v", status)
	}
}

func TestMarkProcessingCompletedPreservesFields(t *testing.T) {
	dir := t.TempDir()

	status := New("sess-2")
	status.VideoAnalyzed = true
	status.AudioProcessingStarted = true
	status.Error = "audio extraction failed"
	if err := Write(dir, status); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := MarkProcessingCompleted(dir); err != nil {
		t.Fatalf("MarkProcessingCompleted: %v", err)
	}

	got, ok, err := Read(dir)
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	if !got.ProcessingCompleted {
		t.Error("expected completion flag")
	}
	if !got.VideoAnalyzed || !got.AudioProcessingStarted {
		t.Error("completion must preserve prior flags")
	}
	if got.Error != "audio extraction failed" {
		t.Errorf("completion must preserve error field, got %q", got.Error)
	}
}

func TestMarkProcessingCompletedRequiresArtifact(t *testing.T) {
	if err := MarkProcessingCompleted(t.TempDir()); err == nil {
		t.Fatal("expected error for missing artifact")
	}
}
