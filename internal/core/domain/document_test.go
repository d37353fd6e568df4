package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewDocument(t *testing.T) {
	doc, err := NewDocument("doc-1", "user-1", "report.pdf", "abc123", 2048, VisibilityPrivate)
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}
	if doc.Status != StatusPending {
		t.Errorf("Status = %q, want %q", doc.Status, StatusPending)
	}
	if doc.Visibility != VisibilityPrivate {
		t.Errorf("Visibility = %q, want %q", doc.Visibility, VisibilityPrivate)
	}
	if doc.CreatedAt.IsZero() || doc.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestNewDocumentValidation(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		ownerID  string
		filename string
	}{
		{"empty id", "", "user-1", "report.pdf"},
		{"empty owner", "doc-1", "", "report.pdf"},
		{"empty filename", "doc-1", "user-1", ""},
		{"whitespace filename", "doc-1", "user-1", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDocument(tt.id, tt.ownerID, tt.filename, "h", 1, VisibilityPrivate)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestNewDocumentDefaultsUnknownVisibility(t *testing.T) {
	doc, err := NewDocument("doc-1", "user-1", "report.pdf", "h", 1, Visibility("shared"))
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}
	if doc.Visibility != VisibilityPrivate {
		t.Errorf("Visibility = %q, want private fallback", doc.Visibility)
	}
}

func TestProcessingStatusTerminal(t *testing.T) {
	tests := []struct {
		status   ProcessingStatus
		terminal bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusCompleted, true},
		{StatusFailed, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestChunkFingerprint(t *testing.T) {
	long := strings.Repeat("a", 300)
	c := Chunk{Content: "  " + long + "  "}
	fp := c.Fingerprint()
	if len(fp) != FingerprintLength {
		t.Errorf("Fingerprint length = %d, want %d", len(fp), FingerprintLength)
	}

	short := Chunk{Content: " short text "}
	if got := short.Fingerprint(); got != "short text" {
		t.Errorf("Fingerprint = %q, want trimmed content", got)
	}
}

func TestChunkFingerprintCollision(t *testing.T) {
	prefix := strings.Repeat("x", FingerprintLength)
	a := Chunk{Content: prefix + " first tail"}
	b := Chunk{Content: prefix + " second tail"}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("chunks sharing a prefix should share a fingerprint")
	}
}
