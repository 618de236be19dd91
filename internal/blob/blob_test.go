package blob_test

import (
	"bytes"
	"testing"

	"github.com/caffeinepub/ace8win-3/internal/blob"
)

func TestBytesReportsProgress(t *testing.T) {
	data := make([]byte, 100*1024)
	var reported []int

	b := blob.FromBytes(data).WithUploadProgress(func(percentage int) {
		reported = append(reported, percentage)
	})

	got, err := b.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Bytes should return the original content")
	}

	if len(reported) == 0 {
		t.Fatal("Expected progress callbacks")
	}
	if reported[len(reported)-1] != 100 {
		t.Errorf("Progress should end at 100, got %d", reported[len(reported)-1])
	}
	for i := 1; i < len(reported); i++ {
		if reported[i] < reported[i-1] {
			t.Errorf("Progress went backwards: %v", reported)
			break
		}
	}
}

func TestEmptyContentStillCompletes(t *testing.T) {
	var reported []int
	b := blob.FromBytes([]byte{}).WithUploadProgress(func(p int) {
		reported = append(reported, p)
	})
	if _, err := b.Bytes(); err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if len(reported) != 1 || reported[0] != 100 {
		t.Errorf("Empty upload should report a single 100, got %v", reported)
	}
}

func TestWithUploadProgressDerives(t *testing.T) {
	original := blob.FromBytes([]byte("proof"))
	derived := original.WithUploadProgress(func(int) {})
	if original == derived {
		t.Error("WithUploadProgress should return a derived handle")
	}
	if derived.Size() != original.Size() {
		t.Error("Derived handle should share the content")
	}
}

func TestURLBackedBlob(t *testing.T) {
	b := blob.FromURL("https://cdn.example.com/proof.png")
	if b.DirectURL() != "https://cdn.example.com/proof.png" {
		t.Errorf("Unexpected URL: %s", b.DirectURL())
	}
	if _, err := b.Bytes(); err == nil {
		t.Error("URL-backed handle has no local bytes")
	}
}
