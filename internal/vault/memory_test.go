package vault

import (
	"bytes"
	"strings"
	"testing"
)

func TestMemoryArchive_PutAndGetSnapshot(t *testing.T) {
	archive := NewMemoryArchive()

	tests := []struct {
		name      string
		repo      string
		versionID string
		content   string
	}{
		{name: "store and retrieve snapshot", repo: "orders", versionID: "v1", content: `{"endpoints":[]}`},
		{name: "store empty snapshot", repo: "orders", versionID: "empty", content: ""},
		{name: "store large snapshot", repo: "billing", versionID: "large", content: strings.Repeat("x", 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := archive.PutSnapshot(tt.repo, tt.versionID, strings.NewReader(tt.content), int64(len(tt.content)))
			if err != nil {
				t.Fatalf("PutSnapshot() error = %v", err)
			}

			var buf bytes.Buffer
			if err := archive.GetSnapshot(tt.repo, tt.versionID, &buf); err != nil {
				t.Fatalf("GetSnapshot() error = %v", err)
			}
			if got := buf.String(); got != tt.content {
				t.Errorf("GetSnapshot() = %q, want %q", got, tt.content)
			}
		})
	}
}

func TestMemoryArchive_Latest(t *testing.T) {
	archive := NewMemoryArchive()

	latest, err := archive.LatestSnapshot("orders")
	if err != nil || latest != "" {
		t.Fatalf("LatestSnapshot() on empty archive = %q, %v", latest, err)
	}

	for _, id := range []string{"v1", "v2"} {
		if err := archive.PutSnapshot("orders", id, strings.NewReader(id), int64(len(id))); err != nil {
			t.Fatalf("PutSnapshot(%s): %v", id, err)
		}
	}
	if latest, _ := archive.LatestSnapshot("orders"); latest != "v2" {
		t.Errorf("LatestSnapshot() = %q, want v2", latest)
	}
	if latest, _ := archive.LatestSnapshot("billing"); latest != "" {
		t.Errorf("LatestSnapshot(billing) = %q, want empty", latest)
	}
}

func TestMemoryArchive_Errors(t *testing.T) {
	archive := NewMemoryArchive()

	if err := archive.PutSnapshot("orders", "v1", strings.NewReader("abc"), 5); err == nil {
		t.Error("PutSnapshot() with wrong size succeeded")
	}
	if latest, _ := archive.LatestSnapshot("orders"); latest != "" {
		t.Errorf("failed put moved latest to %q", latest)
	}

	var buf bytes.Buffer
	if err := archive.GetSnapshot("orders", "missing", &buf); err == nil {
		t.Error("GetSnapshot() of missing snapshot succeeded")
	}

	for _, key := range [][2]string{{"", "v1"}, {"orders", ""}, {"a/b", "v1"}, {"orders", ".."}, {"orders", latestName}} {
		if err := archive.PutSnapshot(key[0], key[1], strings.NewReader(""), 0); err == nil {
			t.Errorf("PutSnapshot(%q, %q) succeeded", key[0], key[1])
		}
	}
}
