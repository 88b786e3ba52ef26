package image

import (
	"bytes"
	"encoding/base64"
	stdimage "image"
	"image/png"
	"strings"
	"testing"

	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"
)

func testService(maxSize int64) *Service {
	return NewService(&config.Config{Image: config.ImageConfig{MaxSizeBytes: maxSize}})
}

func pngPayload(t *testing.T, width, height int) string {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, stdimage.NewRGBA(stdimage.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestPrepare(t *testing.T) {
	svc := testService(1 << 20)
	payload := pngPayload(t, 1, 1)

	got, err := svc.Prepare(payload)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("Prepare = %q, want png data URI", got[:40])
	}
	if !strings.HasSuffix(got, payload) {
		t.Error("data URI does not carry the original payload")
	}
}

func TestPrepareAcceptsDataURI(t *testing.T) {
	svc := testService(1 << 20)
	payload := pngPayload(t, 1, 1)

	got, err := svc.Prepare("data:image/png;base64," + payload)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("Prepare = %q, want normalized data URI", got[:40])
	}
}

func TestPrepareRejections(t *testing.T) {
	svc := testService(1 << 20)

	tests := []struct {
		name     string
		input    string
		wantCode string
	}{
		{"empty", "", "INVALID_IMAGE_FORMAT"},
		{"not base64", "this is not base64!!!", "INVALID_IMAGE_FORMAT"},
		{"not an image", base64.StdEncoding.EncodeToString([]byte("plain text payload")), "INVALID_IMAGE_TYPE"},
		{"data uri without comma", "data:image/png;base64", "INVALID_IMAGE_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Prepare(tt.input)
			if err == nil {
				t.Fatal("Prepare = nil error, want rejection")
			}
			if code := common.CodeOf(err); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestPrepareSizeBound(t *testing.T) {
	payload := pngPayload(t, 64, 64)
	decoded, _ := base64.StdEncoding.DecodeString(payload)

	svc := testService(int64(len(decoded)) - 1)
	_, err := svc.Prepare(payload)
	if err == nil {
		t.Fatal("Prepare = nil error, want size rejection")
	}
	if code := common.CodeOf(err); code != "INVALID_IMAGE_SIZE" {
		t.Errorf("code = %q, want INVALID_IMAGE_SIZE", code)
	}
}
