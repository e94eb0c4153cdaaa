package storage

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"

	apperrors "go-optical-flow/internal/errors"
	"go-optical-flow/pkg/validation"
)

// withDeclaredSize rewrites the IHDR chunk of a PNG so its header claims
// width x height while the pixel data stays that of the small source.
func withDeclaredSize(t *testing.T, pngData []byte, width, height uint32) []byte {
	t.Helper()
	out := append([]byte(nil), pngData...)
	// signature(8) length(4) "IHDR"(4) width(4) height(4) ... crc at 29
	if string(out[12:16]) != "IHDR" {
		t.Fatalf("unexpected PNG layout")
	}
	binary.BigEndian.PutUint32(out[16:20], width)
	binary.BigEndian.PutUint32(out[20:24], height)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestDecodeFrame_RejectsOversizedHeader(t *testing.T) {
	limits := validation.FrameLimits{MaxWidth: 4096, MaxHeight: 4096}
	data := withDeclaredSize(t, encodePNG(t, 8, 8), 12000, 12000)

	img, err := decodeFrame(bytes.NewReader(data), "https://frames.test/huge.png", limits)
	if img != nil {
		t.Errorf("Expected no frame, got %v", img.Bounds())
	}
	// The pixel data does not match the header, so a processing error would
	// mean the full decode ran before the size check.
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}
}

func TestDecodeFrame_Limits(t *testing.T) {
	data := encodePNG(t, 40, 30)

	tests := []struct {
		name    string
		limits  validation.FrameLimits
		wantErr bool
	}{
		{"within limits", validation.FrameLimits{MaxWidth: 40, MaxHeight: 30}, false},
		{"too wide", validation.FrameLimits{MaxWidth: 39, MaxHeight: 30}, true},
		{"too tall", validation.FrameLimits{MaxWidth: 40, MaxHeight: 29}, true},
		{"no limits", validation.FrameLimits{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := decodeFrame(bytes.NewReader(data), "https://frames.test/a.png", tt.limits)
			if tt.wantErr {
				if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
					t.Errorf("Expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeFrame() error = %v", err)
			}
			if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
				t.Errorf("Expected a 40x30 frame, got %v", b)
			}
		})
	}
}
