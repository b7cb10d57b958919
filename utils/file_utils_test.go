package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateImageType(t *testing.T) {
	assert.NoError(t, ValidateImageType("photo.jpg"))
	assert.NoError(t, ValidateImageType("photo.JPEG"))
	assert.NoError(t, ValidateImageType("scan.png"))
	assert.Error(t, ValidateImageType("clip.mp4"))
	assert.Error(t, ValidateImageType("payload.exe"))
	assert.Error(t, ValidateImageType("noextension"))
}

func TestSaveBase64ImageRejectsUnsupportedExtension(t *testing.T) {
	_, err := SaveBase64Image("aGVsbG8=", "payload.exe", "repairs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported image format")
}

func TestSaveBase64ImageRejectsBadBase64(t *testing.T) {
	_, err := SaveBase64Image("not base64 at all!!!", "photo.jpg", "repairs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid base64")
}

func TestCleanFilenameStripsPathComponents(t *testing.T) {
	assert.Equal(t, "passwd", cleanFilename("../../etc/passwd"))
	assert.Equal(t, "slip.jpg", cleanFilename("slip .jpg"))
}
