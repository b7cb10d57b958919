package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendFCMPushRejectsEmptyToken(t *testing.T) {
	err := SendFCMPush(context.Background(), "", "title", "body", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty FCM token")
}

func TestSendFCMPushWithoutFirebase(t *testing.T) {
	err := SendFCMPush(context.Background(), "device-token", "title", "body", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}
