package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClipboard swaps the system clipboard for a recorder
func fakeClipboard(t *testing.T, supported bool, failWith error) *[]string {
	t.Helper()
	var written []string
	origWrite, origUnsupported, origOS := writeAll, unsupported, goos
	t.Cleanup(func() { writeAll, unsupported, goos = origWrite, origUnsupported, origOS })

	goos = "linux"
	unsupported = func() bool { return !supported }
	writeAll = func(text string) error {
		if failWith != nil {
			return failWith
		}
		written = append(written, text)
		return nil
	}
	return &written
}

func TestCopyWritesText(t *testing.T) {
	written := fakeClipboard(t, true, nil)

	require.NoError(t, Copy("CONTRATO"))
	assert.Equal(t, []string{"CONTRATO"}, *written)
	assert.True(t, IsClipboardAvailable())
}

func TestCopyWithFallbackStatus(t *testing.T) {
	fakeClipboard(t, true, nil)

	status, err := CopyWithFallback("x")
	require.NoError(t, err)
	assert.Equal(t, "Copied to clipboard!", status)
}

func TestCopyWriteFailure(t *testing.T) {
	fakeClipboard(t, true, errors.New("exit status 1"))

	_, err := CopyWithFallback("x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to copy to clipboard")
	assert.Contains(t, err.Error(), "exit status 1")
}

func TestCopyWithoutUtility(t *testing.T) {
	written := fakeClipboard(t, false, nil)
	assert.False(t, IsClipboardAvailable())

	_, err := CopyWithFallback("x")
	var clipErr *ClipboardError
	require.True(t, errors.As(err, &clipErr))
	assert.Equal(t, "linux", clipErr.OS)
	assert.Contains(t, clipErr.Error(), "xclip")
	assert.Empty(t, *written)
}

func TestGetInstallInstructions(t *testing.T) {
	assert.NotEmpty(t, GetInstallInstructions())
	assert.Contains(t, installInstructions("linux"), "wl-clipboard")
	assert.Equal(t, "Clipboard not supported on plan9", installInstructions("plan9"))
}
