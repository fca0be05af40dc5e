package secret

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBox(t *testing.T) *Box {
	t.Helper()

	identity, _, err := Generate()
	require.NoError(t, err)

	box, err := New(identity)
	require.NoError(t, err)

	return box
}

func TestSealOpen(t *testing.T) {
	box := newBox(t)

	sealed, err := box.Seal("hunter2")
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.NotContains(t, sealed, "hunter2")

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plain)
}

func TestSealPassesThroughSealedValues(t *testing.T) {
	box := newBox(t)

	sealed, err := box.Seal("hunter2")
	require.NoError(t, err)

	again, err := box.Seal(sealed)
	require.NoError(t, err)
	assert.Equal(t, sealed, again)
}

func TestOpenPlaintext(t *testing.T) {
	box := newBox(t)

	plain, err := box.Open("not-sealed")
	require.NoError(t, err)
	assert.Equal(t, "not-sealed", plain)
}

func TestOpenWithWrongKey(t *testing.T) {
	sealed, err := newBox(t).Seal("hunter2")
	require.NoError(t, err)

	_, err = newBox(t).Open(sealed)
	require.ErrorIs(t, err, ErrCorrupt)

	_, err = newBox(t).Open(Prefix + "!!not base64!!")
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestLoad(t *testing.T) {
	identity, recipient, err := Generate()
	require.NoError(t, err)

	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key.txt")
	content := "# created: now\n# public key: " + recipient + "\n" + identity + "\n"
	require.NoError(t, os.WriteFile(keyFile, []byte(content), 0o600))

	testCases := []struct {
		name        string
		key         string
		keyFile     string
		expectedErr error
	}{
		{name: "inline key", key: identity},
		{name: "key file", keyFile: keyFile},
		{name: "nothing configured", expectedErr: ErrNoKey},
		{name: "garbage key", key: "AGE-SECRET-KEY-1NOPE", expectedErr: ErrInvalidKey},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			box, err := Load(tc.key, tc.keyFile)
			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, recipient, box.Recipient())
		})
	}
}

func TestEphemeral(t *testing.T) {
	box, err := Ephemeral()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(box.Recipient(), "age1"))
}
