package keyring

import (
	"testing"

	"github.com/illarion/lockpass/internal/secret"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringRoundTrip(t *testing.T) {
	keyring.MockInit()
	const id = "6f1c2a8e-vault"

	assert.False(t, HasPassword(id))
	_, err := GetPassword(id)
	assert.ErrorIs(t, err, ErrNotFound)

	pw := secret.FromString("hunter2")
	defer pw.Erase()
	require.NoError(t, SavePassword(id, pw))
	assert.True(t, HasPassword(id))

	got, err := GetPassword(id)
	require.NoError(t, err)
	defer got.Erase()
	assert.True(t, pw.Equal(got))

	require.NoError(t, DeletePassword(id))
	assert.False(t, HasPassword(id))
	assert.ErrorIs(t, DeletePassword(id), ErrNotFound)
}
