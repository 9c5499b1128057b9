package programs

import (
	"testing"

	"github.com/manifest-network/mediaproof/internal/anchor"
	"github.com/manifest-network/mediaproof/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOriginalityStorage(t *testing.T) {
	h := newHarness(t)
	p := NewOriginalityStorage()
	account := h.initialize(p)

	res, err := h.call(p, "store_originality", StoreOriginalityArgs{ImageHash: "img-1", Originality: true}, account, h.user)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	var ev models.OriginalityStored
	require.NoError(t, anchor.DecodeEvent(OriginalityStoredEvent, res.Events[0].Data, &ev))
	assert.True(t, ev.Originality)

	res, err = h.call(p, "get_originality", ImageHashArgs{ImageHash: "img-1"}, account)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, res.ReturnData)

	_, err = h.call(p, "get_originality", ImageHashArgs{ImageHash: "img-2"}, account)
	requireCode(t, err, 6000, "ImageNotFound")
}
