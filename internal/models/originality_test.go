package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOriginalityAccount(t *testing.T) {
	var acct OriginalityAccount

	require.NoError(t, acct.AddOriginalityInfo(OriginalityInfo{ImageHash: "h1", Originality: true}))
	require.NoError(t, acct.AddOriginalityInfo(OriginalityInfo{ImageHash: "h1", Originality: false}))
	assert.Equal(t, uint32(1), acct.ImageCount)

	original, err := acct.Originality("h1")
	require.NoError(t, err)
	assert.False(t, original)

	_, err = acct.Originality("h2")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestOriginalityAccountCapacity(t *testing.T) {
	var acct OriginalityAccount
	for i := 0; i < MaxImages; i++ {
		require.NoError(t, acct.AddOriginalityInfo(OriginalityInfo{ImageHash: fmt.Sprintf("h%d", i)}))
	}
	assert.ErrorIs(t, acct.AddOriginalityInfo(OriginalityInfo{ImageHash: "h0", Originality: true}), ErrTooManyImages)
}
