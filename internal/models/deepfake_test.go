package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepfakeAccountAddImageInfo(t *testing.T) {
	var acct DeepfakeAccount

	require.NoError(t, acct.AddImageInfo(ImageInfo{ImageHash: "h1", DeepfakeValue: 1, Timestamp: 10}))
	require.NoError(t, acct.AddImageInfo(ImageInfo{ImageHash: "h2", DeepfakeValue: 2, Timestamp: 11}))
	assert.Equal(t, uint32(2), acct.ImageCount)

	// Same hash replaces in place and keeps the count.
	require.NoError(t, acct.AddImageInfo(ImageInfo{ImageHash: "h1", DeepfakeValue: 3, Timestamp: 12}))
	assert.Equal(t, uint32(2), acct.ImageCount)
	assert.Len(t, acct.ImageInfos, 2)
	assert.Equal(t, "h1", acct.ImageInfos[0].ImageHash)

	value, err := acct.DeepfakeValue("h1")
	require.NoError(t, err)
	assert.Equal(t, uint8(3), value)

	ts, err := acct.ImageTimestamp("h1")
	require.NoError(t, err)
	assert.Equal(t, uint64(12), ts)
}

func TestDeepfakeAccountLookupMissing(t *testing.T) {
	acct := DeepfakeAccount{ImageInfos: []ImageInfo{{ImageHash: "h1", DeepfakeValue: 1}}, ImageCount: 1}

	_, err := acct.DeepfakeValue("missing")
	assert.ErrorIs(t, err, ErrImageNotFound)

	_, err = acct.ImageTimestamp("missing")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestDeepfakeAccountCapacity(t *testing.T) {
	var acct DeepfakeAccount
	for i := 0; i < MaxImages; i++ {
		require.NoError(t, acct.AddImageInfo(ImageInfo{ImageHash: fmt.Sprintf("h%d", i), DeepfakeValue: 1}))
	}
	assert.Equal(t, uint32(MaxImages), acct.ImageCount)

	err := acct.AddImageInfo(ImageInfo{ImageHash: "overflow", DeepfakeValue: 1})
	assert.ErrorIs(t, err, ErrTooManyImages)

	// A full account rejects updates to existing hashes as well.
	err = acct.AddImageInfo(ImageInfo{ImageHash: "h0", DeepfakeValue: 2})
	assert.ErrorIs(t, err, ErrTooManyImages)
	value, err := acct.DeepfakeValue("h0")
	require.NoError(t, err)
	assert.Equal(t, uint8(1), value)
}

func TestValidDeepfakeValue(t *testing.T) {
	cases := []struct {
		value uint8
		want  bool
	}{
		{0, false},
		{1, true},
		{2, true},
		{3, true},
		{4, false},
		{255, false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("value %d", tc.value), func(t *testing.T) {
			assert.Equal(t, tc.want, ValidDeepfakeValue(tc.value))
		})
	}
}
