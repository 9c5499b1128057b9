package models

// MaxImages bounds the number of distinct image hashes a registry account holds.
const MaxImages = 1000

// ImageInfoSize is the per-entry allowance used to size a DeepfakeAccount.
// It assumes image hashes of at most 32 bytes.
const ImageInfoSize = 32 + // image_hash
	1 + // deepfake_value
	8 // timestamp

// DeepfakeAccountMaxSize is the allocation for a DeepfakeAccount, discriminator included.
const DeepfakeAccountMaxSize = 8 + // discriminator
	4 + // image_count
	4 + // vec length
	MaxImages*ImageInfoSize

// ImageInfo is the deepfake classification recorded for one image hash.
type ImageInfo struct {
	ImageHash     string `json:"image_hash"`
	DeepfakeValue uint8  `json:"deepfake_value"`
	Timestamp     uint64 `json:"timestamp"`
}

// DeepfakeAccount is the state of a deepfake-storage registry account.
// Field order matches the Borsh layout of the on-chain account.
type DeepfakeAccount struct {
	ImageInfos []ImageInfo `json:"image_infos"`
	ImageCount uint32      `json:"image_count"`
}

// ValidDeepfakeValue reports whether v is one of the accepted classifications (1, 2 or 3).
func ValidDeepfakeValue(v uint8) bool {
	return v == 1 || v == 2 || v == 3
}

// AddImageInfo records info, replacing an existing entry with the same hash.
// The capacity check runs before the lookup, so a full account rejects updates too.
func (a *DeepfakeAccount) AddImageInfo(info ImageInfo) error {
	if a.ImageCount >= MaxImages {
		return ErrTooManyImages
	}
	for i := range a.ImageInfos {
		if a.ImageInfos[i].ImageHash == info.ImageHash {
			a.ImageInfos[i] = info
			return nil
		}
	}
	a.ImageInfos = append(a.ImageInfos, info)
	a.ImageCount++
	return nil
}

func (a *DeepfakeAccount) find(imageHash string) (ImageInfo, bool) {
	for _, info := range a.ImageInfos {
		if info.ImageHash == imageHash {
			return info, true
		}
	}
	return ImageInfo{}, false
}

// DeepfakeValue returns the classification stored for imageHash.
func (a *DeepfakeAccount) DeepfakeValue(imageHash string) (uint8, error) {
	info, ok := a.find(imageHash)
	if !ok {
		return 0, ErrImageNotFound
	}
	return info.DeepfakeValue, nil
}

// ImageTimestamp returns the unix timestamp at which imageHash was last stored.
func (a *DeepfakeAccount) ImageTimestamp(imageHash string) (uint64, error) {
	info, ok := a.find(imageHash)
	if !ok {
		return 0, ErrImageNotFound
	}
	return info.Timestamp, nil
}
