package models

// OriginalityInfoSize is the per-entry allowance used to size an OriginalityAccount.
const OriginalityInfoSize = 32 + // image_hash
	1 // originality

// OriginalityAccountMaxSize is the allocation for an OriginalityAccount, discriminator included.
const OriginalityAccountMaxSize = 8 + // discriminator
	4 + // image_count
	4 + // vec length
	MaxImages*OriginalityInfoSize

// OriginalityInfo records whether an image is an original.
type OriginalityInfo struct {
	ImageHash   string `json:"image_hash"`
	Originality bool   `json:"originality"`
}

// OriginalityAccount is the state of an originality-storage registry account.
type OriginalityAccount struct {
	OriginalityInfos []OriginalityInfo `json:"originality_infos"`
	ImageCount       uint32            `json:"image_count"`
}

// AddOriginalityInfo upserts info by image hash, with the same capacity rule as DeepfakeAccount.
func (a *OriginalityAccount) AddOriginalityInfo(info OriginalityInfo) error {
	if a.ImageCount >= MaxImages {
		return ErrTooManyImages
	}
	for i := range a.OriginalityInfos {
		if a.OriginalityInfos[i].ImageHash == info.ImageHash {
			a.OriginalityInfos[i] = info
			return nil
		}
	}
	a.OriginalityInfos = append(a.OriginalityInfos, info)
	a.ImageCount++
	return nil
}

// Originality returns the flag stored for imageHash.
func (a *OriginalityAccount) Originality(imageHash string) (bool, error) {
	for _, info := range a.OriginalityInfos {
		if info.ImageHash == imageHash {
			return info.Originality, nil
		}
	}
	return false, ErrImageNotFound
}
