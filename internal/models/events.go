package models

// ImageAdded is emitted by deepfake-storage store_image.
type ImageAdded struct {
	ImageHash     string `json:"image_hash"`
	DeepfakeValue uint8  `json:"deepfake_value"`
	Timestamp     uint64 `json:"timestamp"`
}

// OriginalityStored is emitted by originality-storage store_originality.
type OriginalityStored struct {
	ImageHash   string `json:"image_hash"`
	Originality bool   `json:"originality"`
}

// PostCreated is emitted by decentralized-post create_post.
type PostCreated struct {
	PostID      uint64 `json:"post_id"`
	UserAddress string `json:"user_address"`
	IPFSHash    string `json:"ipfs_hash"`
	ImageHash   string `json:"image_hash"`
	Content     string `json:"content"`
	Timestamp   uint64 `json:"timestamp"`
	WorldID     string `json:"world_id"`
}
