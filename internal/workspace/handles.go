package workspace

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/manifest-network/mediaproof/internal/models"
	"github.com/manifest-network/mediaproof/internal/programs"
)

// DeepfakeStorage is the client handle of deepfake-storage.
type DeepfakeStorage struct {
	*Handle
}

// StoreImage records or updates the deepfake value of imageHash.
func (d *DeepfakeStorage) StoreImage(ctx context.Context, account solana.PublicKey, imageHash string, deepfakeValue uint8) (solana.Signature, error) {
	args := programs.StoreImageArgs{ImageHash: imageHash, DeepfakeValue: deepfakeValue}
	return d.Send(ctx, "store_image", args, []solana.PublicKey{account, d.w.provider.PublicKey()})
}

// DeepfakeValue reads the stored value of imageHash through a view.
func (d *DeepfakeStorage) DeepfakeValue(ctx context.Context, account solana.PublicKey, imageHash string) (uint8, error) {
	var v uint8
	err := d.View(ctx, "get_deepfake_value", programs.ImageHashArgs{ImageHash: imageHash}, &v, account)
	return v, err
}

// ImageTimestamp reads when imageHash was last stored, in unix seconds.
func (d *DeepfakeStorage) ImageTimestamp(ctx context.Context, account solana.PublicKey, imageHash string) (uint64, error) {
	var ts uint64
	err := d.View(ctx, "get_image_timestamp", programs.ImageHashArgs{ImageHash: imageHash}, &ts, account)
	return ts, err
}

// OriginalityStorage is the client handle of originality-storage.
type OriginalityStorage struct {
	*Handle
}

// StoreOriginality records or updates whether imageHash is original.
func (o *OriginalityStorage) StoreOriginality(ctx context.Context, account solana.PublicKey, imageHash string, originality bool) (solana.Signature, error) {
	args := programs.StoreOriginalityArgs{ImageHash: imageHash, Originality: originality}
	return o.Send(ctx, "store_originality", args, []solana.PublicKey{account, o.w.provider.PublicKey()})
}

// Originality reads the stored flag of imageHash through a view.
func (o *OriginalityStorage) Originality(ctx context.Context, account solana.PublicKey, imageHash string) (bool, error) {
	var v bool
	err := o.View(ctx, "get_originality", programs.ImageHashArgs{ImageHash: imageHash}, &v, account)
	return v, err
}

// DecentralizedPost is the client handle of decentralized-post.
type DecentralizedPost struct {
	*Handle
}

// CreatePost appends a post authored by the wallet.
func (p *DecentralizedPost) CreatePost(ctx context.Context, account solana.PublicKey, args programs.CreatePostArgs) (solana.Signature, error) {
	return p.Send(ctx, "create_post", args, []solana.PublicKey{account, p.w.provider.PublicKey()})
}

// Post reads one post by id.
func (p *DecentralizedPost) Post(ctx context.Context, account solana.PublicKey, postID uint64) (*models.Post, error) {
	var post models.Post
	if err := p.View(ctx, "get_post", programs.GetPostArgs{PostID: postID}, &post, account); err != nil {
		return nil, err
	}
	return &post, nil
}

// PostsDescending reads up to limit posts, newest first.
func (p *DecentralizedPost) PostsDescending(ctx context.Context, account solana.PublicKey, limit uint8) ([]models.Post, error) {
	var posts []models.Post
	if err := p.View(ctx, "get_posts_descending", programs.GetPostsDescendingArgs{Limit: limit}, &posts, account); err != nil {
		return nil, err
	}
	return posts, nil
}
