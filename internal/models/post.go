package models

// MaxPosts bounds the number of posts a feed account holds.
const MaxPosts = 100

// PostSize is the per-post allowance used to size a PostAccount.
const PostSize = 8 + // post_id
	32 + // user_address
	32 + // ipfs_hash
	32 + // image_hash
	200 + // content
	8 + // timestamp
	32 // world_id

// PostAccountMaxSize is the allocation for a PostAccount, discriminator included.
const PostAccountMaxSize = 8 + // discriminator
	8 + // next_post_id
	4 + // vec length
	MaxPosts*PostSize

// Post is a single entry in a decentralized-post feed.
type Post struct {
	PostID      uint64 `json:"post_id"`
	UserAddress string `json:"user_address"`
	IPFSHash    string `json:"ipfs_hash"`
	ImageHash   string `json:"image_hash"`
	Content     string `json:"content"`
	Timestamp   uint64 `json:"timestamp"`
	WorldID     string `json:"world_id"`
}

// PostAccount is the state of a decentralized-post feed account.
type PostAccount struct {
	Posts      []Post `json:"posts"`
	NextPostID uint64 `json:"next_post_id"`
}

// AddPost appends post. Ids are assigned by the caller from NextPostID.
func (a *PostAccount) AddPost(post Post) error {
	if len(a.Posts) >= MaxPosts {
		return ErrTooManyPosts
	}
	a.Posts = append(a.Posts, post)
	return nil
}

// Post returns the post with the given id.
func (a *PostAccount) Post(postID uint64) (Post, error) {
	for _, p := range a.Posts {
		if p.PostID == postID {
			return p, nil
		}
	}
	return Post{}, ErrPostNotFound
}

// PostsDescending returns up to limit posts, newest first.
func (a *PostAccount) PostsDescending(limit uint8) []Post {
	n := int(limit)
	if n > len(a.Posts) {
		n = len(a.Posts)
	}
	out := make([]Post, 0, n)
	for i := len(a.Posts) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, a.Posts[i])
	}
	return out
}
