package programs

import (
	"github.com/manifest-network/mediaproof/internal/anchor"
	"github.com/manifest-network/mediaproof/internal/models"
)

const (
	DecentralizedPostName = "decentralized-post"
	DecentralizedPostID   = "AfCDBjnYCyHh7Hb9YiKx8NVQXA7dFfaaY5yFFF8DabJb"

	PostAccountType  = "PostAccount"
	PostAccountSpace = 8 + models.PostAccountMaxSize

	PostCreatedEvent = "PostCreated"
)

// CreatePostArgs are the arguments of create_post.
type CreatePostArgs struct {
	IPFSHash  string
	ImageHash string
	Content   string
	WorldID   string
}

// GetPostArgs are the arguments of get_post.
type GetPostArgs struct {
	PostID uint64
}

// GetPostsDescendingArgs are the arguments of get_posts_descending.
type GetPostsDescendingArgs struct {
	Limit uint8
}

// NewDecentralizedPost declares decentralized-post: an append-only feed with
// sequential post ids.
func NewDecentralizedPost() *Program {
	p := newProgram(DecentralizedPostName, DecentralizedPostID,
		anchor.ErrorTable{
			{Name: "PostNotFound", Msg: "Post not found", Err: models.ErrPostNotFound},
			{Name: "TooManyPosts", Msg: "Too many posts", Err: models.ErrTooManyPosts},
		},
		AccountType{Name: PostAccountType, New: func() any { return &models.PostAccount{} }},
	)

	p.register(newInitialize("post_account", PostAccountType, PostAccountSpace, func() any {
		return &models.PostAccount{NextPostID: 1}
	}))
	p.register(&Instruction{
		Name: "create_post",
		Accounts: []AccountSpec{
			{Name: "post_account", Writable: true},
			{Name: "user", Signer: true},
		},
		Handler: createPost,
	})
	p.register(&Instruction{
		Name:     "get_post",
		View:     true,
		Accounts: []AccountSpec{{Name: "post_account"}},
		Handler:  getPost,
	})
	p.register(&Instruction{
		Name:     "get_posts_descending",
		View:     true,
		Accounts: []AccountSpec{{Name: "post_account"}},
		Handler:  getPostsDescending,
	})
	return p
}

func createPost(c *Context, data []byte) error {
	var args CreatePostArgs
	if err := anchor.DecodeArgs(data, &args); err != nil {
		return err
	}
	var state models.PostAccount
	acct, err := c.Load(0, PostAccountType, &state)
	if err != nil {
		return err
	}

	post := models.Post{
		PostID:      state.NextPostID,
		UserAddress: c.Key(1).String(),
		IPFSHash:    args.IPFSHash,
		ImageHash:   args.ImageHash,
		Content:     args.Content,
		Timestamp:   uint64(c.UnixTimestamp()),
		WorldID:     args.WorldID,
	}
	if err := state.AddPost(post); err != nil {
		return err
	}
	if err := c.Emit(PostCreatedEvent, models.PostCreated(post)); err != nil {
		return err
	}
	state.NextPostID++
	return c.Save(acct, PostAccountType, &state)
}

func getPost(c *Context, data []byte) error {
	var args GetPostArgs
	if err := anchor.DecodeArgs(data, &args); err != nil {
		return err
	}
	var state models.PostAccount
	if _, err := c.Load(0, PostAccountType, &state); err != nil {
		return err
	}
	post, err := state.Post(args.PostID)
	if err != nil {
		return err
	}
	return c.Return(post)
}

func getPostsDescending(c *Context, data []byte) error {
	var args GetPostsDescendingArgs
	if err := anchor.DecodeArgs(data, &args); err != nil {
		return err
	}
	var state models.PostAccount
	if _, err := c.Load(0, PostAccountType, &state); err != nil {
		return err
	}
	return c.Return(state.PostsDescending(args.Limit))
}
