package workspace

import (
	"context"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/manifest-network/mediaproof/internal/anchor"
	"github.com/manifest-network/mediaproof/internal/client"
	"github.com/manifest-network/mediaproof/internal/models"
	"github.com/manifest-network/mediaproof/internal/programs"
	"github.com/manifest-network/mediaproof/internal/provider"
	"github.com/manifest-network/mediaproof/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newWorkspace(t *testing.T) *Workspace {
	t.Helper()
	l, _ := testutil.NewLedger(t)
	c := testutil.StartGRPC(t, l)
	wallet, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return New(&provider.Provider{Wallet: wallet, URL: "bufnet"}, c, 0)
}

func TestInitializeEachProgram(t *testing.T) {
	w := newWorkspace(t)
	ctx := context.Background()

	for _, name := range []string{"deepfake-storage", "originality-storage"} {
		t.Run(name, func(t *testing.T) {
			h, err := w.Program(name)
			require.NoError(t, err)
			sig, account, err := h.Initialize(ctx)
			require.NoError(t, err)
			assert.False(t, sig.IsZero())

			tx, err := w.Transaction(ctx, sig)
			require.NoError(t, err)
			assert.Equal(t, "initialize", tx.Instruction)
			assert.Equal(t, h.ID().String(), tx.Program)
			assert.Contains(t, tx.Signers, account.String())
		})
	}
}

func TestDeepfakeStorageHandle(t *testing.T) {
	w := newWorkspace(t)
	ctx := context.Background()

	_, account, err := w.DeepfakeStorage.Initialize(ctx)
	require.NoError(t, err)
	_, err = w.DeepfakeStorage.StoreImage(ctx, account, "img", 3)
	require.NoError(t, err)

	v, err := w.DeepfakeStorage.DeepfakeValue(ctx, account, "img")
	require.NoError(t, err)
	assert.Equal(t, uint8(3), v)

	ts, err := w.DeepfakeStorage.ImageTimestamp(ctx, account, "img")
	require.NoError(t, err)
	assert.Equal(t, uint64(testutil.Now.Unix()), ts)

	_, err = w.DeepfakeStorage.StoreImage(ctx, account, "img", 0)
	var ae *anchor.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, uint32(6000), ae.Code)
	assert.Equal(t, "InvalidDeepfakeValue", ae.Name)

	_, err = w.DeepfakeStorage.DeepfakeValue(ctx, account, "missing")
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "ImageNotFound", ae.Name)
}

func TestOriginalityAndPostHandles(t *testing.T) {
	w := newWorkspace(t)
	ctx := context.Background()

	_, oacct, err := w.OriginalityStorage.Initialize(ctx)
	require.NoError(t, err)
	_, err = w.OriginalityStorage.StoreOriginality(ctx, oacct, "img", true)
	require.NoError(t, err)
	original, err := w.OriginalityStorage.Originality(ctx, oacct, "img")
	require.NoError(t, err)
	assert.True(t, original)

	_, pacct, err := w.DecentralizedPost.Initialize(ctx)
	require.NoError(t, err)
	for _, content := range []string{"first", "second"} {
		_, err = w.DecentralizedPost.CreatePost(ctx, pacct, programs.CreatePostArgs{
			IPFSHash: "Qm", ImageHash: "img", Content: content, WorldID: "w",
		})
		require.NoError(t, err)
	}
	post, err := w.DecentralizedPost.Post(ctx, pacct, 1)
	require.NoError(t, err)
	assert.Equal(t, "first", post.Content)
	assert.Equal(t, w.Provider().PublicKey().String(), post.UserAddress)

	posts, err := w.DecentralizedPost.PostsDescending(ctx, pacct, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].Content)

	_, err = w.DecentralizedPost.Post(ctx, pacct, 7)
	assert.Error(t, err)
}

func TestUnknownProgram(t *testing.T) {
	w := newWorkspace(t)
	_, err := w.Program("token-program")
	assert.ErrorIs(t, err, programs.ErrProgramNotFound)
}

func TestTransactionLookup(t *testing.T) {
	w := newWorkspace(t)
	ctx := context.Background()
	_, account, err := w.DeepfakeStorage.Initialize(ctx)
	require.NoError(t, err)

	first, err := w.DeepfakeStorage.StoreImage(ctx, account, "img", 1)
	require.NoError(t, err)
	tx, err := w.Transaction(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "store_image", tx.Instruction)
	_, err = w.Transaction(ctx, solana.Signature{})
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)
}

// signedStoreImage builds and signs a store_image transaction without sending it.
func signedStoreImage(t *testing.T, w *Workspace, account solana.PublicKey) *solana.Transaction {
	t.Helper()
	h := w.DeepfakeStorage.Handle
	tx, err := h.build(context.Background(), "store_image", programs.StoreImageArgs{ImageHash: "img", DeepfakeValue: 2}, []solana.PublicKey{account, w.provider.PublicKey()})
	require.NoError(t, err)
	_, err = tx.Sign(keyGetter([]solana.PrivateKey{w.provider.Wallet}))
	require.NoError(t, err)
	return tx
}

func TestResubmitConfirmsBySignature(t *testing.T) {
	w := newWorkspace(t)
	ctx := context.Background()
	_, account, err := w.DeepfakeStorage.Initialize(ctx)
	require.NoError(t, err)

	tx := signedStoreImage(t, w, account)
	first, err := w.DeepfakeStorage.submit(ctx, "store_image", tx)
	require.NoError(t, err)
	second, err := w.DeepfakeStorage.submit(ctx, "store_image", tx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, tx.Signatures[0], second)
}

// lookupDown fails every GetTransaction call and forwards the rest.
type lookupDown struct {
	grpc.ClientConnInterface
}

func (c lookupDown) Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
	if strings.HasSuffix(method, "/GetTransaction") {
		return status.Error(codes.Unavailable, "lookup unavailable")
	}
	return c.ClientConnInterface.Invoke(ctx, method, args, reply, opts...)
}

func TestResubmitFailsWhenUnconfirmed(t *testing.T) {
	w := newWorkspace(t)
	ctx := context.Background()
	_, account, err := w.DeepfakeStorage.Initialize(ctx)
	require.NoError(t, err)

	tx := signedStoreImage(t, w, account)
	_, err = w.DeepfakeStorage.submit(ctx, "store_image", tx)
	require.NoError(t, err)

	w.client = &client.GRPCClient{Conn: lookupDown{w.client.Conn}, Ctx: w.client.Ctx}
	_, err = w.DeepfakeStorage.submit(ctx, "store_image", tx)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrAlreadyProcessed)
	assert.Contains(t, err.Error(), "lookup unavailable")
}
