package mediaproof

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/manifest-network/mediaproof/internal/models"
	"github.com/manifest-network/mediaproof/internal/programs"
	"github.com/spf13/cobra"
)

func parseAccount(s string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid account address %q: %w", s, err)
	}
	return key, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSignature(cmd *cobra.Command, sig solana.Signature) {
	fmt.Fprintln(cmd.OutOrStdout(), sig.String())
}

func deepfakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deepfake",
		Short: "Record and query deepfake values",
	}

	store := &cobra.Command{
		Use:   "store <account> <image-hash> <value>",
		Short: "Store or update the deepfake value (1, 2 or 3) of an image",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			value, err := strconv.ParseUint(args[2], 10, 8)
			if err != nil || !models.ValidDeepfakeValue(uint8(value)) {
				return fmt.Errorf("invalid deepfake value %q: must be 1, 2 or 3", args[2])
			}
			ws, closeFn, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			sig, err := ws.DeepfakeStorage.StoreImage(cmd.Context(), account, args[1], uint8(value))
			if err != nil {
				return err
			}
			printSignature(cmd, sig)
			return nil
		},
	}

	value := &cobra.Command{
		Use:   "value <account> <image-hash>",
		Short: "Print the deepfake value of an image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			ws, closeFn, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			v, err := ws.DeepfakeStorage.DeepfakeValue(cmd.Context(), account, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}

	timestamp := &cobra.Command{
		Use:   "timestamp <account> <image-hash>",
		Short: "Print when an image's value was last stored",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			ws, closeFn, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			ts, err := ws.DeepfakeStorage.ImageTimestamp(cmd.Context(), account, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ts)
			return nil
		},
	}

	for _, c := range []*cobra.Command{store, value, timestamp} {
		addProviderFlags(c)
		cmd.AddCommand(c)
	}
	return cmd
}

func originalityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "originality",
		Short: "Record and query image originality",
	}

	store := &cobra.Command{
		Use:   "store <account> <image-hash> <true|false>",
		Short: "Store or update whether an image is original",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			original, err := strconv.ParseBool(args[2])
			if err != nil {
				return fmt.Errorf("invalid originality %q: %w", args[2], err)
			}
			ws, closeFn, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			sig, err := ws.OriginalityStorage.StoreOriginality(cmd.Context(), account, args[1], original)
			if err != nil {
				return err
			}
			printSignature(cmd, sig)
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <account> <image-hash>",
		Short: "Print whether an image is original",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			ws, closeFn, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			original, err := ws.OriginalityStorage.Originality(cmd.Context(), account, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), original)
			return nil
		},
	}

	for _, c := range []*cobra.Command{store, get} {
		addProviderFlags(c)
		cmd.AddCommand(c)
	}
	return cmd
}

func postCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish and read posts",
	}

	var postArgs programs.CreatePostArgs
	create := &cobra.Command{
		Use:   "create <account>",
		Short: "Append a post to a feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			ws, closeFn, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			sig, err := ws.DecentralizedPost.CreatePost(cmd.Context(), account, postArgs)
			if err != nil {
				return err
			}
			printSignature(cmd, sig)
			return nil
		},
	}
	create.Flags().StringVar(&postArgs.IPFSHash, "ipfs-hash", "", "IPFS hash of the media")
	create.Flags().StringVar(&postArgs.ImageHash, "image-hash", "", "Hash of the image")
	create.Flags().StringVar(&postArgs.Content, "content", "", "Post text")
	create.Flags().StringVar(&postArgs.WorldID, "world-id", "", "World ID of the author")

	get := &cobra.Command{
		Use:   "get <account> <post-id>",
		Short: "Print one post",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			id, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid post id %q: %w", args[1], err)
			}
			ws, closeFn, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			post, err := ws.DecentralizedPost.Post(cmd.Context(), account, id)
			if err != nil {
				return err
			}
			return printJSON(cmd, post)
		},
	}

	var limit uint8
	list := &cobra.Command{
		Use:   "list <account>",
		Short: "Print the newest posts first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			ws, closeFn, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			posts, err := ws.DecentralizedPost.PostsDescending(cmd.Context(), account, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, posts)
		},
	}
	list.Flags().Uint8Var(&limit, "limit", 10, "Maximum number of posts")

	for _, c := range []*cobra.Command{create, get, list} {
		addProviderFlags(c)
		cmd.AddCommand(c)
	}
	return cmd
}
