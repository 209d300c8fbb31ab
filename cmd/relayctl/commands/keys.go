package commands

import (
	"fmt"
	"time"

	"github.com/Tropical8818/iProTalk/auth"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func (a *app) keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Publish or fetch public key bundles",
	}
	cmd.AddCommand(a.keysUploadCmd(), a.keysGetCmd())
	return cmd
}

func (a *app) keysUploadCmd() *cobra.Command {
	var req auth.KeyUploadRequest
	var signedPreKey string
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload or replace your own key bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if signedPreKey != "" {
				req.SignedPreKey = lo.ToPtr(signedPreKey)
			}
			if err := a.relay.UploadKeys(cmd.Context(), req); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "keys uploaded")
			return nil
		},
	}
	cmd.Flags().StringVar(&req.PublicKey, "public-key", "", "base64 public key")
	cmd.Flags().StringVar(&signedPreKey, "signed-pre-key", "", "base64 signed pre-key")
	_ = cmd.MarkFlagRequired("public-key")
	return cmd
}

func (a *app) keysGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [user-id]",
		Short: "Print the key bundle of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := a.relay.GetKeys(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			table := newTable(cmd.OutOrStdout(), "Field", "Value")
			table.AppendBulk([][]string{
				{"user_id", bundle.UserID},
				{"public_key", bundle.PublicKey},
				{"signed_pre_key", lo.FromPtrOr(bundle.SignedPreKey, "-")},
				{"updated_at", bundle.UpdatedAt.Format(time.RFC3339)},
			})
			table.Render()
			return nil
		},
	}
}
