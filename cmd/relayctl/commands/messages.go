package commands

import (
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/Tropical8818/iProTalk/client"
	"github.com/Tropical8818/iProTalk/domain"
	"github.com/Tropical8818/iProTalk/errors"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func (a *app) sendCmd() *cobra.Command {
	var payload domain.Payload
	var group, recipient string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Submit an encrypted payload and print its message id",
		Long: "Submit an encrypted payload. The relay never decrypts anything: " +
			"--blob and --nonce must already be base64 encoded ciphertext and nonce.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if recipient != "" {
				payload.RecipientID = lo.ToPtr(recipient)
			}
			var id string
			var err error
			if group != "" {
				id, err = a.relay.SendToGroup(cmd.Context(), group, payload)
			} else {
				id, err = a.relay.Send(cmd.Context(), payload)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&payload.EncryptedBlob, "blob", "", "base64 ciphertext")
	cmd.Flags().StringVar(&payload.Nonce, "nonce", "", "base64 nonce")
	cmd.Flags().StringVar(&payload.SenderID, "sender", "", "sender id")
	cmd.Flags().StringVar(&group, "group", "", "group id")
	cmd.Flags().StringVar(&recipient, "recipient", "", "recipient id")
	_ = cmd.MarkFlagRequired("blob")
	_ = cmd.MarkFlagRequired("nonce")
	_ = cmd.MarkFlagRequired("sender")
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [message-id]",
		Short: "Print a stored message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.relay.GetMessage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			table := newTable(cmd.OutOrStdout(), "Field", "Value")
			table.AppendBulk([][]string{
				{"id", msg.ID},
				{"sender_id", msg.SenderID},
				{"group_id", lo.FromPtrOr(msg.GroupID, "-")},
				{"recipient_id", lo.FromPtrOr(msg.RecipientID, "-")},
				{"nonce", msg.Nonce},
				{"encrypted_blob", msg.EncryptedBlob},
			})
			table.Render()
			return nil
		},
	}
}

func (a *app) tailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tail",
		Short: "Follow the live stream of new messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.relay.Tail(cmd.Context(), func(item client.StreamItem) error {
				_, _ = fmt.Fprintln(out, a.formatItem(item))
				return nil
			})
		},
	}
}

func (a *app) formatItem(item client.StreamItem) string {
	if item.Lag != nil {
		line := fmt.Sprintf("!! %v, resync with get", item.Lag)
		if a.config.Colours && stderrors.Is(item.Lag, errors.ErrOverflow) {
			return color.Yellow.Sprint(line)
		}
		return line
	}
	evt := item.Event
	at := time.Unix(evt.Timestamp, 0).Format(time.TimeOnly)
	if !a.config.Colours {
		return fmt.Sprintf("%s %s %s", at, evt.Payload.SenderID, evt.MessageID)
	}
	return fmt.Sprintf("%s %s %s",
		color.Gray.Sprint(at),
		color.Green.Sprint(evt.Payload.SenderID),
		color.Cyan.Sprint(evt.MessageID))
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	return table
}
