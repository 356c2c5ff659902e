package main

import (
	"errors"
	"fmt"

	"github.com/Nomadcxx/jellyscout/internal/notify"
	"github.com/Nomadcxx/jellyscout/internal/ui"
	"github.com/spf13/cobra"
)

func newTelegramCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telegram",
		Short: "Set up and test Telegram announcements",
	}

	cmd.AddCommand(newTelegramChatsCmd(opts))
	cmd.AddCommand(newTelegramTestCmd(opts))

	return cmd
}

// telegramFromConfig builds the notifier regardless of telegram.enabled,
// so the helpers work before announcements are switched on
func telegramFromConfig(opts *globalOptions) (*notify.TelegramNotifier, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if cfg.Telegram.BotToken == "" {
		return nil, errors.New("telegram.bot_token is not set")
	}
	cfg.Telegram.Enabled = true
	return newTelegramNotifier(cfg)
}

func newTelegramChatsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chats",
		Short: "List chats that recently messaged the bot",
		Long: `List the chats found in the bot's pending updates, with their IDs.
Send any message to the bot (or add it to a group or channel and post there)
first, then copy the ID into telegram.chat_id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			telegram, err := telegramFromConfig(opts)
			if err != nil {
				return err
			}

			chats, err := telegram.Updates(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(chats) == 0 {
				ui.InfoMsg(w, "No chats found, send the bot a message and try again")
				return nil
			}
			table := ui.NewTable("CHAT ID", "TYPE", "NAME")
			for _, chat := range chats {
				table.AddRow(fmt.Sprintf("%d", chat.ID), chat.Type, chat.Name())
			}
			table.RenderCompact(w)
			return nil
		},
	}
}

func newTelegramTestCmd(opts *globalOptions) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test message to the configured chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			telegram, err := telegramFromConfig(opts)
			if err != nil {
				return err
			}
			if !telegram.Enabled() {
				return errors.New("telegram.chat_id is not set, see 'jellyscout telegram chats'")
			}

			if err := telegram.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("bot check failed: %w", err)
			}
			id, err := telegram.SendMessage(cmd.Context(), message)
			if err != nil {
				return err
			}
			ui.SuccessMsg(cmd.OutOrStdout(), "Sent message %d", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "jellyscout test message", "text to send")

	return cmd
}
