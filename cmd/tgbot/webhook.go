package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/0-o0/tgbot/internal/retryutil"
	"github.com/0-o0/tgbot/internal/telegram"
)

func newWebhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the bot's webhook registration",
	}
	cmd.AddCommand(newWebhookSetCmd())
	cmd.AddCommand(newWebhookDeleteCmd())
	return cmd
}

func newWebhookSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Register the webhook URL with Telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClientFromFlags(cmd)
			if err != nil {
				return err
			}
			url := strings.TrimSpace(flagOrViperString(cmd, "url", "webhook.url"))
			if url == "" {
				return fmt.Errorf("missing webhook.url (set via --url or TGBOT_WEBHOOK_URL)")
			}
			secret := flagOrViperString(cmd, "webhook-secret", "webhook.secret")
			err = retryutil.Do(cmd.Context(), slog.Default(), "set_webhook", 3, 2*time.Second, func(ctx context.Context) error {
				return api.SetWebhook(ctx, url, secret)
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "webhook set: %s\n", url)
			return nil
		},
	}
	cmd.Flags().String("url", "", "Public HTTPS URL Telegram should deliver updates to.")
	cmd.Flags().String("webhook-secret", "", "Secret token Telegram echoes back on each delivery.")
	return cmd
}

func newWebhookDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClientFromFlags(cmd)
			if err != nil {
				return err
			}
			if err := api.DeleteWebhook(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "webhook deleted")
			return nil
		},
	}
}

func apiClientFromFlags(cmd *cobra.Command) (*telegram.Client, error) {
	token := strings.TrimSpace(flagOrViperString(cmd, "bot-token", "telegram.bot_token"))
	if token == "" {
		return nil, fmt.Errorf("missing telegram.bot_token (set via --bot-token or TGBOT_TELEGRAM_BOT_TOKEN)")
	}
	baseURL := strings.TrimSpace(flagOrViperString(cmd, "api-base-url", "telegram.api_base_url"))
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return telegram.NewClient(httpClient, baseURL, token), nil
}
