package commands

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mott-dev/mott/internal/bot"
	"github.com/mott-dev/mott/internal/config"
)

// newReplCommand runs a local interactive session against the configured
// ledger, useful for trying commands without a chat platform attached.
func newReplCommand() *cobra.Command {
	var configPath, guild, channel, sender, roles string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive local session against the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			dispatcher, closePublisher, err := buildDispatcher(cmd.Context(), cfg, slog.Default())
			if err != nil {
				return err
			}
			defer closePublisher()

			roleIDs := strings.Split(roles, ",")
			cmd.Printf("mott repl: acting as %s in #%s with roles %v. Type 'bye' to exit.\n", sender, channel, roleIDs)

			in := bufio.NewReader(cmd.InOrStdin())
			seq := 0
			for {
				cmd.Print("mott> ")
				line, err := in.ReadString('\n')
				if err != nil {
					if err == io.EOF {
						return nil
					}
					return err
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "bye" {
					return nil
				}

				seq++
				resp, handled := dispatcher.HandleMessage(cmd.Context(), bot.Message{
					ID:        fmt.Sprintf("repl-%d", seq),
					GuildID:   guild,
					ChannelID: channel,
					Sender:    sender,
					RoleIDs:   roleIDs,
					Text:      cfg.CommandPrefix + line,
				})
				if !handled {
					resp = "(ignored)"
				}
				cmd.Println(resp)
			}
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "mott.yaml", "path to mott.yaml")
	cmd.Flags().StringVar(&guild, "guild", "local", "guild id for the session")
	cmd.Flags().StringVar(&channel, "channel", "general", "channel id for the session")
	cmd.Flags().StringVar(&sender, "sender", "operator", "sender identity")
	cmd.Flags().StringVar(&roles, "roles", "admin", "comma-separated caller roles")
	return cmd
}
