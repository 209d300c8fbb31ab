package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tropical8818/iProTalk/client"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
)

// Config holds the defaults read from the environment. Flags override them.
type Config struct {
	RelayURL string `envconfig:"RELAY_URL" default:"http://localhost:3000"`
	Token    string `envconfig:"RELAY_TOKEN"`
	// RELAYCTL_COLOURS toggles coloured output of tail
	Colours bool `envconfig:"RELAYCTL_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}

// app is what every sub command works with once flags are parsed.
type app struct {
	config Config
	relay  *client.HTTP
}

// Execute runs the CLI until done or interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	var relayURL, token string

	root := &cobra.Command{
		Use:           "relayctl",
		Short:         "Command line client for the iProTalk relay",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			if relayURL != "" {
				cfg.RelayURL = relayURL
			}
			if token != "" {
				cfg.Token = token
			}
			a.config = cfg
			a.relay = client.NewHTTP(cfg.RelayURL, cfg.Token)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (default $RELAY_URL)")
	root.PersistentFlags().StringVarP(&token, "token", "t", "", "bearer token (default $RELAY_TOKEN)")

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.sendCmd(),
		a.getCmd(),
		a.tailCmd(),
		a.keysCmd(),
	)
	return root
}
