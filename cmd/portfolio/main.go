package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/MatheusFonseca849/github-portfolio-integration/portfolio"
	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := newRootCommand().ExecuteContext(ctx)
	handleError(err)
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	s := defaultSettings()
	cmd := &cobra.Command{
		Use:           "portfolio",
		Short:         "Scan GitHub accounts for published portfolio repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	s.bindPersistent(cmd.PersistentFlags())

	reposCmd := newReposCommand(s)
	serveCmd := newServeCommand(s)
	cmd.AddCommand(reposCmd, serveCmd)
	cmd.Example = `  # List the published repositories of an account
  portfolio repos octocat

  # Serve the scan over HTTP with a redis cache
  PORTFOLIO_TOKEN=... portfolio serve --cache redis --redis-addr localhost:6379`

	bindViper(cmd, reposCmd, serveCmd)
	return cmd
}

// bindViper liga flags, variáveis PORTFOLIO_* e arquivo de configuração.
// Flag explícita > env > arquivo > default.
func bindViper(commands ...*cobra.Command) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix("PORTFOLIO")
	v.AutomaticEnv()
	configFile := os.Getenv("PORTFOLIO_CONFIG")
	configureConfigFile(v, configFile)

	cobra.OnInitialize(func() {
		for _, cmd := range commands {
			cobra.CheckErr(v.BindPFlags(cmd.Flags()))
			cobra.CheckErr(v.BindPFlags(cmd.PersistentFlags()))
		}
		cobra.CheckErr(readConfigFile(v, configFile != ""))
		for _, cmd := range commands {
			for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()} {
				fs.VisitAll(func(f *pflag.Flag) {
					if f.Changed || !v.IsSet(f.Name) {
						return
					}
					if val := fmt.Sprintf("%v", v.Get(f.Name)); val != "" {
						_ = f.Value.Set(val)
					}
				})
			}
		}
	})
}

func configureConfigFile(v *viper.Viper, explicitPath string) {
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		return
	}
	v.SetConfigName("config")
	for _, dir := range configSearchDirs() {
		v.AddConfigPath(dir)
	}
}

func readConfigFile(v *viper.Viper, strict bool) error {
	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if errors.As(err, &cfgErr) && !strict {
			return nil
		}
		return err
	}
	return nil
}

func configSearchDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "portfolio"))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dirs = append(dirs, filepath.Join(home, ".config", "portfolio"), filepath.Join(home, ".portfolio"))
	}
	return append(dirs, ".")
}

func handleError(err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	message := err.Error()
	switch {
	case errors.Is(err, portfolio.ErrInvalidUsername), errors.Is(err, portfolio.ErrUsernameRequired):
		message = fmt.Sprintf("%s\nHint: GitHub usernames have 1-39 alphanumeric characters or single hyphens.", err)
	case domain.IsRateLimited(err):
		message = fmt.Sprintf("%s\nHint: anonymous calls share a small quota; pass --token or PORTFOLIO_TOKEN.", err)
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
}
