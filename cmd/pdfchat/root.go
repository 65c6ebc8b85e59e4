package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"pdfchat/internal/client"
	"pdfchat/internal/config"
	"pdfchat/internal/logging"
	"pdfchat/internal/tui"
)

// app is the state shared by all subcommands once configuration is loaded.
type app struct {
	cfg    *config.AppConfig
	log    *zap.Logger
	client *client.Client
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgPath string
	a := &app{}

	root := &cobra.Command{
		Use:           "pdfchat",
		Short:         "Chat with a PDF from the terminal",
		Long:          `Upload a PDF to a pdfchat server and ask questions about it.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(v, cfgPath)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := tui.Options{Markdown: a.cfg.UI.Markdown, MarkdownStyle: a.cfg.UI.MarkdownStyle}
			a.log.Info("starting tui", zap.String("server", a.cfg.Server.BaseURL))
			return tui.Run(cmd.Context(), a.client, opts, a.cfg.UI.AltScreen, a.log)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&cfgPath, "config", "c", "", "config file (default ./config.yaml or ~/.config/pdfchat/config.yaml)")
	flags.StringP("server", "s", "", "base URL of the pdfchat server")
	flags.StringP("log-level", "l", "", "log level")
	flags.String("log-file", "", "log file path")
	flags.Bool("no-markdown", false, "show assistant answers without markdown rendering")
	_ = v.BindPFlag("server.base_url", flags.Lookup("server"))
	_ = v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("logging.file", flags.Lookup("log-file"))
	_ = v.BindPFlag("ui.no_markdown", flags.Lookup("no-markdown"))

	v.SetEnvPrefix("PDFCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	root.AddCommand(
		newUploadCmd(a),
		newAskCmd(a),
		newHistoryCmd(a),
		newStatusCmd(a),
	)
	return root
}

func (a *app) setup(v *viper.Viper, cfgPath string) error {
	var (
		cfg *config.AppConfig
		err error
	)
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overlay(v, cfg)

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	a.client = client.New(client.Config{
		BaseURL: cfg.Server.BaseURL,
		Timeout: time.Duration(cfg.Server.TimeoutSecs) * time.Second,
		Logger:  log,
	})
	return nil
}

// overlay applies flags and PDFCHAT_* environment variables on top of the
// file configuration.
func overlay(v *viper.Viper, cfg *config.AppConfig) {
	if v.IsSet("server.base_url") && v.GetString("server.base_url") != "" {
		cfg.Server.BaseURL = v.GetString("server.base_url")
	}
	if v.IsSet("server.timeout_secs") {
		cfg.Server.TimeoutSecs = v.GetInt("server.timeout_secs")
	}
	if v.IsSet("logging.level") && v.GetString("logging.level") != "" {
		cfg.Logging.Level = v.GetString("logging.level")
	}
	if v.IsSet("logging.file") && v.GetString("logging.file") != "" {
		cfg.Logging.File = v.GetString("logging.file")
	}
	if v.GetBool("ui.no_markdown") {
		cfg.UI.Markdown = false
	}
}
