/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/scanbridge/internal/logging"
)

var (
	cfgFile string

	logger    = zerolog.Nop()
	logCloser io.Closer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scanbridge",
	Short: "Bridge a USB serial scanner to scan events",
	Long: `scanbridge finds an attached USB serial barcode or RFID reader, obtains
access to it, and turns its newline-terminated output into scan events.

Configuration is read from scanbridge.yaml in the current directory,
$HOME/.config/scanbridge or /etc/scanbridge, and from SCANBRIDGE_*
environment variables (SCANBRIDGE_BAUD, SCANBRIDGE_LOG_LEVEL, ...).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is scanbridge.yaml in ., $HOME/.config/scanbridge or /etc/scanbridge)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error, disabled")
	rootCmd.PersistentFlags().String("log-format", logging.FormatConsole, "Log format: console, json")
	rootCmd.PersistentFlags().String("log-output", logging.OutputStderr, "Log output: stderr, stdout or a file path")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scanbridge")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "scanbridge"))
		}
		viper.AddConfigPath("/etc/scanbridge")
	}

	viper.SetEnvPrefix("SCANBRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}
}

func setupLogging() error {
	cfg := logging.Config{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
		Output: viper.GetString("log.output"),
	}

	l, closer, err := logging.New(cfg)
	if err != nil {
		return err
	}
	logger, logCloser = l, closer

	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug().Str("file", used).Msg("loaded config")
	}
	return nil
}
