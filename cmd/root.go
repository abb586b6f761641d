/*
Package cmd implements the command-line interface of the analogy service.
*/
package cmd

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/analogy/pkg/logging"
)

/*
Embed a mini filesystem into the binary to hold the default config file.
This will be written to the home directory of the user running the service,
which allows a developer to easily override the config file.
*/
//go:embed cfg/*
var embedded embed.FS

var (
	projectName = "analogy"
	cfgFile     string

	rootCmd = &cobra.Command{
		Use:   "analogy",
		Short: "Generate cross-domain analogies with a chain of LLM agents",
		Long:  longRoot,
	}
)

/*
Execute is the main entry point for the CLI.
*/
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yml",
		"config file (default is $HOME/."+projectName+"/config.yml)",
	)
}

/*
initConfig writes the default config file to the user's home directory if it
doesn't exist, reads it back and configures logging. Environment variables
prefixed with ANALOGY_ override file values, e.g. ANALOGY_PROVIDER_MODEL.
*/
func initConfig() {
	var err error

	if err = writeConfig(); err != nil {
		log.Fatal("failed to write config", "error", err)
	}

	home, _ := os.UserHomeDir()

	viper.SetConfigName(strings.TrimSuffix(cfgFile, filepath.Ext(cfgFile)))
	viper.SetConfigType("yml")
	viper.AddConfigPath(filepath.Join(home, "."+projectName))

	viper.SetEnvPrefix(strings.ToUpper(projectName))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		log.Fatal("failed to read config", "error", err)
	}

	var cfg logging.Config

	if err = viper.UnmarshalKey("logging", &cfg); err != nil {
		log.Fatal("failed to read logging config", "error", err)
	}

	if err = logging.Init(cfg); err != nil {
		log.Fatal("failed to configure logging", "error", err)
	}
}

/*
writeConfig writes the default config file to the user's home directory.
*/
func writeConfig() (err error) {
	var (
		home, _ = os.UserHomeDir()
		fh      fs.File
		buf     bytes.Buffer
	)

	configDir := filepath.Join(home, "."+projectName)

	if !CheckFileExists(configDir) {
		if err = os.MkdirAll(configDir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	fullPath := filepath.Join(configDir, cfgFile)

	if CheckFileExists(fullPath) {
		return nil
	}

	if fh, err = embedded.Open("cfg/config.yml"); err != nil {
		return fmt.Errorf("failed to open embedded config file: %w", err)
	}
	defer fh.Close()

	if _, err = io.Copy(&buf, fh); err != nil {
		return fmt.Errorf("failed to read embedded config file: %w", err)
	}

	if err = os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Info("wrote config file", "path", fullPath)
	return nil
}

func CheckFileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !errors.Is(err, os.ErrNotExist)
}

var longRoot = `
analogy runs a concept through a fixed chain of LLM agents based on Structure
Mapping Theory: the target domain is analysed, a familiar base domain is
selected, and the two are mapped into an analogy. It serves the pipeline over
HTTP and keeps an append-only record of user feedback.
`
