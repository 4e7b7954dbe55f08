package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/mkv/lib/codec"
	"github.com/ValentinKolb/mkv/lib/common"
	"github.com/ValentinKolb/mkv/lib/pool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupPoolFlags adds the client and pool flags to a command
func SetupPoolFlags(cmd *cobra.Command) {
	key := "address"
	cmd.PersistentFlags().String(key, "redis://localhost:6379", WrapString("The address reported to the pool. It is never contacted, all data lives in the process"))

	key = "db"
	cmd.PersistentFlags().Int(key, 0, WrapString("The database index passed to the client"))

	key = "password"
	cmd.PersistentFlags().String(key, "", WrapString("The password passed to the client"))

	key = "ssl"
	cmd.PersistentFlags().Bool(key, false, WrapString("Whether the client should pretend to use ssl"))

	key = "encoding"
	cmd.PersistentFlags().String(key, "utf-8", WrapString("The encoding replies are decoded with (e.g. utf-8, latin1, utf-16le). Use 'raw' to print bytes without decoding"))

	key = "min-size"
	cmd.PersistentFlags().Int(key, 1, WrapString("The requested minimum pool size (the pool always holds one client)"))

	key = "max-size"
	cmd.PersistentFlags().Int(key, 10, WrapString("The requested maximum pool size (the pool always holds one client)"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("mkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// InitLogging configures all loggers with the level from the "log-level" setting
func InitLogging() error {
	return common.InitLoggers(viper.GetString("log-level"))
}

// GetEncoding reads the reply encoding from viper
func GetEncoding() (codec.Encoding, error) {
	name := viper.GetString("encoding")
	if strings.EqualFold(name, "raw") {
		return codec.Raw, nil
	}
	enc, err := codec.Named(name)
	if err != nil {
		return codec.Raw, fmt.Errorf("invalid encoding %s: %w", name, err)
	}
	return enc, nil
}

// GetPoolOptions reads the pool configuration from viper
func GetPoolOptions() (pool.Options, error) {
	enc, err := GetEncoding()
	if err != nil {
		return pool.Options{}, err
	}

	opts := pool.Options{
		DB:       viper.GetInt("db"),
		Password: viper.GetString("password"),
		SSL:      viper.GetBool("ssl"),
		Encoding: enc,
		MinSize:  viper.GetInt("min-size"),
		MaxSize:  viper.GetInt("max-size"),
	}
	if opts.MinSize < 0 || opts.MaxSize < opts.MinSize {
		return pool.Options{}, fmt.Errorf("invalid pool size: min-size=%d, max-size=%d", opts.MinSize, opts.MaxSize)
	}
	return opts, nil
}

// GetAddress reads the pool address from viper
func GetAddress() string {
	return viper.GetString("address")
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
