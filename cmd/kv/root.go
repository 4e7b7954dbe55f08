package kv

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/mkv/cmd/util"
	"github.com/ValentinKolb/mkv/lib/client"
	"github.com/ValentinKolb/mkv/lib/pool"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
)

var (
	cliLogger = logger.GetLogger("cli")

	kvPool *pool.Pool

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:   "kv",
		Short: "Run commands against an in-process key-value store",
		Long: `Run commands against an in-process key-value store. The store only lives as long as the command, all commands of one invocation share it.

Besides the commands listed by 'mkv kv commands', scripts may use MULTI, EXEC, DISCARD and WATCH to run pipelines and LOCK key [timeout] / UNLOCK key owner to take and release locks.`,
		PersistentPreRunE:  setupKVPool,
		PersistentPostRunE: closeKVPool,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add pool flags to the KV command
	util.SetupPoolFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(execCmd)
	KeyValueCommands.AddCommand(evalCmd)
	KeyValueCommands.AddCommand(commandsCmd)
}

// setupKVPool creates the pool all subcommands run against
func setupKVPool(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := util.InitLogging(); err != nil {
		return err
	}

	opts, err := util.GetPoolOptions()
	if err != nil {
		return err
	}
	cliLogger.Debugf("pool configuration:%s", opts)

	kvPool, err = pool.Create(cmd.Context(), util.GetAddress(), opts)
	if err != nil {
		return fmt.Errorf("failed to create pool: %w", err)
	}
	return nil
}

// closeKVPool closes the pool and waits until it is drained
func closeKVPool(cmd *cobra.Command, _ []string) error {
	if kvPool == nil {
		return nil
	}
	kvPool.Close()
	return kvPool.WaitClosed(context.Background())
}

// withSession runs fn with a session on the pooled client
func withSession(cmd *cobra.Command, fn func(s *session) error) error {
	return kvPool.Use(cmd.Context(), func(conn client.IRedis) error {
		return fn(newSession(conn, cmd.OutOrStdout()))
	})
}
