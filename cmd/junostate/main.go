// Command junostate is the thin entrypoint wiring Config into a Node: it
// does not itself speak any network protocol (header ingestion and peer
// transport are supplied by an embedder through sync.HeaderProvider and
// sync.StateUpdateSource), so the commands here are limited to opening the
// store and reporting on it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stateforge/junostate/node"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "junostate",
		Short: "junostate maintains the StarkNet state-commitment tries",
	}

	flags := root.PersistentFlags()
	flags.String("db-path", "", "badger database directory")
	flags.String("log-level", "", "debug|info|warn|error")
	flags.Int64("max-workers", 0, "max concurrent per-contract trie workers")
	flags.Bool("verify-hashes", false, "recorded in Config.VerifyHashes; the pipeline does not read it")
	flags.StringVar(&cfgFile, "config", "", "path to a config file")

	for _, name := range []string{"db-path", "log-level", "max-workers", "verify-hashes"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(newStatusCmd(v, &cfgFile))
	return root
}

func newStatusCmd(v *viper.Viper, cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "report the highest block with a fully applied state update",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := node.Load(v, *cfgFile)
			if err != nil {
				return err
			}

			n, err := node.New(cfg)
			if err != nil {
				return err
			}
			defer n.Close()

			highest, found, err := n.Pipeline.HighestApplied()
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), "no blocks applied yet")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "highest applied block: %d\n", highest)
			return nil
		},
	}
}
