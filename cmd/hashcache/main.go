package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/hashcache/hashcache"
	"github.com/hashcache/hashcache/logger"
)

var (
	dirFlag     string
	refreshFlag bool
	noCacheFlag bool
	nonceFlag   string
	richFlag    bool
)

func callOptions() []hashcache.CallOption {
	var opts []hashcache.CallOption
	if noCacheFlag {
		opts = append(opts, hashcache.NoCache())
	}
	if refreshFlag {
		opts = append(opts, hashcache.Refresh())
	}
	if nonceFlag != "" {
		opts = append(opts, hashcache.Nonce(nonceFlag))
	}
	if richFlag {
		opts = append(opts, hashcache.RichKey())
	}
	return opts
}

func newCache() (*hashcache.Cache, error) {
	return hashcache.New(
		hashcache.WithDirectory(dirFlag),
		hashcache.WithRichSerializer(hashcache.CBOR()),
		hashcache.WithLogger(logger.NewConsole(logger.GetLevelFromEnv())),
	)
}

func toCall(name string, args []string) hashcache.Call {
	anyArgs := make([]any, len(args))
	for i, a := range args {
		anyArgs[i] = a
	}
	return hashcache.Call{Name: name, Args: anyArgs}
}

var rootCmd = &cobra.Command{
	Use:   "hashcache",
	Short: "Persistent memoization for shell commands",
}

var runCmd = &cobra.Command{
	Use:   "run -- <command> [args...]",
	Short: "Run a command, caching its stdout by command line",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCache()
		if err != nil {
			return err
		}
		out, err := hashcache.Do(cmd.Context(), c, toCall("run", args),
			func(ctx context.Context) (string, error) {
				out, err := exec.CommandContext(ctx, args[0], args[1:]...).Output()
				return string(out), err
			}, callOptions()...)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var keyCmd = &cobra.Command{
	Use:   "key <name> [args...]",
	Short: "Print the cache key for a call signature",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newCache()
		if err != nil {
			return err
		}
		key, err := c.Key(toCall(args[0], args[1:]), callOptions()...)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", hashcache.DefaultDirectory(), "cache directory")
	rootCmd.PersistentFlags().BoolVar(&refreshFlag, "refresh", false, "recompute and overwrite the cached record")
	rootCmd.PersistentFlags().BoolVar(&noCacheFlag, "no-cache", false, "bypass the cache entirely")
	rootCmd.PersistentFlags().StringVar(&nonceFlag, "nonce", "", "disambiguating nonce for otherwise-identical calls")
	rootCmd.PersistentFlags().BoolVar(&richFlag, "rich", false, "derive the key with the rich (CBOR) serializer")
	rootCmd.AddCommand(runCmd, keyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
