package amsctl

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"amsd/pkg/types"
)

// BuildRootCmd constructs the amsctl command tree.
func BuildRootCmd() *cobra.Command {
	defaultAddr := "http://127.0.0.1:8080"
	if v := os.Getenv("AMSD_ADDR"); v != "" {
		defaultAddr = v
	}

	var client *Client
	root := &cobra.Command{
		Use:           "amsctl",
		Short:         "Control and observe an amsd filament system daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addr := root.PersistentFlags().String("addr", defaultAddr, "amsd address (defaults AMSD_ADDR or http://127.0.0.1:8080)")
	logLevel := root.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		client = NewClient(*addr)
		lvl, err := zerolog.ParseLevel(*logLevel)
		if err != nil {
			lvl = zerolog.WarnLevel
		}
		client.log = zerolog.New(cmd.ErrOrStderr()).Level(lvl).With().Timestamp().Logger()
	}

	statusCmd := &cobra.Command{Use: "status", Short: "Show system status", RunE: func(cmd *cobra.Command, args []string) error {
		s, err := client.Status()
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), s)
		return nil
	}}

	gatesCmd := &cobra.Command{Use: "gates [index]", Short: "List gates, or show one gate", Args: cobra.MaximumNArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			idx, err := argInt(args[0], "index")
			if err != nil {
				return err
			}
			g, err := client.Gate(idx)
			if err != nil {
				return err
			}
			printGates(cmd.OutOrStdout(), []types.Gate{g})
			return nil
		}
		gates, err := client.Gates()
		if err != nil {
			return err
		}
		printGates(cmd.OutOrStdout(), gates)
		return nil
	}}

	loadCmd := &cobra.Command{Use: "load <gate>", Short: "Load filament from a gate", Example: "  amsctl load 2", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		gate, err := argInt(args[0], "gate")
		if err != nil {
			return err
		}
		op, err := client.Load(gate)
		return printOp(cmd.OutOrStdout(), op, err)
	}}

	unloadCmd := &cobra.Command{Use: "unload", Short: "Unload the current filament", RunE: func(cmd *cobra.Command, args []string) error {
		op, err := client.Unload()
		return printOp(cmd.OutOrStdout(), op, err)
	}}

	selectCmd := &cobra.Command{Use: "select <gate>", Short: "Point the selector at a gate without loading", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		gate, err := argInt(args[0], "gate")
		if err != nil {
			return err
		}
		op, err := client.Select(gate)
		return printOp(cmd.OutOrStdout(), op, err)
	}}

	toolCmd := &cobra.Command{Use: "tool <tool>", Short: "Change to a tool (unloads and loads as needed)", Example: "  amsctl tool 1", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		tool, err := argInt(args[0], "tool")
		if err != nil {
			return err
		}
		op, err := client.Tool(tool)
		return printOp(cmd.OutOrStdout(), op, err)
	}}

	mapCmd := &cobra.Command{Use: "map <tool> <gate>", Short: "Assign a gate to a tool (-1 unmaps, -2 bypass)", Example: "  amsctl map 0 3", Args: cobra.ExactArgs(2), RunE: func(cmd *cobra.Command, args []string) error {
		tool, err := argInt(args[0], "tool")
		if err != nil {
			return err
		}
		gate, err := argInt(args[1], "gate")
		if err != nil {
			return err
		}
		op, err := client.MapTool(tool, gate)
		return printOp(cmd.OutOrStdout(), op, err)
	}}

	bypassCmd := &cobra.Command{Use: "bypass on|off", Short: "Enable or disable the external bypass spool path", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "on":
			op, err := client.Bypass(true)
		return printOp(cmd.OutOrStdout(), op, err)
		case "off":
			op, err := client.Bypass(false)
		return printOp(cmd.OutOrStdout(), op, err)
		}
		return fmt.Errorf("bypass requires on or off")
	}}

	recoverCmd := &cobra.Command{Use: "recover", Short: "Clear an error state and return to idle", RunE: func(cmd *cobra.Command, args []string) error {
		op, err := client.Recover()
		return printOp(cmd.OutOrStdout(), op, err)
	}}

	cancelCmd := &cobra.Command{Use: "cancel", Short: "Abort the in-flight operation", RunE: func(cmd *cobra.Command, args []string) error {
		op, err := client.Cancel()
		return printOp(cmd.OutOrStdout(), op, err)
	}}

	resetCmd := &cobra.Command{Use: "reset", Short: "Re-home and reinitialize the system", RunE: func(cmd *cobra.Command, args []string) error {
		op, err := client.Reset()
		return printOp(cmd.OutOrStdout(), op, err)
	}}

	watchCmd := &cobra.Command{Use: "watch", Short: "Stream events until interrupted", RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return client.Watch(ctx, func(ev types.Event) error {
			if ev.Payload != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ev.Name, ev.Payload)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), ev.Name)
			}
			return nil
		})
	}}

	root.AddCommand(statusCmd, gatesCmd, loadCmd, unloadCmd, selectCmd,
		toolCmd, mapCmd, bypassCmd, recoverCmd, cancelCmd, resetCmd, watchCmd)

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(os.Stdout, true) }})
	root.AddCommand(completionCmd)

	return root
}

func argInt(s, name string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, s)
	}
	return v, nil
}
