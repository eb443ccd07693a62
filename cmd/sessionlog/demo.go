package main

import (
	"errors"
	"fmt"

	"github.com/iuboy/sessionlog"
	"github.com/iuboy/sessionlog/config"
	"github.com/spf13/cobra"
)

type demoFlags struct {
	configPath string
	sessionDir string
	crashDir   string
	fault      string
	messages   int
}

func newDemoCmd() *cobra.Command {
	var f demoFlags
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a short session and optionally inject a fault",
		Long: `Run a short logging session and optionally inject a fault.

Fault kinds:
  none        log and exit normally
  manual      call CaptureCrash with an error
  background  return an error from a detached goroutine
  panic       panic in the foreground (the process terminates)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd, f)
		},
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "config file (yaml, json or toml)")
	cmd.Flags().StringVar(&f.sessionDir, "session-dir", "", "override the session logs directory")
	cmd.Flags().StringVar(&f.crashDir, "crash-dir", "", "override the crash logs directory")
	cmd.Flags().StringVar(&f.fault, "fault", "none", "fault to inject: none, manual, background, panic")
	cmd.Flags().IntVarP(&f.messages, "messages", "n", 3, "number of messages to log before the fault")
	return cmd
}

func runDemo(cmd *cobra.Command, f demoFlags) error {
	opts, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if f.sessionDir != "" {
		opts.SessionLogsDirectory = f.sessionDir
	}
	if f.crashDir != "" {
		opts.CrashLogsDirectory = f.crashDir
	}
	opts.DiagnosticOutput = cmd.ErrOrStderr()

	logger, err := sessionlog.New(opts)
	if err != nil {
		return err
	}
	defer logger.Close()
	defer logger.Recover()

	for i := 1; i <= f.messages; i++ {
		logger.Info(fmt.Sprintf("demo message %d", i))
	}

	switch f.fault {
	case "none":
		logger.Info("demo finished")
	case "manual":
		path := logger.CaptureCrash(errors.New("demo failure"), "manual crash capture")
		fmt.Fprintln(cmd.OutOrStdout(), path)
	case "background":
		<-logger.Go(func() error {
			return errors.New("demo background failure")
		})
	case "panic":
		panic("demo panic")
	default:
		return fmt.Errorf("unknown fault kind %q", f.fault)
	}
	return nil
}
