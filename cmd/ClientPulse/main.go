package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	https_server "ClientPulse/api/http"
	"ClientPulse/internal/config"
	"ClientPulse/internal/modules/workflow/application/dto/respond"
	"ClientPulse/pkg/zlog"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "clientpulse",
	Short: "ClientPulse CRM workflow engine",
	Long: `ClientPulse runs the CRM automation workflows:
- overdue task reminders, escalated to the business unit owner after the threshold
- won opportunity propagation into the client's services with stakeholder notifications`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.SetPath(configPath)
		return setupLogger(config.GetConfig())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API, workflow scheduler and email outbox relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(config.GetConfig())
	},
}

var runOnceCmd = &cobra.Command{
	Use:   "run-once",
	Short: "Run the workflows once and print a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf := config.GetConfig()
		app, err := newApplication(conf)
		if err != nil {
			return err
		}
		defer app.close()

		res, err := app.scheduler.TriggerNow(cmd.Context())
		if res != nil {
			printRunResult(res)
		}
		return err
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default configs/config_local.toml)")
	rootCmd.AddCommand(serveCmd, runOnceCmd)
	defer zlog.Sync()
	if err := rootCmd.Execute(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func serve(conf *config.Config) error {
	app, err := newApplication(conf)
	if err != nil {
		return err
	}
	defer app.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app.startRelay(ctx)

	ge := https_server.NewEngine(conf, https_server.Deps{
		Signer:  app.signer,
		Hub:     app.hub,
		Inbox:   app.inbox,
		Trigger: app.scheduler,
	})
	srv := &http.Server{Addr: app.addr(), Handler: ge}
	go func() {
		zlog.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server start failed", zap.Error(err))
		}
	}()

	if err := app.scheduler.Start(); err != nil {
		return err
	}
	zlog.Info("next scheduled workflow run", zap.Time("at", app.scheduler.NextRun()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("http shutdown failed", zap.Error(err))
	}
	select {
	case <-app.scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		zlog.Warn("workflow run still in flight at shutdown")
	}
	cancel()
	zlog.Info("server stopped")
	return nil
}

func printRunResult(res *respond.RunResult) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Processor", "Scanned", "Notifications", "Emails", "Escalations", "Propagated", "Skipped", "Errors"})
	for _, p := range []*respond.ProcessResult{res.Overdue, res.Won} {
		if p == nil {
			continue
		}
		tw.AppendRow(table.Row{p.Processor, p.Scanned, p.NotificationsCreated, p.EmailsQueued, p.Escalations, p.Propagated, p.Skipped, len(p.Errors)})
	}
	tw.Render()

	if res.ErrorCount() == 0 {
		color.Green("workflows finished in %s", res.Duration().Round(time.Millisecond))
		return
	}
	et := table.NewWriter()
	et.SetOutputMirror(os.Stdout)
	et.AppendHeader(table.Row{"Entity", "ID", "Step", "Error"})
	for _, p := range []*respond.ProcessResult{res.Overdue, res.Won} {
		if p == nil {
			continue
		}
		for _, e := range p.Errors {
			et.AppendRow(table.Row{e.Entity, e.EntityId, e.Step, e.Message})
		}
	}
	et.Render()
	for _, f := range res.Failures {
		color.Red("failed: %s", f)
	}
	color.Yellow("workflows finished with %d error(s)", res.ErrorCount())
}
