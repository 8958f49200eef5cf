package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"budgettracker/internal/cli"
	"budgettracker/internal/ctl"
	applog "budgettracker/internal/log"
	"budgettracker/internal/output"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.LoadEnvFile()
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := cli.SetupLogger(os.Stderr, level)
	printer := output.NewPrinter(output.ResolveColors(output.ColorAuto))

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		printer.FormatError(&output.CLIError{Summary: "invalid configuration", Detail: err.Error(), ExitCode: output.ExitConfigError})
		return output.ExitConfigError
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := cli.OpenRuntime(ctx, cfg, logger)
	if err != nil {
		printer.FormatError(&output.CLIError{Summary: "could not open the session store", Detail: err.Error(), ExitCode: output.ExitConfigError})
		return output.ExitConfigError
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("Failed to close backends", applog.FieldError, err.Error())
		}
	}()

	// Session events raised by login or logout are flushed before exit.
	eventsDone := make(chan struct{})
	eventsCtx, stopEvents := context.WithCancel(ctx)
	if rt.Backend.Events != nil {
		go func() {
			defer close(eventsDone)
			rt.Backend.Events.Run(eventsCtx)
		}()
	} else {
		close(eventsDone)
	}

	root := ctl.NewRootCommand(&ctl.App{
		Sessions: rt.Sessions,
		API:      rt.API,
		Guard:    rt.Guard,
		Shell:    rt.Shell,
		Printer:  printer,
		Logger:   logger,
		BaseURL:  rt.API.BaseURL(),
	})
	err = root.ExecuteContext(ctx)

	stopEvents()
	<-eventsDone

	if err != nil {
		printer.FormatError(err)
	}
	return output.ExitCodeFor(err)
}
