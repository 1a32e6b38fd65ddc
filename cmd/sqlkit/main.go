package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/sqlkit/cmd/sqlkit/commands"
	"github.com/ruslano69/sqlkit/pkg/database"
	"github.com/ruslano69/sqlkit/pkg/database/drivers"
	"github.com/ruslano69/sqlkit/pkg/querylog"
	"github.com/ruslano69/sqlkit/pkg/transport"
)

const version = "1.0.0"

func main() {
	flags, err := ParseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if *flags.Version {
		fmt.Printf("sqlkit %s\n", version)
		return
	}
	if *flags.Help {
		PrintHelp(os.Stdout)
		return
	}
	if *flags.CreateConfig != "" {
		fmt.Print(configTemplateFor(*flags.CreateConfig))
		return
	}
	if !commandWasSpecified(flags) {
		PrintHelp(os.Stderr)
		os.Exit(1)
	}

	// -split without -exec needs no database
	if *flags.Split != "" && !*flags.Execute {
		setupLogging(LogConfig{})
		if err := runSplit(context.Background(), nil, *flags.Split); err != nil {
			log.Fatal().Err(err).Msg("split failed")
		}
		return
	}

	config, err := LoadConfig(*flags.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(config.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config, flags); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func setupLogging(cfg LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func run(ctx context.Context, config *Config, flags *Flags) error {
	factory := drivers.NewFactory()
	defer factory.Close()

	d, err := factory.GetDriver(ctx, config.Database)
	if err != nil {
		return err
	}
	d.SetLogger(log.Logger)

	if config.QueryLog != nil {
		ql := querylog.NewRedisMonitor(*config.QueryLog, log.Logger)
		defer ql.Close()
		d.SetMonitor(database.ChainedMonitor{database.NewLoggingMonitor(log.Logger, zerolog.TraceLevel), ql})
	}

	if *flags.Report != "" {
		if *flags.Output == "" {
			return fmt.Errorf("-report requires -output")
		}
		return commands.WriteReport(ctx, d, tableList(*flags.Report, config.Tables), *flags.Output)
	}

	out, closeOut, err := openOutput(*flags.Output)
	if err != nil {
		return err
	}
	defer closeOut()

	switch {
	case *flags.List:
		return commands.ListTables(ctx, d, out)

	case *flags.Export != "":
		opts := commands.ExportOptions{
			Tables: tableList(*flags.Export, config.Tables),
			Bundle: *flags.Bundle,
			Pack:   config.Bundle.Options(),
			Name:   config.Transport.Key,
		}
		if !*flags.Send {
			return commands.ExportStructure(ctx, d, opts, out)
		}
		tr, err := connectTransport(ctx, config.Transport)
		if err != nil {
			return err
		}
		defer tr.Close()
		return commands.SendStructure(ctx, d, opts, tr)

	case *flags.Import != "":
		return commands.ImportFile(ctx, d, *flags.Import, commands.ImportOptions{Plan: *flags.Plan, W: out})

	case *flags.Receive:
		tr, err := connectTransport(ctx, config.Transport)
		if err != nil {
			return err
		}
		defer tr.Close()
		return commands.ReceiveStructure(ctx, d, tr, commands.ImportOptions{Plan: *flags.Plan, W: out})

	case *flags.Split != "":
		return runSplit(ctx, d, *flags.Split)
	}
	return nil
}

func runSplit(ctx context.Context, d *database.Driver, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return commands.SplitFile(ctx, d, f, os.Stdout)
}

func connectTransport(ctx context.Context, cfg transport.Config) (transport.Transport, error) {
	tr, err := transport.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := tr.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect %s transport: %w", tr.Type(), err)
	}
	return tr, nil
}

// tableList splits a comma-separated flag; "-" selects the configured
// tables.
func tableList(arg string, configured []string) []string {
	if arg == "-" {
		return configured
	}
	var out []string
	for _, t := range strings.Split(arg, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
