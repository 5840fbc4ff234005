package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/insightfinder/sampler-agent/classfile"
	config "github.com/insightfinder/sampler-agent/configs"
	"github.com/insightfinder/sampler-agent/metrics"
	"github.com/insightfinder/sampler-agent/service"
	"github.com/insightfinder/sampler-agent/worker"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/config.yaml"

var logger *logrus.Logger

func init() {
	// The service and config packages log through the standard logger
	logger = logrus.StandardLogger()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

type flags struct {
	configPath   string
	agentOptions string
	iterations   int
	interval     string
	service      string
	value        int
	logLevel     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Errorf("%v", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:           "sampler-agent",
		Short:         "Sample an integer from a service at a fixed interval",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}

			setupLogging(cfg)

			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", defaultConfigPath, "Path to configuration file (YAML or TOML)")
	cmd.Flags().StringVar(&f.agentOptions, "agent-options", "", "Agent argument, e.g. classes_dir=/path/to/classes")
	cmd.Flags().IntVarP(&f.iterations, "iterations", "n", config.DefaultIterations, "Number of samples to take")
	cmd.Flags().StringVarP(&f.interval, "interval", "i", "1s", "Wait before each sample")
	cmd.Flags().StringVar(&f.service, "service", config.ServiceStatic, "Service backend: static, file, http or ebpf")
	cmd.Flags().IntVar(&f.value, "value", 0, "Value returned by the static service")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "INFO", "Log level")

	cmd.AddCommand(inspectCmd())
	return cmd
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.class|dir>",
		Short: "Dump a class file, or every class file below a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(cmd.OutOrStdout(), args[0])
		},
	}
}

// loadConfig reads the config file and applies the flags the user set. The
// default config path is optional, an explicit one is not.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	var cfg *config.Config

	_, statErr := os.Stat(f.configPath)
	if cmd.Flags().Changed("config") || statErr == nil {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	} else {
		logger.Debugf("No configuration file at %s, using defaults", f.configPath)
		cfg = config.DefaultConfig()
	}

	applyFlags(cmd, f, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("agent-options") {
		cfg.Agent.Options = f.agentOptions
	}
	if changed("iterations") {
		cfg.Sampler.Iterations = f.iterations
	}
	if changed("interval") {
		cfg.Sampler.Interval = f.interval
	}
	if changed("service") {
		cfg.Service.Type = f.service
	}
	if changed("value") {
		cfg.Service.Value = f.value
	}
	if changed("log-level") {
		cfg.Agent.LogLevel = f.logLevel
	}
}

// run loads the classes directory if one is configured, builds the service
// and drives the sampling loop until it completes or ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	log := logger.WithField("run_id", uuid.New().String())

	log.Info("========================================================")
	log.Info("Sampler Agent Starting...")
	log.Info("========================================================")

	opts := cfg.AgentOptions()

	classes := 0
	if opts.ClassesDir != "" {
		log.Infof("Agent options: %s", opts)
		registry := classfile.NewRegistry()
		n, err := registry.ScanDir(opts.ClassesDir)
		if err != nil {
			return err
		}
		classes = n
		log.Infof("Loaded %d classes from %s", n, opts.ClassesDir)
	}

	svc, err := service.New(cfg.Service, opts)
	if err != nil {
		return fmt.Errorf("failed to create %s service: %w", cfg.Service.Type, err)
	}
	defer func() {
		if err := service.Close(svc); err != nil {
			log.Warnf("Failed to close service: %v", err)
		}
	}()

	w := worker.NewWorker(cfg.Sampler, svc, out).WithLogger(log)

	if cfg.Metrics.Enabled {
		m := metrics.NewMetrics(cfg.Metrics.Namespace)
		m.SetClassesLoaded(classes)
		w.WithObserver(m)

		serveCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := m.Serve(serveCtx, cfg.Metrics.ListenAddress); err != nil {
				log.Errorf("Metrics server failed: %v", err)
			}
		}()
	}

	if err := w.Run(ctx); err != nil {
		if errors.Is(err, worker.ErrInterrupted) {
			log.Info("Shutting down...")
		}
		return err
	}
	return nil
}

// inspect dumps the class file at path, or every class file below path when
// it is a directory.
func inspect(out io.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		cf, err := classfile.ParseFile(path)
		if err != nil {
			return err
		}
		return classfile.Dump(out, info.Size(), cf)
	}

	registry := classfile.NewRegistry()
	if _, err := registry.ScanDir(path); err != nil {
		return err
	}

	for i, sig := range registry.Signatures() {
		c, _ := registry.Get(sig)
		if i > 0 {
			if _, err := fmt.Fprintln(out); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(out, "# %s\n", filepath.ToSlash(c.Path)); err != nil {
			return err
		}
		if err := classfile.Dump(out, c.Size, c.File); err != nil {
			return err
		}
	}
	return nil
}

func setupLogging(cfg *config.Config) {
	// Set log level
	level, err := logrus.ParseLevel(cfg.Agent.LogLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", cfg.Agent.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Setup log file if specified
	if cfg.Agent.LogFile != "" {
		logDir := filepath.Dir(cfg.Agent.LogFile)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			logger.Errorf("Failed to create log directory: %v", err)
			return
		}

		logFile, err := os.OpenFile(cfg.Agent.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			logger.Errorf("Failed to open log file: %v", err)
			return
		}

		// stdout carries the samples, so the log never goes there
		logger.SetOutput(logFile)
		logger.Infof("Logging to file: %s", cfg.Agent.LogFile)
	}

	logger.Debugf("Log level set to: %s", level.String())
}
