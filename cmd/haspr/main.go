package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bonesbb/HASPR/internal/app"
	"github.com/bonesbb/HASPR/internal/constants"
	"github.com/bonesbb/HASPR/internal/log"
	"github.com/bonesbb/HASPR/pkg/config"
	"github.com/joho/godotenv"
)

func main() {
	cfgFile := flag.String("config", "haspr.yaml", "Path to configuration source:\n\t\t\t  YAML: haspr.yaml\n\t\t\t  SQLite: haspr.db\n\t\t\t  Use 'config-convert' tool to convert YAML→SQLite")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	envFile := flag.String("env", ".env", "Environment file with HASPR_* overrides (ignored when absent)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [coordinates] [output dir] [global dataset] [direct dataset] [optimisation 1|2] [sweep batch index]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", constants.Name, constants.Version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Failed to read environment file %s: %v", *envFile, err)
	}

	// Load configuration
	cfg, err := loadConfig(*cfgFile, *cfgBackend, flag.Args())
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(2)
	}

	if cfg.Log.File != "" {
		opts := log.FileOptions{Path: cfg.Log.File, MaxSizeMB: cfg.Log.MaxSizeMB, MaxBackups: cfg.Log.MaxBackups}
		if err := log.InitWithFile(*debug, opts); err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
	}

	// Create and run the application
	application := app.New(cfg, log.GetSugaredLogger())
	summary, err := application.Run(context.Background())
	if err != nil {
		log.Errorf("Run %s failed: %v", application.RunID(), err)
		if config.IsConfigurationError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
	log.Infof("Run %s complete: %d evaluations over %d sites in %s",
		summary.RunID, summary.Evaluations, summary.Sites, summary.Duration)
}

func loadConfig(cfgFile, cfgBackend string, args []string) (*config.RunConfiguration, error) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		p, err := config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		provider = p
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
	defer provider.Close()

	positional, err := config.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(provider, config.EnvOverrides(), positional)
	if err != nil {
		if config.IsConfigurationError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}
	return cfg, nil
}
