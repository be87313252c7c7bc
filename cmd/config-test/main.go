package main

import (
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/bonesbb/HASPR/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML run configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file")
		name       = flag.String("name", "default", "Run configuration name in the SQLite store")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <haspr.yaml> -sqlite <haspr.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Comparison Test")
	fmt.Println("===========================")

	// Load YAML configuration
	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	yamlConfig, err := config.Load(config.NewYAMLProvider(*yamlFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	// Load SQLite configuration
	fmt.Printf("Loading SQLite configuration: %s\n", *sqliteFile)
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	sqliteConfig, err := config.Load(sqliteProvider.WithRun(*name))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
		os.Exit(1)
	}

	// Both sides are compared with defaults applied
	yamlConfig.Name = sqliteConfig.Name

	fmt.Println("\nComparison Results:")
	fmt.Println("==================")

	sections := []struct {
		name         string
		yaml, sqlite interface{}
	}{
		{"Model", yamlConfig.Model, sqliteConfig.Model},
		{"Coordinates", yamlConfig.Coordinates, sqliteConfig.Coordinates},
		{"Output directory", yamlConfig.OutputDir, sqliteConfig.OutputDir},
		{"Efficiency", yamlConfig.Efficiency, sqliteConfig.Efficiency},
		{"Default albedo", yamlConfig.GroundAlbedo(), sqliteConfig.GroundAlbedo()},
		{"Skip profiles", yamlConfig.SkipProfiles, sqliteConfig.SkipProfiles},
		{"Global irradiance", yamlConfig.Datasets.GlobalIrradiance, sqliteConfig.Datasets.GlobalIrradiance},
		{"Direct irradiance", yamlConfig.Datasets.DirectIrradiance, sqliteConfig.Datasets.DirectIrradiance},
		{"Albedo", yamlConfig.Datasets.Albedo, sqliteConfig.Datasets.Albedo},
		{"Sweep", yamlConfig.Sweep, sqliteConfig.Sweep},
		{"Log", yamlConfig.Log, sqliteConfig.Log},
		{"Metrics textfile", yamlConfig.MetricsTextfile, sqliteConfig.MetricsTextfile},
	}

	differences := 0
	for _, s := range sections {
		if reflect.DeepEqual(s.yaml, s.sqlite) {
			fmt.Printf("✓ %s matches\n", s.name)
			continue
		}
		differences++
		fmt.Printf("✗ %s differs\n", s.name)
		fmt.Printf("    YAML:   %+v\n", s.yaml)
		fmt.Printf("    SQLite: %+v\n", s.sqlite)
	}

	if differences > 0 {
		fmt.Printf("\n%d sections differ\n", differences)
		os.Exit(1)
	}
	fmt.Println("\nConfigurations match")
}
