// cmd/tools/catalog-indexer/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"food-ordering-agent/internal/common/config"
	"food-ordering-agent/internal/common/database"
	"food-ordering-agent/pkg/catalogfile"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	indexCmd := flag.NewFlagSet("index", flag.ExitOnError)
	convertCmd := flag.NewFlagSet("convert", flag.ExitOnError)

	// Validate command flags
	validatePath := validateCmd.String("path", "data/catalog.json", "Path to catalog fixture")

	// Index command flags
	indexPath := indexCmd.String("path", "data/catalog.json", "Path to catalog fixture")
	esURL := indexCmd.String("es", "http://localhost:9200", "Elasticsearch URL")
	venueIndex := indexCmd.String("venue-index", "venues", "Index holding venues")
	menuIndex := indexCmd.String("menu-index", "menus", "Index holding menu items")
	recreate := indexCmd.Bool("recreate", false, "Delete both indices before indexing")

	// Convert command flags
	from := convertCmd.String("from", "", "Source fixture (.json, .yaml or .yml)")
	to := convertCmd.String("to", "", "Destination fixture; the extension picks the format")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		cat, err := loadValid(*validatePath)
		if err != nil {
			fmt.Printf("Catalog validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Catalog validation passed. Found %d venues and %d menu items.\n", len(cat.Venues), cat.ItemCount())

	case "index":
		indexCmd.Parse(os.Args[2:])
		cat, err := loadValid(*indexPath)
		if err != nil {
			fmt.Printf("Catalog validation failed: %v\n", err)
			os.Exit(1)
		}
		es, err := database.NewElasticsearch(config.ElasticsearchConfig{URL: *esURL})
		if err != nil {
			fmt.Printf("Error connecting to Elasticsearch: %v\n", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		idx := &indexer{client: es.Client, venueIndex: *venueIndex, menuIndex: *menuIndex}
		stats, err := idx.Run(ctx, cat, *recreate)
		if err != nil {
			fmt.Printf("Error indexing catalog: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Indexed %d venues into %s and %d menu items into %s\n",
			stats.Venues, *venueIndex, stats.Items, *menuIndex)

	case "convert":
		convertCmd.Parse(os.Args[2:])
		if *from == "" || *to == "" {
			fmt.Println("Error: from and to are required for convert.")
			convertCmd.Usage()
			os.Exit(1)
		}
		cat, err := loadValid(*from)
		if err != nil {
			fmt.Printf("Catalog validation failed: %v\n", err)
			os.Exit(1)
		}
		if err := catalogfile.Save(*to, cat); err != nil {
			fmt.Printf("Error writing catalog: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *to)

	case "help":
		fallthrough
	default:
		help()
	}
}

func loadValid(path string) (*catalogfile.Catalog, error) {
	cat, err := catalogfile.Load(path)
	if err != nil {
		return nil, err
	}
	if problems := cat.Validate(); len(problems) > 0 {
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return nil, fmt.Errorf("%d problems in %s", len(problems), path)
	}
	return cat, nil
}

func help() {
	fmt.Print(`
Usage: catalog-indexer <command> [flags]

Commands:
  validate  Check a catalog fixture for missing ids, duplicates and orphan menus
  index     Create the venue and menu indices and bulk-load a fixture into them
  convert   Rewrite a fixture as JSON or YAML
  help      Show this help message

Examples:
  catalog-indexer validate -path data/catalog.json
  catalog-indexer index -path data/catalog.json -es http://localhost:9200 -recreate
  catalog-indexer convert -from data/catalog.json -to data/catalog.yaml

Use 'catalog-indexer <command> -h' for more information about a command.
` + "\n")
}
