package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/chat-ledger/internal/config"
	"github.com/dvloznov/chat-ledger/internal/gcsuploader"
	infraBQ "github.com/dvloznov/chat-ledger/internal/infra/bigquery"
	"github.com/dvloznov/chat-ledger/internal/infra/llm"
	"github.com/dvloznov/chat-ledger/internal/infra/sqlite"
	"github.com/dvloznov/chat-ledger/internal/logger"
	"github.com/dvloznov/chat-ledger/internal/notionsync"
	"github.com/dvloznov/chat-ledger/internal/pipeline"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.New().Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewFromConfig(cfg.LogLevel, cfg.LogFormat)

	switch os.Args[1] {
	case "record":
		runRecord(log, cfg)
	case "list":
		runList(log, cfg)
	case "export-bq":
		runExportBQ(log, cfg)
	case "export-gcs":
		runExportGCS(log, cfg)
	case "sync-notion":
		runSyncNotion(log, cfg)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Chat Ledger CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  record       Record one message through the LLM pipeline")
	fmt.Println("  list         Print all ledger records")
	fmt.Println("  export-bq    Export new records to BigQuery")
	fmt.Println("  export-gcs   Upload a CSV snapshot of the ledger to GCS")
	fmt.Println("  sync-notion  Mirror ledger records into a Notion database")
	fmt.Println("  help         Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// openStore opens the ledger at path or exits.
func openStore(ctx context.Context, log zerolog.Logger, path string) *sqlite.Store {
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to open ledger store")
	}
	return store
}

func runRecord(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	message := fs.String("message", "", "Chat message to record, e.g. \"午餐 120 元\"")
	dbPath := fs.String("db", cfg.DatabasePath, "SQLite database path")
	fs.Parse(os.Args[2:])

	if *message == "" {
		log.Fatal().Msg("Error: -message is required")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid timezone")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.LLMTimeout+30*time.Second)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store := openStore(ctx, log, *dbPath)
	defer store.Close()

	extractor, err := llm.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.LLMBackend).Msg("Failed to create LLM backend")
	}

	p := pipeline.NewRecordPipeline(extractor, store, pipeline.WithLocation(loc))
	outcome := p.Process(ctx, *message)

	fmt.Println(pipeline.Compose(outcome))
	if outcome.Kind != pipeline.OutcomeCommitted {
		os.Exit(1)
	}
}

func runList(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dbPath := fs.String("db", cfg.DatabasePath, "SQLite database path")
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	store := openStore(ctx, log, *dbPath)
	defer store.Close()

	records, err := store.List(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list records")
	}

	fmt.Printf("%-6s %-10s %10s  %-12s %s\n", "ID", "DATE", "AMOUNT", "CATEGORY", "ITEM")
	for _, r := range records {
		fmt.Printf("%-6d %-10s %10d  %-12s %s\n", r.ID, r.Date, r.Amount, r.Category, r.Item)
	}
	fmt.Printf("\n%d record(s)\n", len(records))
}

func runExportBQ(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("export-bq", flag.ExitOnError)
	dbPath := fs.String("db", cfg.DatabasePath, "SQLite database path")
	project := fs.String("project", cfg.GCPProject, "GCP project ID (or set GCP_PROJECT env)")
	dataset := fs.String("dataset", cfg.BQDataset, "BigQuery dataset ID")
	table := fs.String("table", cfg.BQTable, "BigQuery table ID")
	dryRun := fs.Bool("dry-run", false, "Report what would be exported without inserting")
	fs.Parse(os.Args[2:])

	if *project == "" {
		log.Fatal().Msg("Error: -project is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store := openStore(ctx, log, *dbPath)
	defer store.Close()

	wh, err := infraBQ.NewBigQueryWarehouse(ctx, *project, *dataset, *table)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery")
	}
	defer wh.Close()

	n, err := infraBQ.ExportRecords(ctx, store, wh, time.Now, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Printf("Exported %d record(s) to %s.%s.%s\n", n, *project, *dataset, *table)
}

func runExportGCS(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("export-gcs", flag.ExitOnError)
	dbPath := fs.String("db", cfg.DatabasePath, "SQLite database path")
	bucket := fs.String("bucket", cfg.GCSBucket, "GCS bucket name (or set GCS_BUCKET env)")
	verify := fs.Bool("verify", false, "Read the snapshot back and check its row count")
	fs.Parse(os.Args[2:])

	if *bucket == "" {
		log.Fatal().Msg("Error: -bucket is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store := openStore(ctx, log, *dbPath)
	defer store.Close()

	svc, err := gcsuploader.NewGCSStorageService(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize GCS")
	}
	defer svc.Close()

	object, err := gcsuploader.UploadSnapshot(ctx, store, svc, *bucket, time.Now(), *verify)
	if err != nil {
		log.Fatal().Err(err).Msg("Snapshot upload failed")
	}

	fmt.Printf("Uploaded ledger snapshot to gs://%s/%s\n", *bucket, object)
}

func runSyncNotion(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("sync-notion", flag.ExitOnError)
	dbPath := fs.String("db", cfg.DatabasePath, "SQLite database path")
	notionDBID := fs.String("notion-db-id", cfg.NotionDBID, "Notion database ID (or set NOTION_DB_ID env)")
	dryRun := fs.Bool("dry-run", false, "Preview changes without writing to Notion")
	prune := fs.Bool("prune", false, "Archive Notion pages whose record is not in the ledger")
	fs.Parse(os.Args[2:])

	// Token comes from the environment only.
	if cfg.NotionToken == "" {
		log.Fatal().Msg("Error: NOTION_TOKEN is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: -notion-db-id is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store := openStore(ctx, log, *dbPath)
	defer store.Close()

	res, err := notionsync.SyncRecords(ctx, store, notionsync.NewNotionClient(cfg.NotionToken), *notionDBID,
		notionsync.SyncOptions{DryRun: *dryRun, Prune: *prune})
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d skipped, %d deleted, %d failed\n",
		res.Created, res.Skipped, res.Deleted, res.Failed)
}
