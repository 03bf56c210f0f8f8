package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/chat-ledger/internal/domain"
	"github.com/dvloznov/chat-ledger/internal/logger"
)

// PageSize is the number of pages requested per database query.
const PageSize = 100

// RecordLister returns every ledger record.
type RecordLister interface {
	List(ctx context.Context) ([]domain.Record, error)
}

// SyncOptions controls a sync run.
type SyncOptions struct {
	// DryRun logs what would change without calling write endpoints.
	DryRun bool
	// Prune archives pages whose Record ID is not in the ledger.
	Prune bool
}

// SyncResult counts what a sync run did.
type SyncResult struct {
	Created int
	Skipped int
	Deleted int
	Failed  int
}

// SyncRecords mirrors the ledger into a Notion database. Records whose id
// already has a page are skipped, so repeated runs create no duplicates.
// Per-page failures are logged and counted; they do not stop the run.
func SyncRecords(ctx context.Context, src RecordLister, notionClient NotionService, notionDBID string, opts SyncOptions) (SyncResult, error) {
	log := logger.FromContext(ctx)
	var res SyncResult

	log.Info().
		Bool("dry_run", opts.DryRun).
		Bool("prune", opts.Prune).
		Msg("Starting ledger sync to Notion")

	records, err := src.List(ctx)
	if err != nil {
		return res, fmt.Errorf("SyncRecords: listing records: %w", err)
	}

	pages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return res, fmt.Errorf("SyncRecords: %w", err)
	}

	log.Info().
		Int("record_count", len(records)).
		Int("notion_page_count", len(pages)).
		Msg("Loaded ledger and Notion pages")

	ledgerIDs := make(map[int64]bool, len(records))
	for _, rec := range records {
		ledgerIDs[rec.ID] = true
	}

	existing := make(map[int64]bool, len(pages))
	for _, page := range pages {
		if id := extractRecordID(page); id != 0 {
			existing[id] = true
		}
	}

	if opts.Prune {
		for _, page := range pages {
			id := extractRecordID(page)
			if id != 0 && ledgerIDs[id] {
				continue
			}
			if opts.DryRun {
				log.Info().Int64("record_id", id).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would delete stale Notion page")
				res.Deleted++
				continue
			}
			if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
				log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to delete stale Notion page")
				res.Failed++
				continue
			}
			res.Deleted++
		}
	}

	for _, rec := range records {
		if existing[rec.ID] {
			res.Skipped++
			continue
		}
		if opts.DryRun {
			log.Info().Int64("record_id", rec.ID).Msg("[DRY RUN] Would create Notion page")
			res.Created++
			continue
		}

		props, err := RecordToNotionProperties(rec)
		if err != nil {
			log.Warn().Err(err).Int64("record_id", rec.ID).Msg("Skipping record with unmappable fields")
			res.Failed++
			continue
		}
		page, err := notionClient.CreatePage(ctx, notionDBID, props)
		if err != nil {
			log.Warn().Err(err).Int64("record_id", rec.ID).Msg("Failed to create Notion page")
			res.Failed++
			continue
		}
		log.Debug().Int64("record_id", rec.ID).Str("page_id", string(page.ID)).Msg("Created Notion page")
		existing[rec.ID] = true
		res.Created++
	}

	log.Info().
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Int("deleted", res.Deleted).
		Int("failed", res.Failed).
		Msg("Ledger sync completed")

	return res, nil
}

func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: PageSize,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
