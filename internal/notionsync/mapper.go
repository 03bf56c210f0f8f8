package notionsync

import (
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/chat-ledger/internal/domain"
)

// Property names of the ledger database in Notion.
const (
	PropItem     = "Item"
	PropRecordID = "Record ID"
	PropAmount   = "Amount"
	PropCategory = "Category"
	PropDate     = "Date"
)

// RecordToNotionProperties converts a ledger record to Notion page properties.
// Item is the page title; Record ID is the key used to detect existing pages.
func RecordToNotionProperties(rec domain.Record) (notionapi.Properties, error) {
	day, err := time.Parse("2006-01-02", rec.Date)
	if err != nil {
		return nil, fmt.Errorf("RecordToNotionProperties: record %d: %w", rec.ID, err)
	}
	date := notionapi.Date(day)

	return notionapi.Properties{
		PropItem: notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: rec.Item},
				},
			},
		},
		PropRecordID: notionapi.NumberProperty{
			Number: float64(rec.ID),
		},
		PropAmount: notionapi.NumberProperty{
			Number: float64(rec.Amount),
		},
		PropCategory: notionapi.SelectProperty{
			Select: notionapi.Option{Name: rec.Category},
		},
		PropDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &date},
		},
	}, nil
}

// extractRecordID reads the Record ID property of a page.
// Returns 0 if the page has none.
func extractRecordID(page notionapi.Page) int64 {
	prop, ok := page.Properties[PropRecordID]
	if !ok {
		return 0
	}
	switch p := prop.(type) {
	case *notionapi.NumberProperty:
		return int64(p.Number)
	case notionapi.NumberProperty:
		return int64(p.Number)
	}
	return 0
}
