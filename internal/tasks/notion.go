package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dstotijn/go-notion"
	"github.com/sirupsen/logrus"
)

// TaskCreator creates one task in an external tracker. Implementations
// must treat each call as independent; dedup is the tracker's job.
type TaskCreator interface {
	CreateTask(ctx context.Context, title string, due time.Time) error
}

// NotionConfig configures the Notion task sink.
type NotionConfig struct {
	APIKey     string
	DatabaseID string

	// TitleProperty / DateProperty are the database property names the
	// task title and due date are written to.
	TitleProperty string
	DateProperty  string
}

// NotionCreator creates tasks as pages in a Notion database.
type NotionCreator struct {
	client *notion.Client
	cfg    NotionConfig
	log    *logrus.Entry
}

// NewNotionCreator constructs a NotionCreator.
func NewNotionCreator(cfg NotionConfig, log *logrus.Entry) (*NotionCreator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("notion API key is empty")
	}
	if cfg.DatabaseID == "" {
		return nil, errors.New("notion database ID is empty")
	}
	if cfg.TitleProperty == "" {
		cfg.TitleProperty = "Name"
	}
	if cfg.DateProperty == "" {
		cfg.DateProperty = "Due"
	}
	return &NotionCreator{
		client: notion.NewClient(cfg.APIKey),
		cfg:    cfg,
		log:    log,
	}, nil
}

// CreateTask creates a database page with the event title and due date.
func (c *NotionCreator) CreateTask(ctx context.Context, title string, due time.Time) error {
	dt := notion.NewDateTime(due, true)

	params := notion.CreatePageParams{
		ParentType: notion.ParentTypeDatabase,
		ParentID:   c.cfg.DatabaseID,
		DatabasePageProperties: &notion.DatabasePageProperties{
			c.cfg.TitleProperty: notion.DatabasePageProperty{
				Title: []notion.RichText{
					{Text: &notion.Text{Content: title}},
				},
			},
			c.cfg.DateProperty: notion.DatabasePageProperty{
				Date: &notion.Date{Start: dt},
			},
		},
	}

	page, err := c.client.CreatePage(ctx, params)
	if err != nil {
		return fmt.Errorf("create notion page: %w", err)
	}

	c.log.WithFields(logrus.Fields{"title": title, "page_id": page.ID}).Info("notion task created")
	return nil
}
