// Package backup builds the JSON export of a tenant's inventory and stores it.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MikeMC777/costeo/internal/product"
	"github.com/MikeMC777/costeo/internal/recipe"
)

const FormatVersion = 1

type Document struct {
	Version    int                `json:"version"`
	TenantID   string             `json:"tenant_id"`
	ExportedAt time.Time          `json:"exported_at"`
	Products   []product.Product  `json:"products"`
	Movements  []product.Movement `json:"movements"`
	Recipes    []recipe.Recipe    `json:"recipes"`
}

// Receipt is returned when the document was uploaded instead of sent inline.
type Receipt struct {
	Key        string    `json:"key"`
	Size       int       `json:"size"`
	ExportedAt time.Time `json:"exported_at"`
}

// Store puts an object under key.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

type Exporter struct {
	Products product.Repository
	Recipes  recipe.Repository
	Store    Store // nil keeps backups inline
	Now      func() time.Time
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e *Exporter) Build(ctx context.Context, tenantID string) (*Document, error) {
	ps, err := e.Products.ListAll(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	ms, err := e.Products.ListAllMovements(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	rs, err := e.Recipes.ListAll(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return &Document{
		Version:    FormatVersion,
		TenantID:   tenantID,
		ExportedAt: e.now(),
		Products:   ps,
		Movements:  ms,
		Recipes:    rs,
	}, nil
}

func Key(tenantID string, at time.Time) string {
	return fmt.Sprintf("backups/%s/%s.json", tenantID, at.UTC().Format("20060102T150405Z"))
}

// Run builds the document and uploads it when a store is configured. Without a
// store the document itself is returned for the handler to send.
func (e *Exporter) Run(ctx context.Context, tenantID string) (*Receipt, *Document, error) {
	doc, err := e.Build(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	if e.Store == nil {
		return nil, doc, nil
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, err
	}
	key := Key(tenantID, doc.ExportedAt)
	if err := e.Store.Put(ctx, key, body, "application/json"); err != nil {
		return nil, nil, fmt.Errorf("upload backup: %w", err)
	}
	return &Receipt{Key: key, Size: len(body), ExportedAt: doc.ExportedAt}, nil, nil
}
