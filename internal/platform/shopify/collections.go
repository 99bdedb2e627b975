package shopify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"streamwear-backend/internal/common/logger"
)

// CollectionKind distinguishes manually curated from rule-based collections.
type CollectionKind string

const (
	CollectionKindCustom CollectionKind = "custom"
	CollectionKindSmart  CollectionKind = "smart"
)

type Collection struct {
	ID     int64          `json:"id"`
	Handle string         `json:"handle"`
	Title  string         `json:"title"`
	Kind   CollectionKind `json:"kind"`
}

type restCollection struct {
	ID     int64  `json:"id"`
	Handle string `json:"handle"`
	Title  string `json:"title"`
}

// CollectionsForProduct resolves every collection the product belongs to,
// covering custom (via collects) and smart collections, deduplicated by handle
// with the first occurrence winning. Upstream failures degrade to an empty
// result for this product; they are logged, never raised, so one throttled
// call cannot fail the whole webhook.
func (c *Client) CollectionsForProduct(ctx context.Context, productID int64) []Collection {
	var out []Collection
	seen := make(map[string]struct{})

	appendUnique := func(cols []restCollection, kind CollectionKind) {
		for _, col := range cols {
			if col.Handle == "" {
				continue
			}
			if _, ok := seen[col.Handle]; ok {
				continue
			}
			seen[col.Handle] = struct{}{}
			out = append(out, Collection{ID: col.ID, Handle: col.Handle, Title: col.Title, Kind: kind})
		}
	}

	appendUnique(c.customCollectionsForProduct(ctx, productID), CollectionKindCustom)
	appendUnique(c.smartCollectionsForProduct(ctx, productID), CollectionKindSmart)

	return out
}

func (c *Client) customCollectionsForProduct(ctx context.Context, productID int64) []restCollection {
	var collects struct {
		Collects []struct {
			CollectionID int64 `json:"collection_id"`
		} `json:"collects"`
	}
	if err := c.adminGet(ctx, fmt.Sprintf("collects.json?product_id=%d", productID), &collects); err != nil {
		logger.Warn().Err(err).Int64("product_id", productID).Msg("collects lookup failed")
		return nil
	}
	if len(collects.Collects) == 0 {
		return nil
	}

	ids := make([]string, 0, len(collects.Collects))
	for _, col := range collects.Collects {
		ids = append(ids, strconv.FormatInt(col.CollectionID, 10))
	}

	var cols struct {
		CustomCollections []restCollection `json:"custom_collections"`
	}
	path := "custom_collections.json?ids=" + strings.Join(ids, ",")
	if err := c.adminGet(ctx, path, &cols); err != nil {
		logger.Warn().Err(err).Int64("product_id", productID).Msg("custom collections lookup failed")
		return nil
	}
	return cols.CustomCollections
}

func (c *Client) smartCollectionsForProduct(ctx context.Context, productID int64) []restCollection {
	var cols struct {
		SmartCollections []restCollection `json:"smart_collections"`
	}
	path := fmt.Sprintf("smart_collections.json?product_id=%d", productID)
	if err := c.adminGet(ctx, path, &cols); err != nil {
		logger.Warn().Err(err).Int64("product_id", productID).Msg("smart collections lookup failed")
		return nil
	}
	return cols.SmartCollections
}
