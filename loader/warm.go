// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"context"
	"errors"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/persistence"
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

// WarmCache re-caches every module record of the organization whose content
// key is missing from the shared cache. Index membership and content-key
// lifetime are independent, so a path can still be indexed while its content
// has expired; warming restores the content without touching fresh entries.
// Returns the number of modules written.
func WarmCache(
	ctx context.Context,
	records persistence.ModuleRecordStore,
	cache persistence.ModuleCache,
	orgId string,
	logger log.Logger,
) (int, error) {
	recs, err := records.ListRecordsByOrg(ctx, orgId)
	if err != nil {
		return 0, err
	}
	warmed := 0
	for _, rec := range recs {
		_, err := cache.GetModule(ctx, rec.ModulePath)
		if err == nil {
			continue
		}
		if !errors.Is(err, persistence.ErrNotFound) {
			return warmed, err
		}
		if err := cache.SetModule(ctx, data_models.CachedModule{
			Path:        rec.ModulePath,
			Content:     rec.Content,
			ContentHash: rec.ContentHash,
		}); err != nil {
			return warmed, err
		}
		warmed++
	}
	if warmed > 0 {
		logger.Info("module cache warmed",
			tag.OrgId(orgId), tag.Counter(warmed))
	}
	return warmed, nil
}
