// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package data_models

// CachedModule is one entry of the module cache. The index set of known paths
// is maintained separately from the content keys, so a path can still be
// indexed while its content key has expired; readers must treat a missing
// content key as "needs re-caching", not as "unknown module".
type CachedModule struct {
	Path        string `json:"path"`
	Content     string `json:"content"`
	ContentHash string `json:"contentHash"`
}
