// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package uuid

import (
	"github.com/google/uuid"
)

// MustNewUUID returns the string form of a newly generated v4 UUID
func MustNewUUID() string {
	newUuid, err := uuid.NewRandom()
	if err != nil {
		panic(err)
	}
	return newUuid.String()
}
