// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package api

type ErrorWithStatus struct {
	StatusCode int
	Error      ApiErrorResponse
}

func NewErrorWithStatus(code int, details string) *ErrorWithStatus {
	return &ErrorWithStatus{
		StatusCode: code,
		Error: ApiErrorResponse{
			Detail: &details,
		},
	}
}
