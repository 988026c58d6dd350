// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/common/ptr"
	"github.com/flowcoreio/flowcore/config"
	"github.com/flowcoreio/flowcore/engine"
	"github.com/flowcoreio/flowcore/persistence"
)

type ginHandler struct {
	config config.Config
	logger log.Logger
	svc    Service
}

func newGinHandler(
	cfg config.Config,
	gateway engine.Gateway,
	modules persistence.ModuleCache,
	records persistence.ModuleRecordStore,
	logs persistence.ExecutionLogStore,
	logger log.Logger,
) *ginHandler {
	svc := NewServiceImpl(cfg, gateway, modules, records, logs, logger)
	return &ginHandler{
		config: cfg,
		logger: logger,
		svc:    svc,
	}
}

func (h *ginHandler) SubmitExecution(c *gin.Context) {
	var req ExecutionSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}
	h.logger.Debug("received SubmitExecution API request", tag.Value(h.toJson(req)))

	resp, errResp := h.svc.SubmitExecution(c.Request.Context(), req)
	if errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ginHandler) ExecuteAndWait(c *gin.Context) {
	var req ExecutionExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}
	h.logger.Debug("received ExecuteAndWait API request", tag.Value(h.toJson(req)))

	resp, errResp := h.svc.ExecuteAndWait(c.Request.Context(), req)
	if errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ginHandler) CancelExecution(c *gin.Context) {
	var req ExecutionCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}
	h.logger.Debug("received CancelExecution API request", tag.Value(h.toJson(req)))

	resp, errResp := h.svc.CancelExecution(c.Request.Context(), req)
	if errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ginHandler) DescribeExecution(c *gin.Context) {
	var req ExecutionDescribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}

	resp, errResp := h.svc.DescribeExecution(c.Request.Context(), req)
	if errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ginHandler) UpsertModule(c *gin.Context) {
	var req ModuleUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}

	resp, errResp := h.svc.UpsertModule(c.Request.Context(), req)
	if errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ginHandler) DescribeModule(c *gin.Context) {
	var req ModuleDescribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}

	resp, errResp := h.svc.DescribeModule(c.Request.Context(), req)
	if errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ginHandler) ListExecutionLogs(c *gin.Context) {
	var req ExecutionLogsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}

	resp, errResp := h.svc.ListExecutionLogs(c.Request.Context(), req)
	if errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ginHandler) InvalidateModule(c *gin.Context) {
	var req ModuleCacheInvalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequestSchema(c)
		return
	}

	if errResp := h.svc.InvalidateModule(c.Request.Context(), req); errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.Status(http.StatusOK)
}

func (h *ginHandler) ClearModuleCache(c *gin.Context) {
	resp, errResp := h.svc.ClearModuleCache(c.Request.Context())
	if errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ginHandler) ListModulePaths(c *gin.Context) {
	resp, errResp := h.svc.ListModulePaths(c.Request.Context())
	if errResp != nil {
		c.JSON(errResp.StatusCode, errResp.Error)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ginHandler) toJson(req any) string {
	str, err := json.Marshal(req)
	if err != nil {
		h.logger.Error("error when serializing request", tag.Error(err))
		return ""
	}
	return string(str)
}

func invalidRequestSchema(c *gin.Context) {
	c.JSON(http.StatusBadRequest, ApiErrorResponse{
		Detail: ptr.Any("invalid request schema"),
	})
}
