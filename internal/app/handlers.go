// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/buger/jsonparser"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/open-edge-platform/pascal-lint/api/v1"
	"github.com/open-edge-platform/pascal-lint/internal/analyzer"
	db "github.com/open-edge-platform/pascal-lint/internal/database"
	"github.com/open-edge-platform/pascal-lint/internal/lexer"
)

const (
	errHTTPBadRequest          = "bad request"
	errHTTPSourceTooLarge      = "source exceeds size limit"
	errHTTPFailedToGetRuns     = "failed to get analysis runs"
	errHTTPFailedToGetRun      = "failed to get analysis run"
	errHTTPRunNotFound         = "analysis run not found"
	errHTTPFailedToCreateRun   = "failed to create analysis run"
	defaultAnalysisName        = "untitled.pas"
	maxRequestBodyOverheadSize = 4 << 10
)

type ServerInterfaceHandler struct {
	runs     db.RunManager
	analyzer *analyzer.Analyzer

	maxSourceSize int64
}

func NewServerInterfaceHandler(runs db.RunManager, a *analyzer.Analyzer, maxSourceSize int64) *ServerInterfaceHandler {
	return &ServerInterfaceHandler{
		runs:          runs,
		analyzer:      a,
		maxSourceSize: maxSourceSize,
	}
}

func (w *ServerInterfaceHandler) GetServiceStatus(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.ServiceStatus{Status: "ready"})
}

func (w *ServerInterfaceHandler) GetKeywords(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.KeywordList{Keywords: lexer.Keywords()})
}

func (w *ServerInterfaceHandler) Tokenize(ctx echo.Context) error {
	body, httpErr := w.readBody(ctx)
	if httpErr != nil {
		return ctx.JSON(httpErr.Code, httpErr)
	}

	src, err := getSource(body)
	if err != nil {
		logError(ctx, "Failed to parse body of tokenize request", err)
		return badRequest(ctx)
	}

	skipTrivia, err := jsonparser.GetBoolean(body, "skipTrivia")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		logError(ctx, "Failed to parse skipTrivia field", err)
		return badRequest(ctx)
	}

	tokens, lexErrs := lexer.Tokenize(src)
	return ctx.JSON(http.StatusOK, toTokenizeResult(tokens, lexErrs, skipTrivia))
}

func (w *ServerInterfaceHandler) GetAnalyses(ctx echo.Context) error {
	runs, err := w.runs.GetRunList(ctx.Request().Context())
	if err != nil {
		logError(ctx, errHTTPFailedToGetRuns, err)
		return ctx.JSON(http.StatusInternalServerError, api.HttpError{
			Code:    http.StatusInternalServerError,
			Message: errHTTPFailedToGetRuns,
		})
	}

	list := api.AnalysisRunList{Runs: make([]api.AnalysisRun, len(runs))}
	for i, r := range runs {
		list.Runs[i] = toAPIRun(r)
	}
	return ctx.JSON(http.StatusOK, list)
}

func (w *ServerInterfaceHandler) CreateAnalysis(ctx echo.Context) error {
	body, httpErr := w.readBody(ctx)
	if httpErr != nil {
		return ctx.JSON(httpErr.Code, httpErr)
	}

	src, err := getSource(body)
	if err != nil {
		logError(ctx, "Failed to parse body of analysis request", err)
		return badRequest(ctx)
	}
	if w.maxSourceSize > 0 && int64(len(src)) > w.maxSourceSize {
		logWarn(ctx, fmt.Sprintf("Source of %d bytes exceeds limit of %d bytes", len(src), w.maxSourceSize))
		return ctx.JSON(http.StatusRequestEntityTooLarge, api.HttpError{
			Code:    http.StatusRequestEntityTooLarge,
			Message: errHTTPSourceTooLarge,
		})
	}

	name, err := jsonparser.GetString(body, "name")
	switch {
	case errors.Is(err, jsonparser.KeyPathNotFoundError):
		name = defaultAnalysisName
	case err != nil:
		logError(ctx, "Failed to parse name field", err)
		return badRequest(ctx)
	case name == "":
		name = defaultAnalysisName
	}

	report := w.analyzer.Analyze(name, src)
	run := report.Run()
	if err := w.runs.CreateRun(ctx.Request().Context(), run); err != nil {
		logError(ctx, fmt.Sprintf("Failed to store analysis run of %q", name), err)
		return ctx.JSON(http.StatusInternalServerError, api.HttpError{
			Code:    http.StatusInternalServerError,
			Message: errHTTPFailedToCreateRun,
		})
	}

	return ctx.JSON(http.StatusCreated, toAPIRun(run))
}

func (w *ServerInterfaceHandler) GetAnalysis(ctx echo.Context, id api.RunId) error {
	run, err := w.runs.GetRun(ctx.Request().Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logError(ctx, fmt.Sprintf("Analysis run not found: %q", id), err)
		return ctx.JSON(http.StatusNotFound, api.HttpError{
			Code:    http.StatusNotFound,
			Message: errHTTPRunNotFound,
		})
	} else if err != nil {
		logError(ctx, fmt.Sprintf("Failed to retrieve analysis run: %q", id), err)
		return ctx.JSON(http.StatusInternalServerError, api.HttpError{
			Code:    http.StatusInternalServerError,
			Message: errHTTPFailedToGetRun,
		})
	}

	return ctx.JSON(http.StatusOK, toAPIRun(run))
}

// readBody reads the request body, rejecting bodies that cannot hold a source
// within the size limit.
func (w *ServerInterfaceHandler) readBody(ctx echo.Context) ([]byte, *api.HttpError) {
	reader := ctx.Request().Body
	if w.maxSourceSize > 0 {
		reader = http.MaxBytesReader(ctx.Response(), reader, w.maxSourceSize+maxRequestBodyOverheadSize)
	}

	body, err := io.ReadAll(reader)
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		logError(ctx, "Request body too large", err)
		return nil, &api.HttpError{Code: http.StatusRequestEntityTooLarge, Message: errHTTPSourceTooLarge}
	case err != nil:
		logError(ctx, "Failed to read request body", err)
		return nil, &api.HttpError{Code: http.StatusBadRequest, Message: errHTTPBadRequest}
	}
	return body, nil
}

func badRequest(ctx echo.Context) error {
	return ctx.JSON(http.StatusBadRequest, api.HttpError{
		Code:    http.StatusBadRequest,
		Message: errHTTPBadRequest,
	})
}
