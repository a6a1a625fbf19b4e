// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

// Package api holds the wire types and the echo routing of the pascal-lint HTTP API.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

const BasePath = "/api/v1"

// RunId is the identifier of an analysis run.
type RunId = uuid.UUID

type HttpError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ServiceStatus struct {
	Status string `json:"status"`
}

type KeywordList struct {
	Keywords []string `json:"keywords"`
}

type Token struct {
	Kind    string `json:"kind"`
	Content string `json:"content"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
}

type Diagnostic struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
}

type TokenizeResult struct {
	Tokens      []Token      `json:"tokens"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

type Finding struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
}

type AnalysisRun struct {
	Id           RunId     `json:"id"`
	Name         string    `json:"name"`
	UnitName     *string   `json:"unitName,omitempty"`
	Uses         []string  `json:"uses,omitempty"`
	Encoding     string    `json:"encoding"`
	Status       string    `json:"status"`
	TokenCount   int64     `json:"tokenCount"`
	CreationDate time.Time `json:"creationDate"`
	Findings     []Finding `json:"findings"`
}

type AnalysisRunList struct {
	Runs []AnalysisRun `json:"runs"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// GET /api/v1/status
	GetServiceStatus(ctx echo.Context) error
	// GET /api/v1/keywords
	GetKeywords(ctx echo.Context) error
	// POST /api/v1/tokenize
	Tokenize(ctx echo.Context) error
	// GET /api/v1/analyses
	GetAnalyses(ctx echo.Context) error
	// POST /api/v1/analyses
	CreateAnalysis(ctx echo.Context) error
	// GET /api/v1/analyses/{id}
	GetAnalysis(ctx echo.Context, id RunId) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) GetServiceStatus(ctx echo.Context) error {
	return w.Handler.GetServiceStatus(ctx)
}

func (w *ServerInterfaceWrapper) GetKeywords(ctx echo.Context) error {
	return w.Handler.GetKeywords(ctx)
}

func (w *ServerInterfaceWrapper) Tokenize(ctx echo.Context) error {
	return w.Handler.Tokenize(ctx)
}

func (w *ServerInterfaceWrapper) GetAnalyses(ctx echo.Context) error {
	return w.Handler.GetAnalyses(ctx)
}

func (w *ServerInterfaceWrapper) CreateAnalysis(ctx echo.Context) error {
	return w.Handler.CreateAnalysis(ctx)
}

func (w *ServerInterfaceWrapper) GetAnalysis(ctx echo.Context) error {
	var id RunId

	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter id: %s", err))
	}

	return w.Handler.GetAnalysis(ctx, id)
}

// EchoRouter is satisfied by both *echo.Echo and *echo.Group.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	router.GET(baseURL+BasePath+"/status", wrapper.GetServiceStatus)
	router.GET(baseURL+BasePath+"/keywords", wrapper.GetKeywords)
	router.POST(baseURL+BasePath+"/tokenize", wrapper.Tokenize)
	router.GET(baseURL+BasePath+"/analyses", wrapper.GetAnalyses)
	router.POST(baseURL+BasePath+"/analyses", wrapper.CreateAnalysis)
	router.GET(baseURL+BasePath+"/analyses/:id", wrapper.GetAnalysis)
}
