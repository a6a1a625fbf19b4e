// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/labstack/echo/v4"

	"github.com/open-edge-platform/pascal-lint/api/v1"
	"github.com/open-edge-platform/pascal-lint/internal/database/models"
	"github.com/open-edge-platform/pascal-lint/internal/lexer"
)

const (
	statusEndpoint  = api.BasePath + "/status"
	metricsEndpoint = "/metrics"
)

// getSource extracts the mandatory "source" string field of a request body.
func getSource(body []byte) (string, error) {
	src, err := jsonparser.GetString(body, "source")
	if errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return "", errors.New(`missing "source" field`)
	} else if err != nil {
		return "", fmt.Errorf(`invalid "source" field: %w`, err)
	}
	return src, nil
}

func toTokenizeResult(tokens []lexer.Token, lexErrs []*lexer.Error, skipTrivia bool) api.TokenizeResult {
	res := api.TokenizeResult{
		Tokens:      make([]api.Token, 0, len(tokens)),
		Diagnostics: make([]api.Diagnostic, len(lexErrs)),
	}
	for _, tok := range tokens {
		if skipTrivia && tok.Kind.IsTrivia() {
			continue
		}
		res.Tokens = append(res.Tokens, api.Token{
			Kind:    tok.Kind.String(),
			Content: tok.Content,
			Row:     tok.Row,
			Col:     tok.Col,
		})
	}
	for i, e := range lexErrs {
		res.Diagnostics[i] = api.Diagnostic{
			Kind:    e.Kind.String(),
			Message: e.Message(),
			Row:     e.Row,
			Col:     e.Col,
		}
	}
	return res
}

func toAPIRun(r *models.DBRun) api.AnalysisRun {
	run := api.AnalysisRun{
		Id:           r.ID,
		Name:         r.Name,
		Uses:         r.Uses,
		Encoding:     r.Encoding,
		Status:       string(r.Status),
		TokenCount:   r.TokenCount,
		CreationDate: r.CreationDate,
		Findings:     make([]api.Finding, len(r.Findings)),
	}
	if r.UnitName != "" {
		unitName := r.UnitName
		run.UnitName = &unitName
	}
	for i, f := range r.Findings {
		run.Findings[i] = api.Finding{
			Rule:     f.Rule,
			Severity: string(f.Severity),
			Message:  f.Message,
			Row:      f.Row,
			Col:      f.Col,
		}
	}
	return run
}

func skipAuth(c echo.Context) bool {
	if c.Request().Method != http.MethodGet {
		return false
	}
	path := c.Request().URL.Path
	return path == statusEndpoint || path == metricsEndpoint
}

func skipLog(c echo.Context) bool {
	userAgent := c.Request().Header.Get("User-Agent")
	path := c.Request().URL.Path
	method := c.Request().Method

	if (strings.HasPrefix(userAgent, "curl") || strings.HasPrefix(userAgent, "kube-probe")) &&
		path == statusEndpoint &&
		method == http.MethodGet {
		return true
	}
	return path == metricsEndpoint && strings.HasPrefix(userAgent, "Prometheus")
}

func logError(ctx echo.Context, msg string, err error) {
	ctx.Logger().Errorf("(%s): %s: %v", ctx.Path(), msg, err)
}

func logWarn(ctx echo.Context, msg string) {
	ctx.Logger().Warnf("(%s): %s", ctx.Path(), msg)
}
