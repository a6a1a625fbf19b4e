// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type AuthenticationHandler struct {
	oidcServer string
	oidcRealm  string

	mu      sync.Mutex
	keyfunc jwt.Keyfunc
}

func NewAuthenticationHandler(oidcServer string, oidcRealm string) *AuthenticationHandler {
	return &AuthenticationHandler{
		oidcServer: oidcServer,
		oidcRealm:  oidcRealm,
	}
}

// newAuthenticationHandlerWithKeyfunc is used by tests to verify tokens against a fixed key.
func newAuthenticationHandlerWithKeyfunc(kf jwt.Keyfunc) *AuthenticationHandler {
	return &AuthenticationHandler{keyfunc: kf}
}

func (ah *AuthenticationHandler) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := ah.ensureAuthenticated(c)
		if err != nil {
			slog.LogAttrs(c.Request().Context(), slog.LevelError, "Failed to authenticate token",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
			return echo.NewHTTPError(http.StatusUnauthorized, "Failed to authenticate token")
		}
		return next(c)
	}
}

func (ah *AuthenticationHandler) getOIDCServerEndpoint() string {
	if ah.oidcServer == "" || ah.oidcRealm == "" {
		return ""
	}
	endpoint := fmt.Sprintf("realms/%s/protocol/openid-connect/certs", ah.oidcRealm)
	return fmt.Sprintf("%s/%s", ah.oidcServer, endpoint)
}

// getKeyfunc returns the JWKS backed key function, creating it on first use.
// A failed creation is retried on the next request.
func (ah *AuthenticationHandler) getKeyfunc() (jwt.Keyfunc, error) {
	ah.mu.Lock()
	defer ah.mu.Unlock()

	if ah.keyfunc != nil {
		return ah.keyfunc, nil
	}

	jwksURL := ah.getOIDCServerEndpoint()
	if jwksURL == "" {
		return nil, errors.New("OIDC server and/or realm not specified")
	}
	jwks, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS from the resource at the given URL: %w", err)
	}
	ah.keyfunc = jwks.Keyfunc
	return ah.keyfunc, nil
}

func (ah *AuthenticationHandler) ensureAuthenticated(c echo.Context) error {
	if skipAuth(c) {
		return nil
	}

	jwtB64, err := getB64JWT(c.Request().Header.Get("Authorization"))
	if err != nil {
		return err
	}

	kf, err := ah.getKeyfunc()
	if err != nil {
		return err
	}

	token, err := jwt.Parse(jwtB64, kf)
	if err != nil {
		return fmt.Errorf("error while parsing JWT: %w", err)
	}

	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
