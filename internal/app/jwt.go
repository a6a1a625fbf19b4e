// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"errors"
	"regexp"
)

var bearerRegex = regexp.MustCompile(`^Bearer (\S+)$`)

func getB64JWT(authorizationHeader string) (string, error) {
	match := bearerRegex.FindStringSubmatch(authorizationHeader)
	if len(match) != 2 {
		return "", errors.New("unable to extract token from authorization header")
	}
	return match[1], nil
}
