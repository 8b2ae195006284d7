// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-authgate.
//
// go-authgate is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package gate

import (
	"net/url"
	"strings"
)

// SafeReturnURL reports whether a candidate post-login return URL may be
// followed. The candidate's scheme and host must exactly match one of the
// allowed origins; anything else is an open-redirect vector and is
// rejected. Relative paths are allowed since they cannot leave the
// serving domain.
func SafeReturnURL(allowedOrigins []string, candidate string) bool {
	if candidate == "" {
		return false
	}

	// Scheme-relative URLs ("//evil.example") parse as relative but
	// navigate cross-origin.
	if strings.HasPrefix(candidate, "//") {
		return false
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}

	// Same-origin relative path
	if u.Scheme == "" && u.Host == "" {
		return strings.HasPrefix(u.Path, "/")
	}

	for _, origin := range allowedOrigins {
		allowed, err := url.Parse(origin)
		if err != nil {
			continue
		}
		if strings.EqualFold(u.Scheme, allowed.Scheme) && strings.EqualFold(u.Host, allowed.Host) {
			return true
		}
	}
	return false
}
