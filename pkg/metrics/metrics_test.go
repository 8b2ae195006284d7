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

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCeremony(t *testing.T) {
	Enable()

	before := testutil.ToFloat64(CeremoniesTotal.WithLabelValues(CeremonyAuthentication, StatusSuccess))
	RecordCeremony(CeremonyAuthentication, StatusSuccess)
	after := testutil.ToFloat64(CeremoniesTotal.WithLabelValues(CeremonyAuthentication, StatusSuccess))

	assert.Equal(t, before+1, after)
}

func TestRecordValidation(t *testing.T) {
	Enable()

	before := testutil.ToFloat64(ValidationsTotal.WithLabelValues(OutcomeUnauthorized))
	RecordValidation(OutcomeUnauthorized)
	after := testutil.ToFloat64(ValidationsTotal.WithLabelValues(OutcomeUnauthorized))

	assert.Equal(t, before+1, after)
}

func TestDisable(t *testing.T) {
	Disable()
	defer Enable()

	before := testutil.ToFloat64(SessionsIssuedTotal)
	RecordSessionIssued()
	after := testutil.ToFloat64(SessionsIssuedTotal)

	assert.Equal(t, before, after)
	assert.False(t, IsEnabled())
}

func TestHTTPMiddleware(t *testing.T) {
	Enable()

	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "418"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "418"))
	assert.Equal(t, before+1, after)
}
