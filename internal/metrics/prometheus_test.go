package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordResolverFetch(t *testing.T) {
	before := testutil.ToFloat64(ResolverFetchesTotal.WithLabelValues("product", OutcomeStale))

	RecordResolverFetch("product", OutcomeStale)
	RecordResolverFetch("product", OutcomeStale)

	after := testutil.ToFloat64(ResolverFetchesTotal.WithLabelValues("product", OutcomeStale))
	assert.Equal(t, before+2, after)
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("/workorder-list", "GET", "200"))

	RecordAPIRequest("/workorder-list", "GET", "200", 15*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(APIRequestsTotal.WithLabelValues("/workorder-list", "GET", "200")))
}

func TestRecordImportRows(t *testing.T) {
	imported := testutil.ToFloat64(ImportRowsTotal.WithLabelValues("imported"))
	rejected := testutil.ToFloat64(ImportRowsTotal.WithLabelValues("rejected"))

	RecordImportRows(4, 1)

	assert.Equal(t, imported+4, testutil.ToFloat64(ImportRowsTotal.WithLabelValues("imported")))
	assert.Equal(t, rejected+1, testutil.ToFloat64(ImportRowsTotal.WithLabelValues("rejected")))
}
