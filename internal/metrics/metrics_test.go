package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	Register()
	Register() // second call must not panic

	before := testutil.ToFloat64(bookingTransitions.WithLabelValues("Pending"))
	IncBookingStatus("Pending")
	assert.Equal(t, before+1, testutil.ToFloat64(bookingTransitions.WithLabelValues("Pending")))

	okBefore := testutil.ToFloat64(eventsPublished.WithLabelValues("booking.created", "ok"))
	errBefore := testutil.ToFloat64(eventsPublished.WithLabelValues("booking.created", "error"))
	IncEventPublished("booking.created", nil)
	IncEventPublished("booking.created", errors.New("down"))
	assert.Equal(t, okBefore+1, testutil.ToFloat64(eventsPublished.WithLabelValues("booking.created", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(eventsPublished.WithLabelValues("booking.created", "error")))

	hits := testutil.ToFloat64(cacheLookups.WithLabelValues("hit"))
	IncCacheLookup(true)
	assert.Equal(t, hits+1, testutil.ToFloat64(cacheLookups.WithLabelValues("hit")))

	reqs := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/v1/venues", "200"))
	ObserveRequest(http.MethodGet, "/v1/venues", http.StatusOK, 10*time.Millisecond)
	assert.Equal(t, reqs+1, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/v1/venues", "200")))
}
