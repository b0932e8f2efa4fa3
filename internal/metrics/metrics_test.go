package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDefault_IsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestRecordPayout(t *testing.T) {
	m := Default()
	before := testutil.ToFloat64(m.payouts.WithLabelValues("paid"))

	m.RecordPayout("paid", 250*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(m.payouts.WithLabelValues("paid")))
}

func TestRecordCancellation_Labels(t *testing.T) {
	m := Default()
	before := testutil.ToFloat64(m.cancellations.WithLabelValues("ARTIST", "true"))

	m.RecordCancellation("ARTIST", true)

	assert.Equal(t, before+1, testutil.ToFloat64(m.cancellations.WithLabelValues("ARTIST", "true")))
}

func TestNilReceiverIsNoop(t *testing.T) {
	var m *Settlement
	assert.NotPanics(t, func() {
		m.RecordRefund("failed")
		m.RecordReview("approved")
		m.RecordPayout("failed", time.Second)
		m.RecordCancellation("VENUE", false)
	})
}
