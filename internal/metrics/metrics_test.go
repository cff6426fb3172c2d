package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveProcess(t *testing.T) {
	indexedBefore := testutil.ToFloat64(processTotal.WithLabelValues(OutcomeIndexed))
	chunksBefore := testutil.ToFloat64(chunksIndexed)

	ObserveProcess(OutcomeIndexed, 7, time.Now())
	ObserveProcess(OutcomeNoContent, 0, time.Now())

	if got := testutil.ToFloat64(processTotal.WithLabelValues(OutcomeIndexed)) - indexedBefore; got != 1 {
		t.Errorf("indexed count delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(chunksIndexed) - chunksBefore; got != 7 {
		t.Errorf("chunks delta = %v, want 7", got)
	}
}

func TestObserveAsk(t *testing.T) {
	before := testutil.ToFloat64(askTotal.WithLabelValues(OutcomeAdvisory))
	ObserveAsk(OutcomeAdvisory, time.Now())
	if got := testutil.ToFloat64(askTotal.WithLabelValues(OutcomeAdvisory)) - before; got != 1 {
		t.Errorf("advisory count delta = %v, want 1", got)
	}
}
