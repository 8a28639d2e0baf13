package metrics

import (
	"time"

	"github.com/joeydtaylor/steeze-keyset/pkg/keyset"
)

// KeySetObserver exports keyset fetch and resolution events.
type KeySetObserver struct{}

var _ keyset.Observer = KeySetObserver{}

func (KeySetObserver) ObserveFetch(keys int, took time.Duration, err error) {
	keySetFetchDuration.Observe(took.Seconds())
	if err != nil {
		keySetFetches.WithLabelValues("error").Inc()
		return
	}
	keySetFetches.WithLabelValues("ok").Inc()
	keySetFetchedKeys.Set(float64(keys))
}

func (KeySetObserver) ObserveResolve(outcome string) {
	keySetResolutions.WithLabelValues(outcome).Inc()
}
