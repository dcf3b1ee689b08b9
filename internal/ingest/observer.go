package ingest

// Observer recibe eventos de fetch para instrumentación.
type Observer interface {
	PageFetched(source string)
	RecordsFetched(source string, n int)
	FetchFailed(source string)
}

type nopObserver struct{}

func (nopObserver) PageFetched(string)         {}
func (nopObserver) RecordsFetched(string, int) {}
func (nopObserver) FetchFailed(string)         {}

func observerOr(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}
