package ingest

import "fmt"

// IngestionError reports a document that could not be read. Callers treat it
// as empty text rather than aborting.
type IngestionError struct {
	Source string
	Err    error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("reading document %q: %v", e.Source, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// FetchError reports an unreachable page or a non-2xx response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: bad status: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
