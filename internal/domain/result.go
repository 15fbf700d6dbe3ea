package domain

// ListStatus tags the outcome of a report listing.
type ListStatus int

const (
	// ListOK means the store returned at least one record.
	ListOK ListStatus = iota
	// ListEmpty means the store was reachable and held no matching records.
	ListEmpty
	// ListUnavailable means the store could not be queried.
	ListUnavailable
)

func (s ListStatus) String() string {
	switch s {
	case ListOK:
		return "ok"
	case ListEmpty:
		return "empty"
	case ListUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ListResult is the tagged outcome of a read against the report store.
type ListResult struct {
	Status  ListStatus
	Reports []Report
	Err     error
}

// ResultOf classifies a store response.
func ResultOf(reports []Report, err error) ListResult {
	switch {
	case err != nil:
		return ListResult{Status: ListUnavailable, Reports: []Report{}, Err: err}
	case len(reports) == 0:
		return ListResult{Status: ListEmpty, Reports: []Report{}}
	default:
		return ListResult{Status: ListOK, Reports: reports}
	}
}
