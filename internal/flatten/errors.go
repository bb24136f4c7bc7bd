package flatten

import (
	"fmt"

	"github.com/sells-group/partyload/internal/party"
)

// DatasetError labels a failure with the dataset, and the sink when the
// failure happened while writing. A sink that fails to close has no dataset.
type DatasetError struct {
	Dataset party.Dataset
	// Sink is empty when planning or rendering failed.
	Sink string
	Err  error
}

func (e *DatasetError) Error() string {
	if e.Dataset == "" {
		return fmt.Sprintf("flatten: sink %s: %v", e.Sink, e.Err)
	}
	if e.Sink == "" {
		return fmt.Sprintf("flatten: dataset %s: %v", e.Dataset, e.Err)
	}
	return fmt.Sprintf("flatten: dataset %s sink %s: %v", e.Dataset, e.Sink, e.Err)
}

func (e *DatasetError) Unwrap() error { return e.Err }
