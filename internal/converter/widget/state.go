package widget

import (
	"github.com/langowen/converter/internal/entities"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	return [...]string{"idle", "loading", "loaded", "failed"}[p]
}

// fetchState is the rate fetcher's tagged state. table is set only in
// PhaseLoaded, or in PhaseFailed after a failed refresh of the same source
// code; err is set only in PhaseFailed.
type fetchState struct {
	phase Phase
	table *entities.RateTable
	err   error
}

func idle() fetchState {
	return fetchState{phase: PhaseIdle}
}

func loading() fetchState {
	return fetchState{phase: PhaseLoading}
}

func loaded(table *entities.RateTable) fetchState {
	return fetchState{phase: PhaseLoaded, table: table}
}

func failed(err error, kept *entities.RateTable) fetchState {
	return fetchState{phase: PhaseFailed, table: kept, err: err}
}

// Snapshot is a read-only copy of a widget's state.
type Snapshot struct {
	Amount       string
	From         string
	To           string
	Phase        Phase
	RateTable    *entities.RateTable
	Result       *entities.Conversion
	ErrorMessage string
	ErrorKind    entities.Kind
}

func (s Snapshot) IsLoading() bool {
	return s.Phase == PhaseLoading
}

// ShowResult reports whether the result region should be rendered. The
// loading, error and result regions are mutually exclusive.
func (s Snapshot) ShowResult() bool {
	return s.Result != nil && s.Phase != PhaseLoading && s.Phase != PhaseFailed
}

func (s Snapshot) FormattedResult() string {
	if s.Result == nil {
		return ""
	}
	return FormatResult(*s.Result)
}
