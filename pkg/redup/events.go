package redup

import "time"

// Stage identifies which phase of the pipeline emitted an event.
type Stage string

const (
	StageAcquire  Stage = "acquire"
	StageEvaluate Stage = "evaluate"
	StageDiscover Stage = "discover"
	StageEnrich   Stage = "enrich"
)

// Event describes one acquisition or evaluation step. The surrounding
// application wires a Hook to its own logging or snapshot archive; the
// engine itself never prints.
type Event struct {
	Err       error
	Community string
	Stage     Stage
	Strategy  string // acquisition strategy name, when relevant
	RuleCount int
	Duration  time.Duration
}

// Hook receives pipeline events. A nil Hook is always safe to call
// through Emit.
type Hook func(Event)

// Emit invokes the hook if one is set.
func (h Hook) Emit(ev Event) {
	if h != nil {
		h(ev)
	}
}
