package scheduler

import "fmt"

// State é a posição de um job na máquina de estados do despacho.
type State int32

const (
	StateQueued State = iota
	StateAdmitted
	StateExecuting
	StateRetrying
	StateSucceeded
	StateFailed
)

var stateNames = [...]string{
	StateQueued:    "queued",
	StateAdmitted:  "admitted",
	StateExecuting: "executing",
	StateRetrying:  "retrying",
	StateSucceeded: "succeeded",
	StateFailed:    "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int32(s))
	}
	return stateNames[s]
}

// Terminal indica estados sem saída.
func (s State) Terminal() bool { return s == StateSucceeded || s == StateFailed }

// Queued → Admitted → Executing → {Succeeded | Retrying → Queued | Failed}.
// Queued → Failed cobre jobs descartados pelo Close.
var transitions = map[State][]State{
	StateQueued:    {StateAdmitted, StateFailed},
	StateAdmitted:  {StateExecuting},
	StateExecuting: {StateSucceeded, StateRetrying, StateFailed},
	StateRetrying:  {StateQueued, StateFailed},
}

// CanTransition informa se from → to é uma aresta válida.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
