package state

// StateMachine is stateless, it only computes which transitions are allowed.
type StateMachine struct {
	States      []State      `json:"states"`
	Transitions []Transition `json:"transitions"`
}

type State struct {
	Name string `json:"name"`
	// Terminal states are settled until an explicit transition moves them back.
	Terminal bool `json:"terminal"`
}

type Transition struct {
	Name string `json:"name"`
	From State  `json:"from"`
	To   State  `json:"to"`
}

func NewStateMachine(states []State, transitions []Transition) *StateMachine {
	return &StateMachine{States: states, Transitions: transitions}
}

// AvailableTransitions lists transitions matching fromState and toState, empty names match any state.
func (sm *StateMachine) AvailableTransitions(fromState string, toState string) []Transition {
	r := []Transition{}
	for _, transition := range sm.Transitions {
		if (fromState == "" || fromState == transition.From.Name) && (toState == "" || toState == transition.To.Name) {
			r = append(r, transition)
		}
	}
	return r
}

// Fire finds the transition named action leaving fromState.
func (sm *StateMachine) Fire(fromState string, action string) (*Transition, bool) {
	for _, transition := range sm.Transitions {
		if transition.From.Name == fromState && transition.Name == action {
			t := transition
			return &t, true
		}
	}
	return nil, false
}

func (sm *StateMachine) State(name string) (State, bool) {
	for _, s := range sm.States {
		if s.Name == name {
			return s, true
		}
	}
	return State{}, false
}
