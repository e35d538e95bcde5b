// Package states implements the application run-state machine and the
// lifecycle of the feature that owns each state.
package states

import (
	"fmt"
	"strings"
)

// State is one of the application run-states.
type State int

const (
	// Incept exists only before the first transition.
	Incept State = iota
	Lobby
	Initializing
	Playing
	Paused
	End
)

var stateNames = [...]string{
	Incept:       "incept",
	Lobby:        "lobby",
	Initializing: "initializing",
	Playing:      "playing",
	Paused:       "paused",
	End:          "end",
}

// Managed lists the states that own a feature, in declaration order.
var Managed = []State{Lobby, Initializing, Playing, Paused, End}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// ParseState resolves a state by name, case-insensitively.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if strings.EqualFold(n, name) {
			return State(i), nil
		}
	}
	return Incept, fmt.Errorf("%w: %q", ErrUnknownState, name)
}

// Transition names a request to move between states.
type Transition string

const (
	TransitionLobby   Transition = "lobby"
	TransitionInit    Transition = "init"
	TransitionPlay    Transition = "play"
	TransitionPause   Transition = "pause"
	TransitionUnpause Transition = "unpause"
	TransitionEnd     Transition = "end"
)

// Transitions is the full transition alphabet.
var Transitions = []Transition{
	TransitionLobby,
	TransitionInit,
	TransitionPlay,
	TransitionPause,
	TransitionUnpause,
	TransitionEnd,
}

// ParseTransition validates a transition name.
func ParseTransition(name string) (Transition, error) {
	for _, t := range Transitions {
		if string(t) == strings.ToLower(name) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTransition, name)
}

type edge struct {
	from State
	name Transition
}

// route is where a transition leads. A non-empty chain is fired from the
// target state once it has been entered.
type route struct {
	to    State
	chain Transition
}

// table holds every real handler. Pairs missing here are no-ops.
var table = map[edge]route{
	{Incept, TransitionLobby}: {to: Lobby},

	{Lobby, TransitionPlay}: {to: Initializing, chain: TransitionPlay},
	{Lobby, TransitionInit}: {to: Initializing},

	{Initializing, TransitionPlay}: {to: Playing},

	{Playing, TransitionPause}: {to: Paused},
	{Playing, TransitionEnd}:   {to: End},

	{Paused, TransitionPlay}:    {to: Playing},
	{Paused, TransitionUnpause}: {to: Playing},
	{Paused, TransitionEnd}:     {to: End},

	{End, TransitionLobby}: {to: Lobby},
	{End, TransitionPlay}:  {to: Initializing, chain: TransitionPlay},
	{End, TransitionInit}:  {to: Initializing},
}

// Route looks up the transition table. ok is false for no-op pairs.
func Route(from State, name Transition) (to State, chain Transition, ok bool) {
	r, ok := table[edge{from, name}]
	return r.to, r.chain, ok
}
