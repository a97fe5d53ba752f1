package flow

import "errors"

var (
	// ErrNoStartNode is returned at compile time when the spec declares no
	// start node. The run never begins.
	ErrNoStartNode = errors.New("flow: workflow has no start node")

	// ErrNodeNotFound is returned when an edge or router references a node
	// id that does not exist in the graph.
	ErrNodeNotFound = errors.New("flow: node not found")

	// ErrUnknownTarget is returned at compile time when a router is
	// configured with a target id that is not a declared edge target.
	ErrUnknownTarget = errors.New("flow: router references undeclared target")

	// ErrBadRoute is returned at run time when a router picks an id that
	// was not registered against it. The run fails.
	ErrBadRoute = errors.New("flow: router returned unregistered target")

	// ErrStepBound is returned when a run exceeds its computed step bound.
	// Distinguishes runaway graphs from legitimate bounded cycles.
	ErrStepBound = errors.New("flow: step bound exceeded")

	// ErrNoCheckpoint is returned when a thread id has no stored history.
	ErrNoCheckpoint = errors.New("flow: no checkpoint for thread")

	// ErrNotSuspended is returned by Resume when the latest checkpoint has
	// no pending node waiting for input.
	ErrNotSuspended = errors.New("flow: run is not suspended")
)
