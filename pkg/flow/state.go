package flow

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Message is one entry in the conversation history.
type Message struct {
	ID      string `json:"id,omitempty"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewMessage returns a message with a fresh random id. Ids are what the
// message reducer dedups on, so every independently produced message needs
// its own.
func NewMessage(role, content string) Message {
	return Message{ID: newID(), Role: role, Content: content}
}

func newID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "msg-fallback"
	}
	return hex.EncodeToString(b[:])
}

// State is the shared execution state of one run. Node behaviors never
// mutate it directly; they return an Update that the engine merges via the
// per-field reducers in Apply.
type State struct {
	Messages            []Message                 `json:"messages"`
	Variables           map[string]map[string]any `json:"variables"`
	CurrentAgent        string                    `json:"current_agent"`
	IterationCount      int                       `json:"iteration_count"`
	IntermediateResults []string                  `json:"intermediate_results"`
	HumanFeedback       string                    `json:"human_feedback"`
	FinalOutput         string                    `json:"final_output"`
	Metadata            map[string]any            `json:"metadata"`
}

// NewState returns the fixed default state a run starts from.
func NewState() *State {
	return &State{
		Variables: map[string]map[string]any{},
		Metadata:  map[string]any{},
	}
}

// Clone deep-copies the state. Checkpoint stores snapshot through this so a
// persisted step can never observe later mutation.
func (s *State) Clone() *State {
	c := &State{
		Messages:            append([]Message(nil), s.Messages...),
		Variables:           make(map[string]map[string]any, len(s.Variables)),
		CurrentAgent:        s.CurrentAgent,
		IterationCount:      s.IterationCount,
		IntermediateResults: append([]string(nil), s.IntermediateResults...),
		HumanFeedback:       s.HumanFeedback,
		FinalOutput:         s.FinalOutput,
		Metadata:            make(map[string]any, len(s.Metadata)),
	}
	for node, ns := range s.Variables {
		cp := make(map[string]any, len(ns))
		for k, v := range ns {
			cp[k] = v
		}
		c.Variables[node] = cp
	}
	for k, v := range s.Metadata {
		c.Metadata[k] = v
	}
	return c
}

// Variable resolves a "nodeId.key" reference into the variable namespaces.
func (s *State) Variable(ref string) (any, bool) {
	node, key, ok := strings.Cut(ref, ".")
	if !ok {
		return nil, false
	}
	ns, ok := s.Variables[node]
	if !ok {
		return nil, false
	}
	v, ok := ns[key]
	return v, ok
}

// VarString resolves a "nodeId.key" reference to its string form, or ""
// when unset.
func (s *State) VarString(ref string) string {
	v, ok := s.Variable(ref)
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

// LastMessage returns the newest message, if any.
func (s *State) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
