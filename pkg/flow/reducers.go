package flow

// Update is a partial state update produced by one node execution. Nil
// pointer fields mean "leave unchanged"; a pointer to the zero value means
// "replace with empty" (used to clear consumed human feedback).
type Update struct {
	Messages            []Message
	Variables           map[string]map[string]any
	CurrentAgent        *string
	IterationCount      int
	IntermediateResults []string
	HumanFeedback       *string
	FinalOutput         *string
	Metadata            map[string]any
}

// StringPtr is a convenience for the replace-merge fields of Update.
func StringPtr(s string) *string { return &s }

// Apply merges an update into the state, one named reducer per field.
func Apply(s *State, u Update) {
	mergeMessages(s, u.Messages)
	mergeVariables(s, u.Variables)
	if u.CurrentAgent != nil {
		s.CurrentAgent = *u.CurrentAgent
	}
	s.IterationCount += u.IterationCount
	s.IntermediateResults = append(s.IntermediateResults, u.IntermediateResults...)
	if u.HumanFeedback != nil {
		s.HumanFeedback = *u.HumanFeedback
	}
	if u.FinalOutput != nil {
		s.FinalOutput = *u.FinalOutput
	}
	mergeMetadata(s, u.Metadata)
}

// mergeMessages appends in order, skipping messages whose id is already
// present. Messages without an id are always appended.
func mergeMessages(s *State, msgs []Message) {
	if len(msgs) == 0 {
		return
	}
	seen := make(map[string]bool, len(s.Messages))
	for _, m := range s.Messages {
		if m.ID != "" {
			seen[m.ID] = true
		}
	}
	for _, m := range msgs {
		if m.ID != "" && seen[m.ID] {
			continue
		}
		s.Messages = append(s.Messages, m)
		if m.ID != "" {
			seen[m.ID] = true
		}
	}
}

// mergeVariables overwrites key-by-key within each node namespace. Keys in
// a namespace that the update does not mention survive; other namespaces
// are never touched.
func mergeVariables(s *State, vars map[string]map[string]any) {
	if len(vars) == 0 {
		return
	}
	if s.Variables == nil {
		s.Variables = map[string]map[string]any{}
	}
	for node, ns := range vars {
		dst, ok := s.Variables[node]
		if !ok {
			dst = make(map[string]any, len(ns))
			s.Variables[node] = dst
		}
		for k, v := range ns {
			dst[k] = v
		}
	}
}

func mergeMetadata(s *State, md map[string]any) {
	if len(md) == 0 {
		return
	}
	if s.Metadata == nil {
		s.Metadata = map[string]any{}
	}
	for k, v := range md {
		s.Metadata[k] = v
	}
}
