package memory

// projectTurns builds the downstream-facing view of a session: the rolling
// summary first as a single RoleSummary entry, then the retained messages
// in append order with timestamps stripped. An empty record projects to an
// empty sequence.
func projectTurns(summary string, msgs []Message) []Turn {
	if summary == "" && len(msgs) == 0 {
		return nil
	}

	turns := make([]Turn, 0, len(msgs)+1)
	if summary != "" {
		turns = append(turns, Turn{Role: RoleSummary, Content: summary})
	}
	for _, m := range msgs {
		turns = append(turns, Turn{Role: m.Role, Content: m.Content})
	}
	return turns
}
