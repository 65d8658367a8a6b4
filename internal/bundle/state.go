package bundle

// phase is the tag of the parser state.
type phase int

const (
	scanning phase = iota
	inExplicitBlock
	inHeuristicBlock
)

func (p phase) String() string {
	switch p {
	case inExplicitBlock:
		return "explicit"
	case inHeuristicBlock:
		return "heuristic"
	default:
		return "scanning"
	}
}

// openRecord is the record being accumulated.
type openRecord struct {
	path   string
	source Source
	line   int
	lines  []string
}

// parseState is the parser state between lines. The zero value is scanning.
type parseState struct {
	phase phase
	open  *openRecord
	// inFence is set inside a markdown fence of a heuristic block.
	inFence bool
	// expectFence marks the line right after a narration line, which is either
	// an opening fence or the first content line.
	expectFence bool
}

// actionKind says what the caller must do after a transition.
type actionKind int

const (
	// actNone: the line was consumed into the state.
	actNone actionKind = iota
	// actFinalize: Record was closed by an end marker.
	actFinalize
	// actForceFinalize: Record was closed because a new start appeared first.
	actForceFinalize
	// actIgnore: the line was inter-file noise.
	actIgnore
)

// action is the side effect of one transition.
type action struct {
	Kind   actionKind
	Record *openRecord
}

// step is the parser transition function. lineNo is 1-based and only used to
// tag newly opened records.
func step(s parseState, line string, lineNo int) (parseState, action) {
	switch s.phase {
	case inExplicitBlock:
		if matchEnd(line) {
			return parseState{}, action{Kind: actFinalize, Record: s.open}
		}
		if path, src, ok := matchStart(line); ok {
			next := parseState{phase: inExplicitBlock, open: &openRecord{path: path, source: src, line: lineNo}}
			return next, action{Kind: actForceFinalize, Record: s.open}
		}
		s.open.lines = append(s.open.lines, line)
		return s, action{}

	case inHeuristicBlock:
		if s.expectFence {
			s.expectFence = false
			if isFence(line) {
				s.inFence = true
			} else {
				s.open.lines = append(s.open.lines, line)
			}
			return s, action{}
		}
		if next, ok := startState(line, lineNo); ok {
			return next, action{Kind: actForceFinalize, Record: s.open}
		}
		if isFence(line) {
			s.inFence = !s.inFence
			return s, action{}
		}
		s.open.lines = append(s.open.lines, line)
		return s, action{}

	default:
		if next, ok := startState(line, lineNo); ok {
			return next, action{}
		}
		return parseState{}, action{Kind: actIgnore}
	}
}

// startState returns the state opened by line if it is an explicit start
// marker or a narration line.
func startState(line string, lineNo int) (parseState, bool) {
	if path, src, ok := matchStart(line); ok {
		return parseState{phase: inExplicitBlock, open: &openRecord{path: path, source: src, line: lineNo}}, true
	}
	if path, ok := matchNarration(line); ok {
		return parseState{
			phase:       inHeuristicBlock,
			open:        &openRecord{path: path, source: SourceHeuristic, line: lineNo},
			expectFence: true,
		}, true
	}
	return parseState{}, false
}

// openPath reports the path of the record being accumulated, if any.
func (s parseState) openPath() (string, bool) {
	if s.open == nil {
		return "", false
	}
	return s.open.path, true
}
