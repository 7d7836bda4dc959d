package csvstory

import "slices"

// Session is the process-lifetime memory of the most recent sequence
// artifact. Only the Workbench writes it: a successful sequence generation
// overwrites it and a file change clears it.
type Session struct {
	SeqPaths    []string
	SeqCaptions []string
}

// Store overwrites the session with the artifact's images and captions.
func (s *Session) Store(a *Artifact) {
	if a == nil {
		s.Reset()
		return
	}
	s.SeqPaths = slices.Clone(a.Images)
	s.SeqCaptions = slices.Clone(a.Captions)
}

// Reset clears the session.
func (s *Session) Reset() {
	s.SeqPaths = []string{}
	s.SeqCaptions = []string{}
}

// Empty reports whether no sequence is remembered.
func (s Session) Empty() bool {
	return len(s.SeqPaths) == 0
}

func (s Session) clone() Session {
	return Session{
		SeqPaths:    slices.Clone(s.SeqPaths),
		SeqCaptions: slices.Clone(s.SeqCaptions),
	}
}
