package models

type State string

const (
	Init     State = "init"
	Thinking State = "thinking"
	Acting   State = "acting"
	Talked   State = "done-talk"
	Answered State = "done-answer"
	Failed   State = "failed" // dead state
	Finished State = "finished"
)

// Terminal reports whether no further kernel step follows s.
func (s State) Terminal() bool {
	switch s {
	case Talked, Answered, Failed, Finished:
		return true
	}
	return false
}
