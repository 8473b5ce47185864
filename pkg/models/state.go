package models

type Phase string

const (
	Planning         Phase = "planning"
	Executing        Phase = "executing"
	Reviewing        Phase = "reviewing"
	Refining         Phase = "refining"
	ContinuingSearch Phase = "continuing_search"
	Finalizing       Phase = "finalizing"
	Terminal         Phase = "terminal"
	Failed           Phase = "failed" // dead state
)
