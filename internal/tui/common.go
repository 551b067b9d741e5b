package tui

import (
	"promanager/internal/model"
)

type viewState int

const (
	viewLogin viewState = iota
	viewBoard
	viewProjects
	viewReports
	viewAgenda
)

var viewNames = []string{"", "Board", "Projects", "Reports", "Agenda"}

// --- Messages ---

type signedInMsg struct{}

type boardChangedMsg struct{}

type statusMsg struct {
	text    string
	isError bool
}

type taskMutatedMsg struct {
	task model.Task
	verb string
}

type formDoneMsg struct{}
type formCancelMsg struct{}

type errMsg struct {
	err error
}

// --- Helpers ---

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
