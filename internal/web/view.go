package web

import (
	"time"

	"promanager/internal/model"
	"promanager/internal/perm"
	"promanager/internal/store"
)

type baseVM struct {
	Now        string
	ActorName  string
	ActorRole  string
	CanEdit    bool
	CanApprove bool
}

type taskVM struct {
	ID          string
	Title       string
	Description string
	ProjectName string
	DueDate     string
	Assignee    string
	Badge       string // "", "pending review", "approved", "rejected"
	BadgeClass  string
	Frozen      bool
	CanApprove  bool
}

type columnVM struct {
	Status model.Status
	Title  string
	Count  int
	Tasks  []taskVM
}

type projectVM struct {
	ID          string
	Name        string
	Description string
	Status      model.Status
	Shared      bool
	Progress    int
	TaskCount   int
}

type boardPageVM struct {
	Base     baseVM
	Columns  []columnVM
	Stats    store.Stats
	Projects []projectVM
}

type projectsPageVM struct {
	Base     baseVM
	Projects []projectVM
}

var columnTitles = map[model.Status]string{
	model.StatusPending:   "Pending",
	model.StatusProgress:  "In Progress",
	model.StatusCompleted: "Completed",
}

func (s *Server) base(actor *model.Profile) baseVM {
	vm := baseVM{
		Now:        time.Now().Format(time.RFC3339),
		CanEdit:    perm.CanEditTasks(actor),
		CanApprove: perm.CanApprove(actor),
	}
	if actor != nil {
		vm.ActorName = actor.Username
		if vm.ActorName == "" {
			vm.ActorName = actor.Email
		}
		vm.ActorRole = string(actor.Role)
	}
	return vm
}

func (s *Server) taskVM(actor *model.Profile, t model.Task) taskVM {
	vm := taskVM{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Frozen:      t.PendingReview(),
		CanApprove:  t.PendingReview() && perm.CanApprove(actor),
	}
	if t.ProjectID != nil {
		if p, ok := s.board.FindProject(*t.ProjectID); ok {
			vm.ProjectName = p.Name
		}
	}
	if t.AssignedTo != nil {
		vm.Assignee = s.board.ProfileName(*t.AssignedTo)
	}
	switch {
	case t.PendingReview():
		vm.Badge, vm.BadgeClass = "pending review", "pending"
	case t.Approved != nil && *t.Approved:
		vm.Badge, vm.BadgeClass = "approved", "approved"
	case t.Rejected():
		vm.Badge, vm.BadgeClass = "rejected", "rejected"
	}
	return vm
}

func (s *Server) boardVM(actor *model.Profile) boardPageVM {
	vm := boardPageVM{
		Base:  s.base(actor),
		Stats: s.board.Stats(),
	}
	for _, st := range []model.Status{model.StatusPending, model.StatusProgress, model.StatusCompleted} {
		col := columnVM{Status: st, Title: columnTitles[st]}
		for _, t := range s.board.TasksByStatus(st) {
			col.Tasks = append(col.Tasks, s.taskVM(actor, t))
		}
		col.Count = len(col.Tasks)
		vm.Columns = append(vm.Columns, col)
	}
	vm.Projects = s.projectVMs(actor)
	return vm
}

func (s *Server) projectVMs(actor *model.Profile) []projectVM {
	counts := map[string]int{}
	for _, t := range s.board.Tasks() {
		if t.ProjectID != nil {
			counts[*t.ProjectID]++
		}
	}
	var out []projectVM
	for _, p := range s.board.Projects() {
		out = append(out, projectVM{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Status:      p.Status,
			Shared:      p.IsShared,
			Progress:    s.board.Progress(p.ID),
			TaskCount:   counts[p.ID],
		})
	}
	return out
}

func (s *Server) projectsVM(actor *model.Profile) projectsPageVM {
	return projectsPageVM{
		Base:     s.base(actor),
		Projects: s.projectVMs(actor),
	}
}
