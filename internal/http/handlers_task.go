package http

import "net/http"

const taskResource = "Task"

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}
	filter, err := ParseTaskFilter(r.URL.Query(), user)
	if err != nil {
		return err
	}

	tasks, err := s.tasks.ListTasks(r.Context(), filter)
	if err != nil {
		return err
	}
	OK(tasks).Write(w)
	return nil
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}
	var req CreateTaskRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	task, err := req.toTask()
	if err != nil {
		return err
	}

	created, err := s.tasks.CreateTask(r.Context(), user, task)
	if err != nil {
		return err
	}
	Created(created).Write(w)
	return nil
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, taskResource)
	if err != nil {
		return err
	}

	task, err := s.tasks.GetTask(r.Context(), user, id)
	if err != nil {
		return err
	}
	OK(task).Write(w)
	return nil
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, taskResource)
	if err != nil {
		return err
	}
	var req UpdateTaskRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	patch, err := req.toPatch()
	if err != nil {
		return err
	}

	updated, err := s.tasks.UpdateTask(r.Context(), user, id, patch)
	if err != nil {
		return err
	}
	OK(updated).Write(w)
	return nil
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, taskResource)
	if err != nil {
		return err
	}

	if err := s.tasks.DeleteTask(r.Context(), user, id); err != nil {
		return err
	}
	NewJSONResponse().Message("Task removed").Write(w)
	return nil
}

func (s *Server) handleTasksSummary(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}

	overview, err := s.tasks.TasksSummary(r.Context(), user)
	if err != nil {
		return err
	}
	OK(overview).Write(w)
	return nil
}
