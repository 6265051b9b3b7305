package http

import "net/http"

const goalResource = "Saving goal"

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}
	filter, err := ParseGoalFilter(r.URL.Query(), user)
	if err != nil {
		return err
	}

	goals, err := s.goals.ListGoals(r.Context(), filter)
	if err != nil {
		return err
	}
	OK(goals).Write(w)
	return nil
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}
	var req CreateGoalRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	goal, err := req.toGoal()
	if err != nil {
		return err
	}

	created, err := s.goals.CreateGoal(r.Context(), user, goal)
	if err != nil {
		return err
	}
	Created(created).Write(w)
	return nil
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, goalResource)
	if err != nil {
		return err
	}

	goal, err := s.goals.GetGoal(r.Context(), user, id)
	if err != nil {
		return err
	}
	OK(goal).Write(w)
	return nil
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, goalResource)
	if err != nil {
		return err
	}
	var req UpdateGoalRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	patch, err := req.toPatch()
	if err != nil {
		return err
	}

	updated, err := s.goals.UpdateGoal(r.Context(), user, id, patch)
	if err != nil {
		return err
	}
	OK(updated).Write(w)
	return nil
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, goalResource)
	if err != nil {
		return err
	}

	if err := s.goals.DeleteGoal(r.Context(), user, id); err != nil {
		return err
	}
	NewJSONResponse().Message("Saving goal removed").Write(w)
	return nil
}

// handleGoalsSummary serves the goal totals and the deadlines coming up in
// the next 30 days.
func (s *Server) handleGoalsSummary(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}

	overview, err := s.goals.GoalsSummary(r.Context(), user)
	if err != nil {
		return err
	}
	OK(overview).Write(w)
	return nil
}
