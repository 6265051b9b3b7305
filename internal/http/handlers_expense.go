package http

import "net/http"

const expenseResource = "Expense"

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}
	filter, err := ParseExpenseFilter(r.URL.Query(), user)
	if err != nil {
		return err
	}

	page, err := s.expenses.ListExpenses(r.Context(), filter)
	if err != nil {
		return err
	}
	OK(page).Write(w)
	return nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}
	var req CreateExpenseRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	expense, err := req.toExpense()
	if err != nil {
		return err
	}

	created, err := s.expenses.CreateExpense(r.Context(), user, expense)
	if err != nil {
		return err
	}
	Created(created).Write(w)
	return nil
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, expenseResource)
	if err != nil {
		return err
	}

	expense, err := s.expenses.GetExpense(r.Context(), user, id)
	if err != nil {
		return err
	}
	OK(expense).Write(w)
	return nil
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, expenseResource)
	if err != nil {
		return err
	}
	var req UpdateExpenseRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}
	patch, err := req.toPatch()
	if err != nil {
		return err
	}

	updated, err := s.expenses.UpdateExpense(r.Context(), user, id, patch)
	if err != nil {
		return err
	}
	OK(updated).Write(w)
	return nil
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}
	id, err := pathID(r, expenseResource)
	if err != nil {
		return err
	}

	if err := s.expenses.DeleteExpense(r.Context(), user, id); err != nil {
		return err
	}
	NewJSONResponse().Message("Expense removed").Write(w)
	return nil
}

// handleExpenseStats serves the trend, category and summary aggregations for
// the requested timeframe.
func (s *Server) handleExpenseStats(w http.ResponseWriter, r *http.Request) error {
	user, err := principal(r)
	if err != nil {
		return err
	}
	tf, err := ParseTimeframe(r.URL.Query())
	if err != nil {
		return err
	}

	stats, err := s.expenses.ExpenseStats(r.Context(), user, tf)
	if err != nil {
		return err
	}
	OK(stats).Write(w)
	return nil
}
