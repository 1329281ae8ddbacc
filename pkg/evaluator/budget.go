package evaluator

import (
	"fmt"

	"github.com/simplelang/simple/pkg/diagnostics"
)

// Budget holds the resource limits for a program execution. A nil field
// means unlimited.
type Budget struct {
	TimeMs   *int64
	MaxSteps *int64
}

// BudgetTracker tracks resource consumption during execution.
type BudgetTracker struct {
	Steps int64
}

// BudgetError reports that an execution ran out of budget.
type BudgetError struct {
	Message string
}

func (e *BudgetError) Error() string {
	return e.Message
}

// Code implements diagnostics.Coder.
func (e *BudgetError) Code() string {
	return diagnostics.EBudget
}

// Steps returns a step limit suitable for Budget.MaxSteps; zero or negative
// means unlimited.
func Steps(n int64) *int64 {
	if n <= 0 {
		return nil
	}
	return &n
}

// Millis returns a time limit suitable for Budget.TimeMs; zero or negative
// means unlimited.
func Millis(n int64) *int64 {
	return Steps(n)
}

func stepBudgetExceeded(max int64) error {
	return &BudgetError{Message: fmt.Sprintf("step budget exceeded (max %d)", max)}
}

func timeBudgetExceeded(ms int64) error {
	return &BudgetError{Message: fmt.Sprintf("time budget exceeded (%dms)", ms)}
}
