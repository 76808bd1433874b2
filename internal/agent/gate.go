package agent

import (
	"fmt"

	"github.com/apotek/apotek/internal/session"
	"github.com/apotek/apotek/internal/tools"
)

// userScopedTools operate on a specific customer and need a resolved user
// ID before they run.
var userScopedTools = map[string]bool{
	tools.ToolUserPrescriptions: true,
	tools.ToolEligibility:       true,
	tools.ToolCheckAllergy:      true,
	tools.ToolReserveMedication: true,
}

// checkPreconditions applies the safety gate to a validated tool call.
// A non-nil result is a rejection: the call does not execute, and the
// rejection is reported back to the model so it can recover (usually by
// asking the customer for missing information or running the required
// check first).
//
// The gate never rejects based on schema; Validate ran already. It rejects
// on conversation-state grounds only.
func checkPreconditions(state *session.State, name string, args map[string]any) *tools.Result {
	if userScopedTools[name] {
		userID := stringArg(args, "user_id")
		if userID == "" && state.UserID == "" {
			return rejection("user_not_resolved",
				fmt.Sprintf("%s needs a customer user ID and none is known yet; ask the customer for their user ID before calling it", name))
		}
	}

	if name == tools.ToolReserveMedication {
		userID := effectiveUserID(state, args)
		medication := stringArg(args, "medication_name")
		if !state.Cleared(userID, medication) {
			return rejection("allergy_check_required",
				fmt.Sprintf("reserve_medication for %q requires a passed check_allergy for this customer and medication first; call check_allergy, then retry the reservation", medication))
		}
	}

	return nil
}

// observeResult updates conversation state from a successful tool result.
// A user ID used in a successful user-scoped call becomes the resolved
// customer (a correction overwrites); a passed allergy check grants the
// clearance reserve_medication depends on.
func observeResult(state *session.State, name string, args map[string]any, result tools.Result) {
	if result.Status != tools.StatusSuccess {
		return
	}

	if userScopedTools[name] {
		if userID := stringArg(args, "user_id"); userID != "" {
			state.UserID = userID
		}
	}

	if name == tools.ToolCheckAllergy {
		if safe, found := result.Data["safe"].(bool); found && safe {
			state.GrantClearance(effectiveUserID(state, args), stringArg(args, "medication_name"))
		}
	}
}

// effectiveUserID prefers the user ID in the call, falling back to the
// resolved one.
func effectiveUserID(state *session.State, args map[string]any) string {
	if userID := stringArg(args, "user_id"); userID != "" {
		return userID
	}
	return state.UserID
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// rejection builds the structured refusal appended to the working history
// as the tool's response.
func rejection(code, message string) *tools.Result {
	return &tools.Result{
		Status: tools.StatusError,
		Error:  &tools.Error{Code: code, Message: message},
	}
}
