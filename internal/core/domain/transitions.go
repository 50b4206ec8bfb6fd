package domain

// Action is a lifecycle trigger applied to a single booking
type Action string

const (
	ActionStart    Action = "start"
	ActionPriority Action = "priority"
	ActionSkip     Action = "skip"
	ActionUndoSkip Action = "undo-skip"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
	ActionNoShow   Action = "no-show"
)

var transitionMap = map[Action][]BookingStatus{
	ActionStart:    {StatusPending},
	ActionPriority: {StatusPending},
	ActionSkip:     {StatusPending},
	ActionUndoSkip: {StatusSkipped},
	ActionComplete: {StatusInProgress},
	ActionCancel:   {StatusPending, StatusInProgress, StatusSkipped},
	ActionNoShow:   {StatusPending},
}

var transitionTarget = map[Action]BookingStatus{
	ActionStart:    StatusInProgress,
	ActionPriority: StatusInProgress,
	ActionSkip:     StatusSkipped,
	ActionUndoSkip: StatusPending,
	ActionComplete: StatusCompleted,
	ActionCancel:   StatusCancelled,
	ActionNoShow:   StatusNoShow,
}

// AllowedFrom returns the statuses an action may be applied to
func AllowedFrom(action Action) []BookingStatus {
	return transitionMap[action]
}

// TargetOf returns the status a booking ends in after action
func TargetOf(action Action) BookingStatus {
	return transitionTarget[action]
}

// ValidTransition reports whether action may be applied to a booking in status from
func ValidTransition(action Action, from BookingStatus) bool {
	for _, status := range transitionMap[action] {
		if status == from {
			return true
		}
	}
	return false
}
