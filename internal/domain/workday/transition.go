package workday

// CanTransition reports whether the engine may move a summary from one status to another.
// Re-applying the current status is allowed so flag updates can ride on it.
// Returning to OK is a human review action and is never taken here.
func CanTransition(from, to ResolutionStatus) bool {
	if from == "" {
		from = ResolutionStatusOK
	}
	switch to {
	case ResolutionStatusUnresolvedMissingClockOut:
		return from == ResolutionStatusOK || from == ResolutionStatusUnresolvedMissingClockOut
	case ResolutionStatusAutoClosedSafety:
		return from == ResolutionStatusOK ||
			from == ResolutionStatusUnresolvedMissingClockOut ||
			from == ResolutionStatusAutoClosedSafety
	default:
		return false
	}
}
