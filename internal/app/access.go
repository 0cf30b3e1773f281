package app

import "quizmaker-service/internal/domain"

// Authorize is the single ownership check shared by quiz mutation and attempt reads.
func Authorize(callerID, ownerID string) error {
	if callerID == "" {
		return domain.ErrUnauthenticated
	}
	if callerID != ownerID {
		return domain.ErrForbidden
	}
	return nil
}
