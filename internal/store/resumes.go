// internal/store/resumes.go
package store

import (
	"context"

	"talentmatch-workers/internal/common/errors"
	"talentmatch-workers/internal/models"
)

// GetResumeBytes fetches the raw resume file for a stored resume document
// from the object store.
func (s *Store) GetResumeBytes(ctx context.Context, doc *models.ResumeDocument) ([]byte, error) {
	data, err := s.objects.GetObject(ctx, doc.ObjectKey)
	if err != nil {
		return nil, errors.NewResumeFetchFailedError(doc.CandidateID, err)
	}
	return data, nil
}
