// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"talentmatch-workers/internal/common/errors"
	"talentmatch-workers/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// GetPosting loads a job posting by id.
func (s *Store) GetPosting(ctx context.Context, postingID string) (*models.JobPosting, error) {
	query := `
		SELECT id, title, company_name, description, required_skills, preferred_skills,
		       experience_level, COALESCE(max_candidates, 0), status, recruiter_id,
		       created_at, expires_at
		FROM job_postings
		WHERE id = $1`

	var p models.JobPosting
	err := s.db.QueryRowContext(ctx, query, postingID).Scan(
		&p.ID, &p.Title, &p.CompanyName, &p.Description,
		pq.Array(&p.RequiredSkills), pq.Array(&p.PreferredSkills),
		&p.ExperienceLevel, &p.MaxCandidates, &p.Status, &p.RecruiterID, &p.CreatedAt, &p.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewPostingNotFoundError(postingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query posting %s: %w", postingID, err)
	}

	return &p, nil
}

// GetRecruiter loads the recruiter owning a posting.
func (s *Store) GetRecruiter(ctx context.Context, recruiterID string) (*models.Recruiter, error) {
	query := `SELECT id, name, email FROM recruiters WHERE id = $1`

	var r models.Recruiter
	err := s.db.QueryRowContext(ctx, query, recruiterID).Scan(&r.ID, &r.Name, &r.Email)
	if err == sql.ErrNoRows {
		return nil, errors.NewResourceNotFoundError("postgres", fmt.Sprintf("recruiter %s not found", recruiterID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query recruiter %s: %w", recruiterID, err)
	}

	return &r, nil
}

// ListApplications returns every application for a posting, oldest first.
// The applied_at ordering is what breaks score ties downstream.
func (s *Store) ListApplications(ctx context.Context, postingID string) ([]models.Application, error) {
	query := `
		SELECT id, posting_id, candidate_id, status, applied_at
		FROM applications
		WHERE posting_id = $1
		ORDER BY applied_at ASC, candidate_id ASC`

	rows, err := s.db.QueryContext(ctx, query, postingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications for posting %s: %w", postingID, err)
	}
	defer rows.Close()

	var apps []models.Application
	for rows.Next() {
		var a models.Application
		if err := rows.Scan(&a.ID, &a.PostingID, &a.CandidateID, &a.Status, &a.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application row: %w", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("application rows error: %w", err)
	}

	return apps, nil
}

// GetLatestResume returns the most recently uploaded resume metadata for a
// candidate, or nil when the candidate has never uploaded one.
func (s *Store) GetLatestResume(ctx context.Context, candidateID string) (*models.ResumeDocument, error) {
	query := `
		SELECT id, candidate_id, object_key, file_name, content_type, size_bytes, uploaded_at
		FROM resume_documents
		WHERE candidate_id = $1
		ORDER BY uploaded_at DESC
		LIMIT 1`

	var d models.ResumeDocument
	err := s.db.QueryRowContext(ctx, query, candidateID).Scan(
		&d.ID, &d.CandidateID, &d.ObjectKey, &d.FileName, &d.ContentType, &d.SizeBytes, &d.UploadedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query resume for candidate %s: %w", candidateID, err)
	}

	return &d, nil
}

// UpdatePostingStatus moves a posting to a new lifecycle status.
func (s *Store) UpdatePostingStatus(ctx context.Context, postingID, status string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE job_postings SET status = $1 WHERE id = $2`, status, postingID)
	if err != nil {
		return fmt.Errorf("failed to update posting %s status: %w", postingID, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return errors.NewPostingNotFoundError(postingID)
	}

	return nil
}

// RebuildMatches replaces all ranked matches for a posting in a single
// transaction. Delete-before-insert makes reruns idempotent and keeps the
// (posting, candidate) uniqueness invariant without upsert juggling.
func (s *Store) RebuildMatches(ctx context.Context, postingID string, matches []models.RankedMatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewMatchRebuildFailedError(postingID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM ranked_matches WHERE posting_id = $1`, postingID); err != nil {
		return errors.NewMatchRebuildFailedError(postingID, err)
	}

	insert := `
		INSERT INTO ranked_matches (
			id, posting_id, candidate_id, candidate_name, candidate_email,
			overall_score, skills_match, experience_match, text_similarity,
			ai_score, education_match, matched_skills, missing_skills,
			ai_analysis, report, applied_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	for _, m := range matches {
		id := m.ID
		if id == "" {
			id = uuid.New().String()
		}

		analysisJSON, err := json.Marshal(m.AIAnalysis)
		if err != nil {
			return errors.NewMatchRebuildFailedError(postingID, err)
		}

		if _, err := tx.ExecContext(ctx, insert,
			id, m.PostingID, m.CandidateID, m.CandidateName, m.CandidateEmail,
			m.OverallScore, m.SubScores.SkillsMatch, m.SubScores.ExperienceMatch,
			m.SubScores.TextSimilarity, m.SubScores.AIScore, m.SubScores.EducationMatch,
			pq.Array(m.MatchedSkills), pq.Array(m.MissingSkills),
			analysisJSON, m.Report, m.AppliedAt, m.CreatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return errors.NewDuplicateResultError(postingID, m.CandidateID)
			}
			return errors.NewMatchRebuildFailedError(postingID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewMatchRebuildFailedError(postingID, err)
	}

	s.logger.Info("ranked matches rebuilt", map[string]interface{}{
		"postingId":  postingID,
		"matchCount": len(matches),
	})

	return nil
}

// isUniqueViolation reports a postgres unique constraint failure, which on
// ranked_matches means a duplicate (posting, candidate) row.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == "23505"
}

// ListMatches returns the stored ranking for a posting, highest score first.
func (s *Store) ListMatches(ctx context.Context, postingID string) ([]models.RankedMatch, error) {
	query := `
		SELECT id, posting_id, candidate_id, candidate_name, candidate_email,
		       overall_score, skills_match, experience_match, text_similarity,
		       ai_score, education_match, matched_skills, missing_skills,
		       ai_analysis, report, applied_at, created_at
		FROM ranked_matches
		WHERE posting_id = $1
		ORDER BY overall_score DESC, applied_at ASC, candidate_id ASC`

	rows, err := s.db.QueryContext(ctx, query, postingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for posting %s: %w", postingID, err)
	}
	defer rows.Close()

	var matches []models.RankedMatch
	for rows.Next() {
		var m models.RankedMatch
		var analysisJSON []byte
		if err := rows.Scan(
			&m.ID, &m.PostingID, &m.CandidateID, &m.CandidateName, &m.CandidateEmail,
			&m.OverallScore, &m.SubScores.SkillsMatch, &m.SubScores.ExperienceMatch,
			&m.SubScores.TextSimilarity, &m.SubScores.AIScore, &m.SubScores.EducationMatch,
			pq.Array(&m.MatchedSkills), pq.Array(&m.MissingSkills),
			&analysisJSON, &m.Report, &m.AppliedAt, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}

		if len(analysisJSON) > 0 {
			if err := json.Unmarshal(analysisJSON, &m.AIAnalysis); err != nil {
				return nil, fmt.Errorf("failed to decode ai analysis for match %s: %w", m.ID, err)
			}
		}

		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("match rows error: %w", err)
	}

	return matches, nil
}
