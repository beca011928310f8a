// Package search mirrors ranked matches into Elasticsearch so recruiters
// can query and filter shortlists outside the relational store. Indexing
// is optional infrastructure; when Elasticsearch is disabled the indexer
// is constructed around a nil client and every call is a no-op.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"talentmatch-workers/internal/common/database"
	"talentmatch-workers/internal/common/errors"
	"talentmatch-workers/internal/common/logger"
	"talentmatch-workers/internal/models"
)

const matchIndex = "ranked-matches"

// MatchDocument is the Elasticsearch representation of a ranked match.
type MatchDocument struct {
	PostingID      string    `json:"postingId"`
	PostingTitle   string    `json:"postingTitle"`
	CompanyName    string    `json:"companyName"`
	CandidateID    string    `json:"candidateId"`
	CandidateName  string    `json:"candidateName"`
	CandidateEmail string    `json:"candidateEmail"`
	OverallScore   float64   `json:"overallScore"`
	SkillsMatch    float64   `json:"skillsMatch"`
	MatchedSkills  []string  `json:"matchedSkills"`
	MissingSkills  []string  `json:"missingSkills"`
	Report         string    `json:"report"`
	Degraded       bool      `json:"aiDegraded"`
	IndexedAt      time.Time `json:"indexedAt"`
}

type Indexer struct {
	es     *database.ElasticsearchClient
	logger logger.Logger
}

// NewIndexer accepts a nil client when search is disabled.
func NewIndexer(es *database.ElasticsearchClient, log logger.Logger) *Indexer {
	return &Indexer{es: es, logger: log}
}

func (i *Indexer) Enabled() bool {
	return i.es != nil
}

// IndexMatches writes one document per ranked match. The document id is
// derived from posting and candidate so reruns overwrite instead of
// duplicating.
func (i *Indexer) IndexMatches(ctx context.Context, posting *models.JobPosting, matches []models.RankedMatch) error {
	if !i.Enabled() {
		return nil
	}

	for _, m := range matches {
		doc := MatchDocument{
			PostingID:      m.PostingID,
			PostingTitle:   posting.Title,
			CompanyName:    posting.CompanyName,
			CandidateID:    m.CandidateID,
			CandidateName:  m.CandidateName,
			CandidateEmail: m.CandidateEmail,
			OverallScore:   m.OverallScore,
			SkillsMatch:    m.SubScores.SkillsMatch,
			MatchedSkills:  m.MatchedSkills,
			MissingSkills:  m.MissingSkills,
			Report:         m.Report,
			Degraded:       m.AIAnalysis.Degraded,
			IndexedAt:      time.Now().UTC(),
		}

		payload, err := json.Marshal(doc)
		if err != nil {
			return errors.NewReportIndexFailedError(err)
		}

		docID := fmt.Sprintf("%s:%s", m.PostingID, m.CandidateID)
		res, err := i.es.Client.Index(
			matchIndex,
			bytes.NewReader(payload),
			i.es.Client.Index.WithDocumentID(docID),
			i.es.Client.Index.WithContext(ctx),
		)
		if err != nil {
			return errors.NewReportIndexFailedError(err)
		}
		res.Body.Close()

		if res.IsError() {
			return errors.NewReportIndexFailedError(fmt.Errorf("index request for %s returned %s", docID, res.Status()))
		}
	}

	i.logger.Info("ranked matches indexed", map[string]interface{}{
		"postingId": posting.ID,
		"count":     len(matches),
	})

	return nil
}
