// internal/models/candidate.go
package models

import "time"

type Candidate struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ResumeDocument is the metadata row for an uploaded resume. The raw bytes
// live in object storage under ObjectKey.
type ResumeDocument struct {
	ID          string    `json:"id" db:"id"`
	CandidateID string    `json:"candidateId" db:"candidate_id"`
	ObjectKey   string    `json:"objectKey" db:"object_key"`
	FileName    string    `json:"fileName" db:"file_name"`
	ContentType string    `json:"contentType" db:"content_type"`
	SizeBytes   int64     `json:"sizeBytes" db:"size_bytes"`
	UploadedAt  time.Time `json:"uploadedAt" db:"uploaded_at"`
}

// CandidateFeatures holds the structured fields parsed out of resume text.
type CandidateFeatures struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Skills          []string `json:"skills"`
	ExperienceYears float64  `json:"experienceYears"`
	RawText         string   `json:"-"`
}
