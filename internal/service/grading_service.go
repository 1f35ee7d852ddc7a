package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"markbench/internal/config"
	"markbench/internal/domain"
	"markbench/internal/grading"
	"markbench/internal/port"
)

// BatchRequest describes one batch grading job.
type BatchRequest struct {
	Submissions    []domain.Submission
	AssignmentSpec string
	Rubric         string
	AssignmentRef  string
	RubricRef      string
	MaxCost        float64
}

// GradingService orchestrates batch grading, persistence, and archival.
type GradingService interface {
	GradeBatch(ctx context.Context, req BatchRequest) (*domain.SessionDocument, error)
	SessionResults(ctx context.Context, sessionID uuid.UUID) ([]domain.SubmissionResult, error)
	SessionSummary() domain.SessionSummary
}

type gradingService struct {
	engine  *grading.Engine
	repo    port.ResultRepository
	storage port.ObjectStorage
	s3cfg   *config.S3Config
}

// NewGradingService creates a GradingService. storage may be nil, which
// disables session archiving.
func NewGradingService(engine *grading.Engine, repo port.ResultRepository, storage port.ObjectStorage, s3cfg *config.S3Config) GradingService {
	return &gradingService{
		engine:  engine,
		repo:    repo,
		storage: storage,
		s3cfg:   s3cfg,
	}
}

// GradeBatch grades every submission in the request, persists the results
// under a fresh session ID, and archives the full session document. A
// submission whose runs all fail still yields a complete result; persistence
// and archive failures are logged and do not abort the batch.
func (s *gradingService) GradeBatch(ctx context.Context, req BatchRequest) (*domain.SessionDocument, error) {
	if len(req.Submissions) == 0 {
		return nil, fmt.Errorf("batch request has no submissions")
	}

	sessionID := uuid.New()
	log.Printf("gradingService: session %s grading %d submissions", sessionID, len(req.Submissions))

	// Deterministic processing order.
	subs := append([]domain.Submission(nil), req.Submissions...)
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmissionID < subs[j].SubmissionID })

	results := make(map[string]domain.SubmissionResult, len(subs))
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			log.Printf("gradingService: session %s canceled after %d submissions", sessionID, len(results))
			break
		}

		res := s.engine.GradeSubmission(ctx, sub, req.AssignmentSpec, req.Rubric, req.MaxCost)
		results[sub.SubmissionID] = *res

		if err := s.repo.Save(ctx, sessionID, res); err != nil {
			log.Printf("gradingService: saving result for %s: %v", sub.SubmissionID, err)
		}
	}

	engineCfg := s.engine.Config()
	doc := &domain.SessionDocument{
		Session: domain.SessionHeader{
			SessionID:        sessionID,
			Timestamp:        time.Now(),
			TotalSubmissions: len(results),
			Mode:             "enhanced",
			AssignmentRef:    req.AssignmentRef,
			RubricRef:        req.RubricRef,
			Config: domain.ConfigEcho{
				Graders:       len(engineCfg.Graders),
				RunsPerGrader: engineCfg.RunsPerGrader,
				Estimator:     engineCfg.Estimator,
			},
		},
		Results: results,
	}

	s.archive(ctx, doc)
	return doc, nil
}

// archive uploads the session document as JSON to the configured bucket.
func (s *gradingService) archive(ctx context.Context, doc *domain.SessionDocument) {
	if s.storage == nil || s.s3cfg == nil || s.s3cfg.Bucket == "" {
		return
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		log.Printf("gradingService: marshaling session document: %v", err)
		return
	}

	key := fmt.Sprintf("%s/%s.json", s.s3cfg.Prefix, doc.Session.SessionID)
	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(payload),
		ContentType: "application/json",
		Size:        int64(len(payload)),
	})
	if err != nil {
		log.Printf("gradingService: archiving session %s: %v", doc.Session.SessionID, err)
		return
	}
	log.Printf("gradingService: session %s archived to s3://%s/%s", doc.Session.SessionID, s.s3cfg.Bucket, key)
}

func (s *gradingService) SessionResults(ctx context.Context, sessionID uuid.UUID) ([]domain.SubmissionResult, error) {
	return s.repo.ListBySession(ctx, sessionID)
}

func (s *gradingService) SessionSummary() domain.SessionSummary {
	return s.engine.SessionSummary()
}
