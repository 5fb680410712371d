package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/robfig/cron/v3"
)

// LifecycleScheduler polls the scheduled-jobs table and ends auctions whose
// end time has passed. The sweep runs on the elected leader only.
type LifecycleScheduler struct {
	cron       *cron.Cron
	repo       domain.SchedulerRepository
	auctionSvc *AuctionService
	leader     domain.LeaderElection
	instanceID string
	interval   time.Duration
	log        logger.Logger
}

func NewLifecycleScheduler(
	repo domain.SchedulerRepository,
	auctionSvc *AuctionService,
	leader domain.LeaderElection,
	instanceID string,
	interval time.Duration,
	log logger.Logger,
) *LifecycleScheduler {
	return &LifecycleScheduler{
		cron:       cron.New(cron.WithSeconds()),
		repo:       repo,
		auctionSvc: auctionSvc,
		leader:     leader,
		instanceID: instanceID,
		interval:   interval,
		log:        log,
	}
}

func (s *LifecycleScheduler) Start(ctx context.Context) error {
	s.log.Info("Starting lifecycle scheduler", "interval", s.interval)

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		isLeader, err := s.leader.IsLeader(ctx, s.instanceID)
		if err != nil {
			s.log.Error("Failed to check leadership", "error", err)
			return
		}
		if !isLeader {
			return
		}
		s.ProcessDueJobs(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *LifecycleScheduler) Stop() error {
	s.log.Info("Stopping lifecycle scheduler")
	s.cron.Stop()
	return nil
}

func (s *LifecycleScheduler) ProcessDueJobs(ctx context.Context) {
	jobs, err := s.repo.GetPendingJobs(ctx, time.Now())
	if err != nil {
		s.log.Error("Failed to get pending jobs", "error", err)
		return
	}

	for _, job := range jobs {
		s.log.Info("Processing job", "job_id", job.ID, "type", job.JobType, "auction_id", job.AuctionID)

		switch job.JobType {
		case domain.JobEndAuction:
			err = s.auctionSvc.MarkEnded(ctx, job.AuctionID)
		default:
			s.log.Error("Unknown job type", "job_id", job.ID, "type", job.JobType)
			continue
		}

		if err != nil {
			// A cancelled or already-sold auction makes the end job moot.
			if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrAuctionNotFound) {
				s.markJob(ctx, job.ID, domain.JobCancelled)
				continue
			}
			// Leave pending for the next sweep.
			s.log.Error("Failed to execute job", "job_id", job.ID, "error", err)
			continue
		}

		s.markJob(ctx, job.ID, domain.JobExecuted)
	}
}

func (s *LifecycleScheduler) markJob(ctx context.Context, jobID string, status domain.JobStatus) {
	if err := s.repo.UpdateJobStatus(ctx, jobID, status); err != nil {
		s.log.Error("Failed to update job status", "job_id", jobID, "error", err)
	}
}
