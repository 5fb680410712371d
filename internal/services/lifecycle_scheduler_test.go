package services

import (
	"context"
	"testing"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessDueJobsEndsOverdueAuctions(t *testing.T) {
	repo := newFakeAuctionRepo()
	scheduler := newFakeSchedulerRepo()
	auctionSvc := NewAuctionService(repo, scheduler, &fakePublisher{}, logger.Nop())

	repo.put(liveAuction("auction-1", 100, 600, "bob"))
	require.NoError(t, scheduler.CreateJob(context.Background(), &domain.ScheduledJob{
		ID:        "job-1",
		AuctionID: "auction-1",
		JobType:   domain.JobEndAuction,
		RunAt:     time.Now().Add(-time.Minute),
		Status:    domain.JobPending,
	}))

	sweeper := NewLifecycleScheduler(scheduler, auctionSvc, &fakeLeader{leader: true}, "instance-1", time.Second, logger.Nop())
	sweeper.ProcessDueJobs(context.Background())

	stored, err := repo.GetAuction(context.Background(), "auction-1")
	require.NoError(t, err)
	assert.Equal(t, domain.AuctionEnded, stored.Status)

	assert.Equal(t, domain.JobExecuted, scheduler.jobs["job-1"].Status)
}

func TestProcessDueJobsSkipsFutureJobs(t *testing.T) {
	repo := newFakeAuctionRepo()
	scheduler := newFakeSchedulerRepo()
	auctionSvc := NewAuctionService(repo, scheduler, &fakePublisher{}, logger.Nop())

	repo.put(liveAuction("auction-1", 100, 0, ""))
	require.NoError(t, scheduler.CreateJob(context.Background(), &domain.ScheduledJob{
		ID:        "job-1",
		AuctionID: "auction-1",
		JobType:   domain.JobEndAuction,
		RunAt:     time.Now().Add(time.Hour),
		Status:    domain.JobPending,
	}))

	sweeper := NewLifecycleScheduler(scheduler, auctionSvc, &fakeLeader{leader: true}, "instance-1", time.Second, logger.Nop())
	sweeper.ProcessDueJobs(context.Background())

	stored, err := repo.GetAuction(context.Background(), "auction-1")
	require.NoError(t, err)
	assert.Equal(t, domain.AuctionLive, stored.Status)
	assert.Equal(t, domain.JobPending, scheduler.jobs["job-1"].Status)
}

func TestProcessDueJobsRetiresMootJob(t *testing.T) {
	repo := newFakeAuctionRepo()
	scheduler := newFakeSchedulerRepo()
	auctionSvc := NewAuctionService(repo, scheduler, &fakePublisher{}, logger.Nop())

	// The auction was sold before the end job fired; Sold -> Ended is not
	// a legal transition, so the job is moot.
	a := liveAuction("auction-1", 100, 600, "bob")
	a.Status = domain.AuctionSold
	repo.put(a)
	require.NoError(t, scheduler.CreateJob(context.Background(), &domain.ScheduledJob{
		ID:        "job-1",
		AuctionID: "auction-1",
		JobType:   domain.JobEndAuction,
		RunAt:     time.Now().Add(-time.Minute),
		Status:    domain.JobPending,
	}))

	sweeper := NewLifecycleScheduler(scheduler, auctionSvc, &fakeLeader{leader: true}, "instance-1", time.Second, logger.Nop())
	sweeper.ProcessDueJobs(context.Background())

	assert.Equal(t, domain.JobCancelled, scheduler.jobs["job-1"].Status)
}
