package usecase

import (
	"context"
	"fmt"
)

// PeriodJob evaluates the configured reporting period on a schedule.
type PeriodJob struct {
	svc    *EvaluationService
	period string
	months int
}

func NewPeriodJob(svc *EvaluationService, period string, months int) *PeriodJob {
	return &PeriodJob{svc: svc, period: period, months: months}
}

func (j *PeriodJob) Name() string { return fmt.Sprintf("evaluate_%s", j.period) }

func (j *PeriodJob) Run(ctx context.Context) error {
	_, err := j.svc.EvaluatePeriod(ctx, j.period, j.months)
	return err
}
