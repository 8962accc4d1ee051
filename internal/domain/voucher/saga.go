package voucher

import (
	"context"

	"khata/internal/core/apperror"
	"khata/pkg/logger"
)

// Step is one stage of a multi-write operation. Compensate undoes the effect
// of a completed Run; a nil Compensate means the step has nothing to undo.
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// runSaga executes steps in order. When a step fails, the compensations of
// every completed step run in reverse order. The distinction between the
// outcomes matters operationally:
//
//   - first step fails: nothing was written, the step's own error is returned
//   - later step fails, compensation succeeds: PARTIAL_WRITE_FAILURE
//   - compensation fails: ROLLBACK_FAILED, data needs manual reconciliation
//
// Compensations do not run inside one database transaction: the steps may
// span stores that cannot share a transaction, and a reserved voucher number
// must be released even when the database write is the thing that failed.
func runSaga(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		err := step.Run(ctx)
		if err == nil {
			continue
		}

		logger.Warn(ctx, "saga step failed, compensating",
			"step", step.Name,
			"completed_steps", i,
			"error", err)

		if i == 0 {
			return err
		}

		for j := i - 1; j >= 0; j-- {
			comp := steps[j]
			if comp.Compensate == nil {
				continue
			}
			if cerr := comp.Compensate(ctx); cerr != nil {
				logger.Integrity(ctx, "saga compensation failed",
					"failed_step", step.Name,
					"failed_compensation", comp.Name,
					"error", cerr)
				return apperror.NewRollbackFailed(comp.Name, cerr).
					WithDetail("failed_step", step.Name)
			}
			logger.Debug(ctx, "saga step compensated", "step", comp.Name)
		}

		return apperror.NewPartialWrite(step.Name, err)
	}
	return nil
}
