package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"ClientPulse/internal/modules/workflow/application/dto/respond"
	"ClientPulse/pkg/zlog"

	"go.uber.org/zap"
)

// WorkflowService 依次执行逾期任务与赢单两个处理器
type WorkflowService interface {
	// RunWorkflows 单个实体的失败只记录在结果中；仅当某个处理器整体失败（查询失败或 panic）时返回 error
	RunWorkflows(ctx context.Context) (*respond.RunResult, error)
}

type processor interface {
	Process(ctx context.Context) (*respond.ProcessResult, error)
}

type workflowServiceImpl struct {
	overdue OverdueTaskProcessor
	won     WonOpportunityProcessor
	now     func() time.Time
}

func NewWorkflowService(overdue OverdueTaskProcessor, won WonOpportunityProcessor) WorkflowService {
	return &workflowServiceImpl{overdue: overdue, won: won, now: time.Now}
}

func (s *workflowServiceImpl) RunWorkflows(ctx context.Context) (*respond.RunResult, error) {
	run := &respond.RunResult{StartedAt: s.now()}

	var errs []error
	overdue, err := safeProcess(ctx, respond.ProcessorOverdueTasks, s.overdue)
	run.Overdue = overdue
	if err != nil {
		errs = append(errs, err)
		run.Failures = append(run.Failures, err.Error())
	}

	won, err := safeProcess(ctx, respond.ProcessorWonOpportunities, s.won)
	run.Won = won
	if err != nil {
		errs = append(errs, err)
		run.Failures = append(run.Failures, err.Error())
	}

	run.FinishedAt = s.now()
	zlog.Info("workflows finished",
		zap.Int("overdue_scanned", overdue.Scanned),
		zap.Int("escalations", overdue.Escalations),
		zap.Int("won_scanned", won.Scanned),
		zap.Int("propagated", won.Propagated),
		zap.Int("errors", run.ErrorCount()),
		zap.Duration("took", run.Duration()))
	return run, errors.Join(errs...)
}

// safeProcess 处理器 panic 不向上传播，转为该处理器的整体失败
func safeProcess(ctx context.Context, name string, p processor) (res *respond.ProcessResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error("workflow processor panic",
				zap.String("processor", name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("%s: panic: %v", name, r)
		}
		if res == nil {
			res = respond.NewProcessResult(name, time.Now())
		}
	}()

	res, err = p.Process(ctx)
	if err != nil {
		zlog.Error("workflow processor failed", zap.String("processor", name), zap.Error(err))
		err = fmt.Errorf("%s: %w", name, err)
	}
	return res, err
}
