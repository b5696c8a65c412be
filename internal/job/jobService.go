package job

import (
	"github.com/akolanti/MLServe/internal/domain/jobModel"
)

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	BoardStore        jobModel.BoardStore
	Notifier          jobModel.FigureNotifier
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	BoardStore        jobModel.BoardStore
	Notifier          jobModel.FigureNotifier
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		BoardStore:        cfg.BoardStore,
		Notifier:          cfg.Notifier,
	}
}

// Notify forwards a finished board job to the notifier, if one is attached
func (s *Service) Notify(job jobModel.Job) {
	if s.Notifier == nil || job.BoardId == "" {
		return
	}
	s.Notifier.PublishFigure(job.BoardId, job)
}
