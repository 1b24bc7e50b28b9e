// Package server exposes the analysis engine over gRPC.
package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/quote-optimizer/constants"
	"github.com/joseph-ayodele/quote-optimizer/internal/common"
	"github.com/joseph-ayodele/quote-optimizer/internal/ingest"
	"github.com/joseph-ayodele/quote-optimizer/internal/pipeline"
	"github.com/joseph-ayodele/quote-optimizer/internal/repository"
)

// Analyzer runs an analysis synchronously. *pipeline.Analyzer satisfies it.
type Analyzer interface {
	Run(ctx context.Context, in pipeline.Input) (pipeline.Result, error)
}

// Submitter queues an analysis. *async.AnalysisQueue satisfies it.
type Submitter interface {
	Submit(ctx context.Context, in pipeline.Input) (string, error)
}

// RunReader serves stored runs. *repository.Store satisfies it.
type RunReader interface {
	GetRun(ctx context.Context, id string) (repository.Run, error)
	ListRuns(ctx context.Context, limit int) ([]repository.Run, error)
}

type AnalysisService struct {
	analyzer Analyzer
	queue    Submitter
	runs     RunReader
	logger   *slog.Logger
}

var _ QuoteAnalysisServer = (*AnalysisService)(nil)

func NewAnalysisService(analyzer Analyzer, queue Submitter, runs RunReader, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{analyzer: analyzer, queue: queue, runs: runs, logger: logger}
}

func (s *AnalysisService) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	log := common.LoggerFrom(ctx, s.logger)
	if len(req.Documents) == 0 {
		log.Error("analyze request has no documents")
		return nil, status.Error(codes.InvalidArgument, "documents are required")
	}
	res, err := s.analyzer.Run(ctx, req.input())
	if err != nil {
		log.Error("analysis failed", "documents", len(req.Documents), "error", err)
		return nil, common.ToStatus(err)
	}
	return &AnalyzeResponse{Result: res}, nil
}

func (s *AnalysisService) AnalyzeDirectory(ctx context.Context, req *AnalyzeDirectoryRequest) (*AnalyzeDirectoryResponse, error) {
	log := common.LoggerFrom(ctx, s.logger)
	if err := common.ValidateAndReturnError(common.NewValidator().Field("root_path", req.RootPath, common.Required)); err != nil {
		return nil, err
	}
	root := strings.TrimSpace(req.RootPath)
	log.Info("starting directory analysis", "root", root, "skip_hidden", req.SkipHidden)
	docs, stats, err := ingest.ReadDirectory(ctx, root, req.SkipHidden)
	if err != nil {
		log.Error("directory read failed", "root", root, "error", err)
		return nil, status.Errorf(codes.InvalidArgument, "read directory: %v", err)
	}
	if len(docs) == 0 {
		return nil, status.Errorf(codes.InvalidArgument, "no supported quote documents under %s", root)
	}
	res, err := s.analyzer.Run(ctx, pipeline.Input{Documents: docs, Rules: req.Rules, Mode: req.Mode, Extractor: req.Extractor})
	if err != nil {
		log.Error("analysis failed", "root", root, "error", err)
		return nil, common.ToStatus(err)
	}
	return &AnalyzeDirectoryResponse{
		Scanned:      stats.Scanned,
		Matched:      stats.Matched,
		Deduplicated: stats.Deduplicated,
		Failed:       stats.Failed,
		Result:       res,
	}, nil
}

func (s *AnalysisService) Submit(ctx context.Context, req *AnalyzeRequest) (*SubmitResponse, error) {
	log := common.LoggerFrom(ctx, s.logger)
	if s.queue == nil {
		return nil, status.Error(codes.Unimplemented, "asynchronous analysis is not enabled")
	}
	if len(req.Documents) == 0 {
		return nil, status.Error(codes.InvalidArgument, "documents are required")
	}
	id, err := s.queue.Submit(ctx, req.input())
	if err != nil {
		log.Error("submit failed", "error", err)
		return nil, common.ToStatus(err)
	}
	log.Info("analysis submitted", "run_id", id, "documents", len(req.Documents))
	return &SubmitResponse{RunID: id, Status: constants.RunStatusQueued}, nil
}

func (s *AnalysisService) GetRun(ctx context.Context, req *GetRunRequest) (*GetRunResponse, error) {
	if s.runs == nil {
		return nil, status.Error(codes.Unimplemented, "run storage is not enabled")
	}
	if err := common.ValidateAndReturnError(common.NewValidator().Field("run_id", req.RunID, common.Required)); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(req.RunID)
	run, err := s.runs.GetRun(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return &GetRunResponse{Run: toRunInfo(run), Result: run.Result}, nil
}

func (s *AnalysisService) ListRuns(ctx context.Context, req *ListRunsRequest) (*ListRunsResponse, error) {
	if s.runs == nil {
		return nil, status.Error(codes.Unimplemented, "run storage is not enabled")
	}
	runs, err := s.runs.ListRuns(ctx, req.Limit)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	out := make([]RunInfo, 0, len(runs))
	for _, r := range runs {
		out = append(out, toRunInfo(r))
	}
	return &ListRunsResponse{Runs: out}, nil
}

// LoggingInterceptor tags each call with a request id and logs its outcome.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		ctx = common.WithRequestID(ctx, uuid.NewString())
		resp, err := handler(ctx, req)
		log := common.LoggerFrom(ctx, logger).With(
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		if err != nil {
			log.Warn("grpc call failed", "error", err)
		} else {
			log.Info("grpc call ok")
		}
		return resp, err
	}
}
