package server

import (
	"time"

	"github.com/joseph-ayodele/quote-optimizer/constants"
	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
	"github.com/joseph-ayodele/quote-optimizer/internal/pipeline"
	"github.com/joseph-ayodele/quote-optimizer/internal/repository"
)

type AnalyzeRequest struct {
	Documents []pipeline.DocumentInput `json:"documents"`
	Rules     []entity.ComplianceRule  `json:"rules,omitempty"`
	Mode      entity.Mode              `json:"mode,omitempty"`
	Extractor string                   `json:"extractor,omitempty"`
}

func (r *AnalyzeRequest) input() pipeline.Input {
	return pipeline.Input{Documents: r.Documents, Rules: r.Rules, Mode: r.Mode, Extractor: r.Extractor}
}

type AnalyzeResponse struct {
	Result pipeline.Result `json:"result"`
}

// AnalyzeDirectoryRequest analyzes every supported file under a directory
// on the daemon's host.
type AnalyzeDirectoryRequest struct {
	RootPath   string                  `json:"root_path"`
	SkipHidden bool                    `json:"skip_hidden,omitempty"`
	Rules      []entity.ComplianceRule `json:"rules,omitempty"`
	Mode       entity.Mode             `json:"mode,omitempty"`
	Extractor  string                  `json:"extractor,omitempty"`
}

type AnalyzeDirectoryResponse struct {
	Scanned      uint32          `json:"scanned"`
	Matched      uint32          `json:"matched"`
	Deduplicated uint32          `json:"deduplicated"`
	Failed       uint32          `json:"failed"`
	Result       pipeline.Result `json:"result"`
}

type SubmitResponse struct {
	RunID  string              `json:"run_id"`
	Status constants.RunStatus `json:"status"`
}

type GetRunRequest struct {
	RunID string `json:"run_id"`
}

type RunInfo struct {
	RunID     string              `json:"run_id"`
	Status    constants.RunStatus `json:"status"`
	Mode      entity.Mode         `json:"mode,omitempty"`
	Documents int                 `json:"documents"`
	TotalCost float64             `json:"total_cost"`
	Error     string              `json:"error,omitempty"`
	CreatedAt string              `json:"created_at"`
	UpdatedAt string              `json:"updated_at"`
}

type GetRunResponse struct {
	Run    RunInfo          `json:"run"`
	Result *pipeline.Result `json:"result,omitempty"`
}

type ListRunsRequest struct {
	Limit int `json:"limit,omitempty"`
}

type ListRunsResponse struct {
	Runs []RunInfo `json:"runs"`
}

func toRunInfo(r repository.Run) RunInfo {
	return RunInfo{
		RunID:     r.ID,
		Status:    r.Status,
		Mode:      r.Mode,
		Documents: r.Documents,
		TotalCost: r.TotalCost,
		Error:     r.Error,
		CreatedAt: r.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: r.UpdatedAt.Format(time.RFC3339Nano),
	}
}
