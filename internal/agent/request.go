package agent

import (
	"context"
	"fmt"
	"time"
)

// Action names accepted by Handle.
const (
	ActionCreate   = "create"
	ActionSearch   = "search"
	ActionValidate = "validate"
	ActionRepair   = "repair"
	ActionIndex    = "index"
	ActionStats    = "stats"
	ActionScan     = "scan"
)

// Request is the single entry point used by orchestration layers.
type Request struct {
	Action       string   `json:"action"`
	Domain       string   `json:"domain,omitempty"`
	Keyword      string   `json:"keyword,omitempty"`
	Description  string   `json:"description,omitempty"`
	RelatedFiles []string `json:"relatedFiles,omitempty"`
	Path         string   `json:"path,omitempty"`
}

// Performance reports how long a request took.
type Performance struct {
	DurationMs int64 `json:"durationMs"`
}

// Response is what Handle returns. It never carries a Go error; failures
// set Success to false.
type Response struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Data        any          `json:"data,omitempty"`
	Warnings    []string     `json:"warnings,omitempty"`
	Performance *Performance `json:"performance,omitempty"`
}

// Handle dispatches req to the matching operation.
func (a *Agent) Handle(ctx context.Context, req Request) Response {
	start := time.Now()
	resp := a.dispatch(ctx, req)
	resp.Performance = &Performance{DurationMs: time.Since(start).Milliseconds()}
	if !resp.Success {
		a.log.Debug("request failed", "action", req.Action, "message", resp.Message)
	}
	return resp
}

func (a *Agent) dispatch(ctx context.Context, req Request) Response {
	switch req.Action {
	case ActionCreate:
		if req.Domain == "" {
			return failure("domain is required for create")
		}
		r, err := a.CreateTagChain(ctx, req.Domain, req.Description, req.RelatedFiles)
		if err != nil {
			return failure("create failed: %v", err)
		}
		return Response{
			Success:  true,
			Message:  fmt.Sprintf("created %d tags for %s", len(r.Created), r.Domain),
			Data:     r,
			Warnings: r.Warnings,
		}

	case ActionSearch:
		kw := req.Keyword
		if kw == "" {
			kw = req.Domain
		}
		if kw == "" {
			return failure("keyword is required for search")
		}
		r, err := a.SearchTags(ctx, kw)
		if err != nil {
			return failure("search failed: %v", err)
		}
		return Response{Success: true, Message: fmt.Sprintf("found %d tags", r.Total), Data: r}

	case ActionValidate:
		r, err := a.ValidateTagSystem(ctx)
		if err != nil {
			return failure("validate failed: %v", err)
		}
		var warnings []string
		if n := len(r.BrokenChains); n > 0 {
			warnings = append(warnings, fmt.Sprintf("%d broken chains", n))
		}
		if n := len(r.OrphanedTags); n > 0 {
			warnings = append(warnings, fmt.Sprintf("%d orphaned tags", n))
		}
		return Response{
			Success:  len(r.InvalidTags) == 0,
			Message:  fmt.Sprintf("%d of %d tags valid", r.Valid, r.Total),
			Data:     r,
			Warnings: warnings,
		}

	case ActionRepair:
		r, err := a.RepairTagChains(ctx)
		if err != nil {
			return failure("repair failed: %v", err)
		}
		return Response{
			Success:  true,
			Message:  fmt.Sprintf("repaired %d chains, fixed %d orphans", r.ChainsRepaired, r.OrphansFixed),
			Data:     r,
			Warnings: r.Skipped,
		}

	case ActionIndex:
		r, err := a.OptimizeIndexes(ctx)
		if err != nil {
			return failure("index rebuild failed: %v", err)
		}
		return Response{Success: true, Message: fmt.Sprintf("rebuilt indexes for %d tags", r.Tags), Data: r}

	case ActionStats:
		r, err := a.GenerateStatistics(ctx)
		if err != nil {
			return failure("statistics failed: %v", err)
		}
		return Response{
			Success: true,
			Message: fmt.Sprintf("health %.0f%% (%s)", r.HealthScore, r.QualityGate),
			Data:    r,
		}

	case ActionScan:
		r, err := a.ScanProject(ctx, req.Path)
		if err != nil {
			return failure("scan failed: %v", err)
		}
		var warnings []string
		for _, f := range r.Files {
			for _, w := range f.Warnings {
				warnings = append(warnings, f.Path+": "+w)
			}
		}
		return Response{
			Success:  true,
			Message:  fmt.Sprintf("found %d tag blocks under %s", len(r.Blocks), r.Root),
			Data:     r,
			Warnings: warnings,
		}

	case "":
		return failure("action is required")
	default:
		return failure("unknown action %q", req.Action)
	}
}

func failure(format string, args ...any) Response {
	return Response{Success: false, Message: fmt.Sprintf(format, args...)}
}
