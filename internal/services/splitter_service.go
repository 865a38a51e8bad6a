package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"parallelsplit/internal/models"
	"parallelsplit/internal/observability"
	contextutils "parallelsplit/internal/utils"

	"go.opentelemetry.io/otel/trace"
)

// SplitterServiceInterface defines the operations on parallel-text files
type SplitterServiceInterface interface {
	Split(ctx context.Context, req models.SplitRequest) (*models.SplitSummary, error)
	Check(ctx context.Context, inputPath string) (*models.SplitSummary, error)
}

// SplitterService splits tab-separated parallel text into two monolingual files
type SplitterService struct {
	logger  *observability.Logger
	metrics *observability.SplitMetrics
}

// NewSplitterService creates a splitter. metrics may be nil.
func NewSplitterService(logger *observability.Logger, metrics *observability.SplitMetrics) *SplitterService {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &SplitterService{logger: logger, metrics: metrics}
}

// Split reads req.InputPath line by line and writes the part before the first
// tab of every line to req.SourceOutputPath and the rest to req.TargetOutputPath.
// Output line i of both files always comes from input line i. A blank input
// line gives an empty line in both outputs.
//
// The run stops at the first malformed line. Lines processed before it stay in
// the outputs. The summary is returned in every case.
func (s *SplitterService) Split(ctx context.Context, req models.SplitRequest) (result0 *models.SplitSummary, err error) {
	ctx, span := observability.TraceSplitterFunction(ctx, "split",
		observability.AttributeInputPath(req.InputPath),
		observability.AttributeSourceOutputPath(req.SourceOutputPath),
		observability.AttributeTargetOutputPath(req.TargetOutputPath),
	)
	defer observability.FinishSpan(span, &err)

	summary := &models.SplitSummary{
		InputPath:        req.InputPath,
		SourceOutputPath: req.SourceOutputPath,
		TargetOutputPath: req.TargetOutputPath,
	}
	start := time.Now()
	defer func() { s.finish(ctx, span, "split", summary, start, err) }()

	if err = validateSplitRequest(req); err != nil {
		return summary, err
	}

	in, inInfo, err := openInput(req.InputPath)
	if err != nil {
		return summary, err
	}
	defer func() { _ = in.Close() }()

	if err = rejectSameFiles(inInfo, req); err != nil {
		return summary, err
	}

	source, err := createMonolingualWriter(req.SourceOutputPath)
	if err != nil {
		return summary, err
	}
	defer closeWriter(source, &err)

	target, err := createMonolingualWriter(req.TargetOutputPath)
	if err != nil {
		return summary, err
	}
	defer closeWriter(target, &err)

	s.logger.Debug(ctx, "Splitting parallel text", map[string]interface{}{
		"input_path":         req.InputPath,
		"source_output_path": req.SourceOutputPath,
		"target_output_path": req.TargetOutputPath,
	})

	err = scanParallelText(ctx, in, summary, func(rec models.ParallelRecord) error {
		if err := source.WriteLine(rec.Source); err != nil {
			return err
		}
		return target.WriteLine(rec.Target)
	})
	return summary, err
}

// Check validates inputPath with the same rules as Split without writing anything
func (s *SplitterService) Check(ctx context.Context, inputPath string) (result0 *models.SplitSummary, err error) {
	ctx, span := observability.TraceSplitterFunction(ctx, "check",
		observability.AttributeInputPath(inputPath),
	)
	defer observability.FinishSpan(span, &err)

	summary := &models.SplitSummary{InputPath: inputPath}
	start := time.Now()
	defer func() { s.finish(ctx, span, "check", summary, start, err) }()

	if strings.TrimSpace(inputPath) == "" {
		return summary, invalidInput("input path is required")
	}

	in, _, err := openInput(inputPath)
	if err != nil {
		return summary, err
	}
	defer func() { _ = in.Close() }()

	err = scanParallelText(ctx, in, summary, func(models.ParallelRecord) error { return nil })
	return summary, err
}

// finish records the outcome of a run on the span, the metrics and the log
func (s *SplitterService) finish(ctx context.Context, span trace.Span, operation string, summary *models.SplitSummary, start time.Time, err error) {
	summary.Duration = time.Since(start)

	span.SetAttributes(
		observability.AttributeLinesRead(summary.LinesRead),
		observability.AttributeRecords(summary.Records),
		observability.AttributeBlankLines(summary.BlankLines),
	)
	s.metrics.RecordRun(ctx, operation, summary.LinesRead, summary.Records, summary.BlankLines, summary.Duration, err)

	fields := map[string]interface{}{
		"operation":   operation,
		"input_path":  summary.InputPath,
		"lines_read":  summary.LinesRead,
		"records":     summary.Records,
		"blank_lines": summary.BlankLines,
		"duration_ms": summary.Duration.Milliseconds(),
	}
	if err != nil {
		fields["error_code"] = string(contextutils.GetErrorCode(err))
		if line := contextutils.GetErrorLine(err); line > 0 {
			fields["line"] = line
		}
		s.logger.Error(ctx, "Parallel text "+operation+" failed", err, fields)
		return
	}
	s.logger.Info(ctx, "Parallel text "+operation+" completed", fields)
}

// scanParallelText parses every line of in and hands each record to emit.
// A blank line is handed on as an empty record so both outputs keep one line
// per input line. The context is checked before each line.
func scanParallelText(ctx context.Context, in io.Reader, summary *models.SplitSummary, emit func(models.ParallelRecord) error) error {
	reader := newParallelTextReader(in)
	for {
		if err := ctx.Err(); err != nil {
			return contextutils.WrapWithCode(contextutils.ErrIO, err, fmt.Sprintf("stopped after line %d", reader.Line()))
		}
		if !reader.Next() {
			break
		}
		summary.LinesRead++

		rec, err := models.ParseParallelLine(reader.Text(), reader.Line())
		blank := errors.Is(err, models.ErrBlankLine)
		if blank {
			rec = models.ParallelRecord{Line: reader.Line()}
		} else if err != nil {
			return err
		}
		if err := emit(rec); err != nil {
			return err
		}
		if blank {
			summary.BlankLines++
		} else {
			summary.Records++
		}
	}

	if err := reader.Err(); err != nil {
		return contextutils.WrapWithCode(contextutils.ErrIO, err, fmt.Sprintf("failed to read input after line %d", reader.Line()))
	}
	return nil
}

// openInput opens the input file for reading. A missing or unreadable input
// and a directory all report FILE_NOT_FOUND.
func openInput(path string) (*os.File, os.FileInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, contextutils.WrapWithCode(contextutils.ErrFileNotFound, err, "cannot open input")
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, contextutils.WrapWithCode(contextutils.ErrIO, err, "cannot stat input")
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, nil, contextutils.NewAppError(contextutils.ErrorCodeFileNotFound, contextutils.SeverityError,
			contextutils.ErrFileNotFound.Message, path+" is a directory")
	}
	return file, info, nil
}

// validateSplitRequest rejects empty paths and paths that would make one
// file serve two roles. Nothing has been opened yet when this runs.
func validateSplitRequest(req models.SplitRequest) error {
	for _, p := range []struct{ name, path string }{
		{"input", req.InputPath},
		{"source output", req.SourceOutputPath},
		{"target output", req.TargetOutputPath},
	} {
		if strings.TrimSpace(p.path) == "" {
			return invalidInput(p.name + " path is required")
		}
	}

	input, err := filepath.Abs(req.InputPath)
	if err != nil {
		return contextutils.WrapWithCode(contextutils.ErrInvalidInput, err, "cannot resolve input path")
	}
	source, err := filepath.Abs(req.SourceOutputPath)
	if err != nil {
		return contextutils.WrapWithCode(contextutils.ErrInvalidInput, err, "cannot resolve source output path")
	}
	target, err := filepath.Abs(req.TargetOutputPath)
	if err != nil {
		return contextutils.WrapWithCode(contextutils.ErrInvalidInput, err, "cannot resolve target output path")
	}

	switch {
	case source == input || target == input:
		return invalidInput("output path must differ from the input path")
	case source == target:
		return invalidInput("source and target output paths must differ")
	}
	return nil
}

// rejectSameFiles catches outputs that already exist and resolve to the input
// or to each other through links.
func rejectSameFiles(inInfo os.FileInfo, req models.SplitRequest) error {
	sourceInfo, sourceErr := os.Stat(req.SourceOutputPath)
	targetInfo, targetErr := os.Stat(req.TargetOutputPath)

	if sourceErr == nil && os.SameFile(inInfo, sourceInfo) {
		return invalidInput("source output " + req.SourceOutputPath + " is the input file")
	}
	if targetErr == nil && os.SameFile(inInfo, targetInfo) {
		return invalidInput("target output " + req.TargetOutputPath + " is the input file")
	}
	if sourceErr == nil && targetErr == nil && os.SameFile(sourceInfo, targetInfo) {
		return invalidInput("source and target outputs are the same file")
	}
	return nil
}

func invalidInput(details string) error {
	return contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn,
		contextutils.ErrInvalidInput.Message, details)
}
