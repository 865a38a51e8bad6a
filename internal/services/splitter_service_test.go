package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"parallelsplit/internal/models"
	"parallelsplit/internal/observability"
	contextutils "parallelsplit/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestSplitter(t *testing.T) (*SplitterService, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	return NewSplitterService(&observability.Logger{Logger: zap.New(core)}, nil), logs
}

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "en-ne.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func splitRequest(dir, input string) models.SplitRequest {
	return models.SplitRequest{
		InputPath:        input,
		SourceOutputPath: filepath.Join(dir, "english.txt"),
		TargetOutputPath: filepath.Join(dir, "nepali.txt"),
	}
}

func TestSplitterService_Split_Scenario(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newTestSplitter(t)
	req := splitRequest(dir, writeInput(t, dir, "Hi\tNamaste\nBye\tBidaai\n"))

	summary, err := svc.Split(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Hi\nBye\n", readFile(t, req.SourceOutputPath))
	assert.Equal(t, "Namaste\nBidaai\n", readFile(t, req.TargetOutputPath))
	assert.Equal(t, 2, summary.LinesRead)
	assert.Equal(t, 2, summary.Records)
	assert.Equal(t, 0, summary.BlankLines)
	assert.Equal(t, req.InputPath, summary.InputPath)
}

func TestSplitterService_Split_Cases(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		source  string
		target  string
		records int
		blank   int
	}{
		{
			name:  "empty input gives two empty files",
			input: "",
		},
		{
			name:    "only the first tab splits",
			input:   "Hello\tBonjour\tExtra\n",
			source:  "Hello\n",
			target:  "Bonjour\tExtra\n",
			records: 1,
		},
		{
			name:    "CRLF terminators are stripped",
			input:   "Hi\tNamaste\r\nBye\tBidaai\r\n",
			source:  "Hi\nBye\n",
			target:  "Namaste\nBidaai\n",
			records: 2,
		},
		{
			name:    "last line without newline",
			input:   "Hi\tNamaste\nBye\tBidaai",
			source:  "Hi\nBye\n",
			target:  "Namaste\nBidaai\n",
			records: 2,
		},
		{
			name:    "surrounding whitespace removed, inner whitespace kept",
			input:   "  Good morning \t Subha prabhat  \n",
			source:  "Good morning \n",
			target:  " Subha prabhat\n",
			records: 1,
		},
		{
			name:    "blank lines become empty lines in both outputs",
			input:   "a\tb\n\n   \nc\td\n",
			source:  "a\n\n\nc\n",
			target:  "b\n\n\nd\n",
			records: 2,
			blank:   2,
		},
		{
			name:    "empty target field",
			input:   "a\t\tb\n",
			source:  "a\n",
			target:  "\tb\n",
			records: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			svc, _ := newTestSplitter(t)
			req := splitRequest(dir, writeInput(t, dir, tt.input))

			summary, err := svc.Split(context.Background(), req)
			require.NoError(t, err)

			assert.Equal(t, tt.source, readFile(t, req.SourceOutputPath))
			assert.Equal(t, tt.target, readFile(t, req.TargetOutputPath))
			assert.Equal(t, tt.records, summary.Records)
			assert.Equal(t, tt.blank, summary.BlankLines)
		})
	}
}

func TestSplitterService_Split_RoundTripAndEqualLineCounts(t *testing.T) {
	lines := []string{
		"The cat sleeps.\tबिरालो सुत्छ।",
		"Where is the station?\tस्टेशन कहाँ छ?",
		"a\tb\tc",
		"x\t y",
	}

	dir := t.TempDir()
	svc, _ := newTestSplitter(t)
	req := splitRequest(dir, writeInput(t, dir, strings.Join(lines, "\n")+"\n"))

	_, err := svc.Split(context.Background(), req)
	require.NoError(t, err)

	source := strings.Split(strings.TrimSuffix(readFile(t, req.SourceOutputPath), "\n"), "\n")
	target := strings.Split(strings.TrimSuffix(readFile(t, req.TargetOutputPath), "\n"), "\n")
	require.Len(t, source, len(lines))
	require.Len(t, target, len(lines))

	for i, line := range lines {
		rec := models.ParallelRecord{Source: source[i], Target: target[i]}
		assert.Equal(t, strings.TrimSpace(line), rec.Join(), "line %d", i+1)
	}
}

func TestSplitterService_Split_BlankLinesKeepAlignment(t *testing.T) {
	input := "Hi\tNamaste\n\nBye\tBidaai\n \t \nThanks\tDhanyabad"
	inputLines := strings.Split(input, "\n")

	dir := t.TempDir()
	svc, _ := newTestSplitter(t)
	req := splitRequest(dir, writeInput(t, dir, input))

	summary, err := svc.Split(context.Background(), req)
	require.NoError(t, err)

	source := strings.Split(strings.TrimSuffix(readFile(t, req.SourceOutputPath), "\n"), "\n")
	target := strings.Split(strings.TrimSuffix(readFile(t, req.TargetOutputPath), "\n"), "\n")
	require.Len(t, source, len(inputLines))
	require.Len(t, target, len(inputLines))
	assert.Equal(t, []string{"Hi", "", "Bye", "", "Thanks"}, source)
	assert.Equal(t, []string{"Namaste", "", "Bidaai", "", "Dhanyabad"}, target)

	assert.Equal(t, len(inputLines), summary.LinesRead)
	assert.Equal(t, 3, summary.Records)
	assert.Equal(t, 2, summary.BlankLines)
	assert.Equal(t, summary.LinesRead, summary.Records+summary.BlankLines)
}

func TestSplitterService_Split_Idempotent(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newTestSplitter(t)
	req := splitRequest(dir, writeInput(t, dir, "Hi\tNamaste\nBye\tBidaai\n"))

	// Stale content longer than the result must be truncated
	require.NoError(t, os.WriteFile(req.SourceOutputPath, []byte(strings.Repeat("old\n", 50)), 0o644))

	_, err := svc.Split(context.Background(), req)
	require.NoError(t, err)
	firstSource := readFile(t, req.SourceOutputPath)
	firstTarget := readFile(t, req.TargetOutputPath)

	_, err = svc.Split(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, firstSource, readFile(t, req.SourceOutputPath))
	assert.Equal(t, firstTarget, readFile(t, req.TargetOutputPath))
	assert.Equal(t, "Hi\nBye\n", firstSource)
}

func TestSplitterService_Split_CreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newTestSplitter(t)
	req := models.SplitRequest{
		InputPath:        writeInput(t, dir, "Hi\tNamaste\n"),
		SourceOutputPath: filepath.Join(dir, "out", "en", "english.txt"),
		TargetOutputPath: filepath.Join(dir, "out", "ne", "nepali.txt"),
	}

	_, err := svc.Split(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Hi\n", readFile(t, req.SourceOutputPath))
	assert.Equal(t, "Namaste\n", readFile(t, req.TargetOutputPath))
}

func TestSplitterService_Split_LongLine(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newTestSplitter(t)
	long := strings.Repeat("x", 256*1024)
	req := splitRequest(dir, writeInput(t, dir, long+"\t"+long+"\n"))

	_, err := svc.Split(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, long+"\n", readFile(t, req.SourceOutputPath))
}

func TestSplitterService_Split_MalformedLineAborts(t *testing.T) {
	dir := t.TempDir()
	svc, logs := newTestSplitter(t)
	req := splitRequest(dir, writeInput(t, dir, "a\tb\nc\td\nBye\ne\tf\n"))

	summary, err := svc.Split(context.Background(), req)
	require.Error(t, err)

	assert.True(t, errors.Is(err, contextutils.ErrMalformedRecord))
	assert.Equal(t, 3, contextutils.GetErrorLine(err))
	assert.Equal(t, contextutils.ExitMalformedRecord, contextutils.ExitCode(err))
	assert.Equal(t, `MALFORMED_RECORD: Malformed record (line 3) - no tab separator in "Bye"`, err.Error())

	// Records before the bad line were written and flushed
	assert.Equal(t, "a\nc\n", readFile(t, req.SourceOutputPath))
	assert.Equal(t, "b\nd\n", readFile(t, req.TargetOutputPath))
	require.NotNil(t, summary)
	assert.Equal(t, 3, summary.LinesRead)
	assert.Equal(t, 2, summary.Records)

	entries := logs.FilterMessage("Parallel text split failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(3), fields["line"])
	assert.Equal(t, "MALFORMED_RECORD", fields["error_code"])
}

func TestSplitterService_Split_InvalidEncoding(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newTestSplitter(t)
	req := splitRequest(dir, writeInput(t, dir, "a\tb\n\xff\xfe\tc\n"))

	_, err := svc.Split(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeInvalidEncoding, contextutils.GetErrorCode(err))
	assert.Equal(t, 2, contextutils.GetErrorLine(err))
	assert.Equal(t, "a\n", readFile(t, req.SourceOutputPath))
}

func TestSplitterService_Split_InputErrors(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		dir := t.TempDir()
		svc, _ := newTestSplitter(t)
		req := splitRequest(dir, filepath.Join(dir, "missing.txt"))

		_, err := svc.Split(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeFileNotFound, contextutils.GetErrorCode(err))
		assert.True(t, errors.Is(err, os.ErrNotExist))
		assert.Equal(t, contextutils.ExitFileNotFound, contextutils.ExitCode(err))

		// Outputs are not created when the input cannot be opened
		assert.NoFileExists(t, req.SourceOutputPath)
		assert.NoFileExists(t, req.TargetOutputPath)
	})

	t.Run("directory as input", func(t *testing.T) {
		dir := t.TempDir()
		svc, _ := newTestSplitter(t)
		req := splitRequest(dir, dir)

		_, err := svc.Split(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeFileNotFound, contextutils.GetErrorCode(err))
		assert.Contains(t, err.Error(), "is a directory")
	})
}

func TestSplitterService_Split_OutputErrors(t *testing.T) {
	t.Run("parent is a regular file", func(t *testing.T) {
		dir := t.TempDir()
		svc, _ := newTestSplitter(t)
		blocker := filepath.Join(dir, "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

		req := splitRequest(dir, writeInput(t, dir, "Hi\tNamaste\n"))
		req.TargetOutputPath = filepath.Join(blocker, "nepali.txt")

		_, err := svc.Split(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeIO, contextutils.GetErrorCode(err))
		assert.Equal(t, contextutils.ExitIO, contextutils.ExitCode(err))
	})

	t.Run("directory without write permission", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("permission checks do not apply to root")
		}
		dir := t.TempDir()
		svc, _ := newTestSplitter(t)
		locked := filepath.Join(dir, "locked")
		require.NoError(t, os.Mkdir(locked, 0o500))
		t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

		req := splitRequest(dir, writeInput(t, dir, "Hi\tNamaste\n"))
		req.SourceOutputPath = filepath.Join(locked, "english.txt")

		_, err := svc.Split(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodePermissionDenied, contextutils.GetErrorCode(err))
		assert.Equal(t, contextutils.ExitPermissionDenied, contextutils.ExitCode(err))
	})
}

func TestSplitterService_Split_RejectsConflictingPaths(t *testing.T) {
	const content = "Hi\tNamaste\n"

	tests := []struct {
		name   string
		mutate func(t *testing.T, dir string, req *models.SplitRequest)
	}{
		{"empty input", func(_ *testing.T, _ string, req *models.SplitRequest) { req.InputPath = "" }},
		{"empty source output", func(_ *testing.T, _ string, req *models.SplitRequest) { req.SourceOutputPath = " " }},
		{"source output is the input", func(_ *testing.T, _ string, req *models.SplitRequest) { req.SourceOutputPath = req.InputPath }},
		{"target output is the input by another spelling", func(_ *testing.T, dir string, req *models.SplitRequest) {
			req.TargetOutputPath = filepath.Join(dir, ".", "sub", "..", "en-ne.txt")
		}},
		{"outputs are the same", func(_ *testing.T, _ string, req *models.SplitRequest) { req.TargetOutputPath = req.SourceOutputPath }},
		{"source output links to the input", func(t *testing.T, dir string, req *models.SplitRequest) {
			link := filepath.Join(dir, "link.txt")
			if err := os.Symlink(req.InputPath, link); err != nil {
				t.Skipf("symlinks unavailable: %v", err)
			}
			req.SourceOutputPath = link
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			svc, _ := newTestSplitter(t)
			input := writeInput(t, dir, content)
			req := splitRequest(dir, input)
			tt.mutate(t, dir, &req)

			_, err := svc.Split(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, contextutils.ErrorCodeInvalidInput, contextutils.GetErrorCode(err))
			assert.Equal(t, contextutils.ExitInvalidInput, contextutils.ExitCode(err))
			assert.Equal(t, content, readFile(t, input), "input must never be truncated")
		})
	}
}

func TestSplitterService_Split_Cancelled(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newTestSplitter(t)
	req := splitRequest(dir, writeInput(t, dir, "Hi\tNamaste\n"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := svc.Split(ctx, req)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeIO, contextutils.GetErrorCode(err))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, summary.Records)
}

func TestSplitterService_Split_Telemetry(t *testing.T) {
	tp := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(tp) })
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	reader := sdkmetric.NewManualReader()
	metrics, err := observability.NewSplitMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	svc := NewSplitterService(&observability.Logger{Logger: zap.New(core)}, metrics)

	dir := t.TempDir()
	req := splitRequest(dir, writeInput(t, dir, "Hi\tNamaste\n\nBye\tBidaai\n"))
	_, err = svc.Split(context.Background(), req)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "splitter.split", spans[0].Name())
	attrs := map[string]int64{}
	for _, kv := range spans[0].Attributes() {
		if kv.Value.Type() == attribute.INT64 {
			attrs[string(kv.Key)] = kv.Value.AsInt64()
		}
	}
	assert.Equal(t, int64(3), attrs["split.lines_read"])
	assert.Equal(t, int64(2), attrs["split.records"])
	assert.Equal(t, int64(1), attrs["split.blank_lines"])

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if sum, ok := md.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[md.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(3), sums[observability.MetricLinesRead])
	assert.Equal(t, int64(2), sums[observability.MetricRecords])
	assert.Equal(t, int64(1), sums[observability.MetricBlankLines])
	assert.Zero(t, sums[observability.MetricErrors])

	entries := logs.FilterMessage("Parallel text split completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(2), fields["records"])
	assert.NotEmpty(t, fields["trace_id"])
}

func TestSplitterService_Check(t *testing.T) {
	t.Run("valid input writes nothing", func(t *testing.T) {
		dir := t.TempDir()
		svc, _ := newTestSplitter(t)
		input := writeInput(t, dir, "Hi\tNamaste\n\nBye\tBidaai\n")

		summary, err := svc.Check(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, 3, summary.LinesRead)
		assert.Equal(t, 2, summary.Records)
		assert.Equal(t, 1, summary.BlankLines)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("malformed input reports the line", func(t *testing.T) {
		dir := t.TempDir()
		svc, _ := newTestSplitter(t)
		input := writeInput(t, dir, "Hi\tNamaste\nBye\n")

		summary, err := svc.Check(context.Background(), input)
		require.Error(t, err)
		assert.Equal(t, 2, contextutils.GetErrorLine(err))
		assert.Equal(t, 1, summary.Records)
	})

	t.Run("missing input", func(t *testing.T) {
		svc, _ := newTestSplitter(t)
		_, err := svc.Check(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
		assert.Equal(t, contextutils.ErrorCodeFileNotFound, contextutils.GetErrorCode(err))
	})

	t.Run("empty path", func(t *testing.T) {
		svc, _ := newTestSplitter(t)
		_, err := svc.Check(context.Background(), "")
		assert.Equal(t, contextutils.ErrorCodeInvalidInput, contextutils.GetErrorCode(err))
	})
}

func TestNewSplitterService_NilLogger(t *testing.T) {
	svc := NewSplitterService(nil, nil)
	dir := t.TempDir()
	_, err := svc.Check(context.Background(), writeInput(t, dir, "a\tb\n"))
	assert.NoError(t, err)
}
