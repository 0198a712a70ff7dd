package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/lodeworks/stockpipe/adapter"
	"github.com/lodeworks/stockpipe/cli/config"
	"github.com/lodeworks/stockpipe/cli/render"
	"github.com/lodeworks/stockpipe/log"
	"github.com/lodeworks/stockpipe/metrics"
	"github.com/lodeworks/stockpipe/pipeline"
	"github.com/lodeworks/stockpipe/source/yahoo"
	"github.com/lodeworks/stockpipe/types"
	"github.com/lodeworks/stockpipe/warehouse"
)

// Exit codes for the run command.
const (
	exitSuccess    = 0
	exitInvalid    = 1
	exitLoadFailed = 2
)

const defaultPipelineName = "stock_pipeline"

// RunCommand returns the run command, the only command that executes work.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Execute an ingestion run (the only execution entrypoint)",
		Flags: append([]cli.Flag{
			FormatFlag,
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to stockpipe.yaml config file",
			},
			&cli.StringSliceFlag{
				Name:  "symbols",
				Usage: "Symbols to ingest (repeatable or comma-separated)",
			},
			&cli.StringFlag{
				Name:  "pipeline-name",
				Usage: "Pipeline name used in logs and monitoring rows",
			},
			&cli.BoolFlag{
				Name:  "full-refresh",
				Usage: "Drop pipeline state and reload the full lookback window",
			},
			&cli.IntFlag{
				Name:  "lookback-days",
				Usage: "Historical floor in days for first runs and full refreshes",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress result output",
			},
			// Adapter flags
			&cli.StringFlag{
				Name:  "adapter",
				Usage: "Completion notification adapter: webhook or redis",
			},
			&cli.StringFlag{
				Name:  "adapter-url",
				Usage: "Adapter target URL (webhook: http(s) endpoint, redis: redis://...)",
			},
			&cli.StringFlag{
				Name:  "adapter-channel",
				Usage: "Redis pub/sub channel override",
			},
		}, StorageFlags()...),
		Action: runAction,
	}
}

// runSettings holds the merged config-file and flag values for one run.
type runSettings struct {
	pipelineName string
	symbols      []string
	mode         types.Mode
	lookbackDays int

	storage storageChoice
	adapter adapterChoice
}

// storageChoice holds parsed warehouse configuration.
type storageChoice struct {
	dataset     string
	backend     string
	path        string
	region      string
	endpoint    string
	s3PathStyle bool
}

// adapterChoice holds parsed notification configuration.
type adapterChoice struct {
	kind    string
	url     string
	channel string
	headers map[string]string
	timeout time.Duration
	retries *int
}

// resolveSettings merges the optional config file with CLI flags.
// Flags always win over file values.
func resolveSettings(c *cli.Context) (*runSettings, error) {
	var cfg config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	s := &runSettings{
		pipelineName: cfg.Pipeline.Name,
		symbols:      cfg.Pipeline.Symbols,
		mode:         types.Mode(cfg.Pipeline.Mode),
		lookbackDays: cfg.Pipeline.LookbackDays,
		storage: storageChoice{
			dataset:     cfg.Storage.Dataset,
			backend:     cfg.Storage.Backend,
			path:        cfg.Storage.Path,
			region:      cfg.Storage.Region,
			endpoint:    cfg.Storage.Endpoint,
			s3PathStyle: cfg.Storage.S3PathStyle,
		},
		adapter: adapterChoice{
			kind:    cfg.Adapter.Type,
			url:     cfg.Adapter.URL,
			channel: cfg.Adapter.Channel,
			headers: cfg.Adapter.Headers,
			timeout: cfg.Adapter.Timeout.Duration,
			retries: cfg.Adapter.Retries,
		},
	}

	if v := c.StringSlice("symbols"); len(v) > 0 {
		s.symbols = splitSymbols(v)
	}
	if v := c.String("pipeline-name"); v != "" {
		s.pipelineName = v
	}
	if c.Bool("full-refresh") {
		s.mode = types.ModeFullRefresh
	}
	if v := c.Int("lookback-days"); v > 0 {
		s.lookbackDays = v
	}
	if v := c.String("dataset"); v != "" {
		s.storage.dataset = v
	}
	if v := c.String("storage-backend"); v != "" {
		s.storage.backend = v
	}
	if v := c.String("storage-path"); v != "" {
		s.storage.path = v
	}
	if v := c.String("region"); v != "" {
		s.storage.region = v
	}
	if v := c.String("endpoint"); v != "" {
		s.storage.endpoint = v
	}
	if c.Bool("s3-path-style") {
		s.storage.s3PathStyle = true
	}
	if v := c.String("adapter"); v != "" {
		s.adapter.kind = v
	}
	if v := c.String("adapter-url"); v != "" {
		s.adapter.url = v
	}
	if v := c.String("adapter-channel"); v != "" {
		s.adapter.channel = v
	}

	s.applyDefaults()
	return s, s.validate()
}

func (s *runSettings) applyDefaults() {
	if s.pipelineName == "" {
		s.pipelineName = defaultPipelineName
	}
	if s.mode == "" {
		s.mode = types.ModeIncremental
	}
	if s.storage.dataset == "" {
		s.storage.dataset = s.pipelineName
	}
	if s.storage.backend == "" {
		s.storage.backend = "fs"
	}
	if s.storage.backend == "fs" && s.storage.path == "" {
		s.storage.path = "./stockpipe_data"
	}
}

func (s *runSettings) validate() error {
	if len(s.symbols) == 0 {
		return fmt.Errorf("no symbols configured: pass --symbols or set pipeline.symbols in the config file")
	}
	if !s.mode.Valid() {
		return fmt.Errorf("invalid mode %q (must be incremental or full_refresh)", s.mode)
	}
	switch s.storage.backend {
	case "fs", "memory":
	case "s3":
		if s.storage.path == "" {
			return fmt.Errorf("--storage-path is required for the s3 backend (bucket/prefix)")
		}
	default:
		return fmt.Errorf("unsupported storage-backend: %s (must be fs, s3, or memory)", s.storage.backend)
	}
	switch s.adapter.kind {
	case "", "webhook", "redis":
	default:
		return fmt.Errorf("unsupported adapter: %s (must be webhook or redis)", s.adapter.kind)
	}
	return nil
}

// splitSymbols flattens repeatable and comma-separated symbol flags.
func splitSymbols(values []string) []string {
	var symbols []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part != "" {
				symbols = append(symbols, part)
			}
		}
	}
	return symbols
}

// buildWarehouse creates the warehouse for the chosen backend.
func buildWarehouse(choice storageChoice, runID, day string) (*warehouse.LodeWarehouse, error) {
	cfg := warehouse.Config{
		Dataset: choice.dataset,
		RunID:   runID,
		Day:     day,
	}

	switch choice.backend {
	case "fs":
		return warehouse.NewFSWarehouse(cfg, choice.path)
	case "memory":
		return warehouse.NewMemoryWarehouse(cfg)
	case "s3":
		bucket, prefix := warehouse.ParseS3Path(choice.path)
		return warehouse.NewS3Warehouse(cfg, warehouse.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       choice.region,
			Endpoint:     choice.endpoint,
			UsePathStyle: choice.s3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported storage-backend: %s", choice.backend)
	}
}

// buildAdapter creates the completion notification adapter, or nil when
// none is configured.
func buildAdapter(choice adapterChoice) (adapter.Adapter, error) {
	retries := 0
	if choice.retries != nil {
		retries = *choice.retries
	}

	switch choice.kind {
	case "":
		return nil, nil
	case "webhook":
		return webhookNew(choice, retries)
	case "redis":
		return redisNew(choice, retries)
	default:
		return nil, fmt.Errorf("unsupported adapter: %s", choice.kind)
	}
}

// RunSummary is the run command's rendered output.
type RunSummary struct {
	RunID            string `json:"run_id"`
	PipelineName     string `json:"pipeline_name"`
	Mode             string `json:"mode"`
	DataDateRange    string `json:"data_date_range"`
	SymbolsProcessed int    `json:"symbols_processed"`
	SymbolsSucceeded int    `json:"symbols_succeeded"`
	SymbolsEmpty     int    `json:"symbols_empty"`
	SymbolsFailed    int    `json:"symbols_failed"`
	RowsLoaded       int    `json:"rows_loaded"`
	Duration         string `json:"duration"`
}

func runAction(c *cli.Context) error {
	settings, err := resolveSettings(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), exitInvalid)
	}

	// One run id shared by the orchestrator, the storage partition
	// layout, and the logger.
	runID := pipeline.NewRunID()
	startTime := time.Now()
	day := startTime.UTC().Format(types.DateLayout)

	logger := log.NewLogger(runID, settings.pipelineName)
	defer func() { _ = logger.Sync() }()

	wh, err := buildWarehouse(settings.storage, runID, day)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to initialize warehouse: %v", err), exitLoadFailed)
	}
	defer func() { _ = wh.Close() }()

	collector := metrics.NewCollector(settings.pipelineName, settings.storage.backend, runID, string(settings.mode))

	orchestrator, err := pipeline.NewOrchestrator(&pipeline.Config{
		PipelineName: settings.pipelineName,
		RunID:        runID,
		Symbols:      settings.symbols,
		Mode:         settings.mode,
		LookbackDays: settings.lookbackDays,
		Source:       yahoo.New(),
		Warehouse:    wh,
		Logger:       logger,
		Collector:    collector,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), exitInvalid)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	result, err := orchestrator.Execute(ctx)
	if err != nil {
		// Reset and load failures are the only fatal orchestrator
		// errors; per-symbol failures are outcomes, not errors.
		return cli.Exit(fmt.Sprintf("run failed: %v", err), exitLoadFailed)
	}

	snap := collector.Snapshot()
	logger.Sugar().Debugf(
		"run metrics: fetched=%d empty=%d failed=%d rows=%d metadata_degraded=%d writes_ok=%d writes_failed=%d",
		snap.SymbolsFetched, snap.SymbolsEmpty, snap.SymbolsFailed,
		snap.RowsEmitted, snap.MetadataDegraded,
		snap.WarehouseWriteSuccess, snap.WarehouseWriteFailure,
	)

	publishCompletion(ctx, settings, logger, result)

	if !c.Bool("quiet") {
		r, err := render.NewRenderer(c)
		if err != nil {
			return cli.Exit(err.Error(), exitInvalid)
		}
		summary := RunSummary{
			RunID:            result.RunID,
			PipelineName:     settings.pipelineName,
			Mode:             string(settings.mode),
			DataDateRange:    fmt.Sprintf("%s to %s", result.StartDate.Format(types.DateLayout), result.EndDate.Format(types.DateLayout)),
			SymbolsProcessed: result.SymbolsProcessed,
			SymbolsSucceeded: result.SymbolsSucceeded,
			SymbolsEmpty:     result.SymbolsEmpty,
			SymbolsFailed:    result.SymbolsFailed,
			RowsLoaded:       result.RowsLoaded,
			Duration:         result.Duration.Round(time.Millisecond).String(),
		}
		if err := r.Render(summary); err != nil {
			return cli.Exit(err.Error(), exitInvalid)
		}
	}

	// The run command exits 0 whenever the loop completed and the
	// commit landed, regardless of per-symbol outcomes. Monitoring
	// rows carry the per-symbol verdicts.
	return cli.Exit("", exitSuccess)
}

// publishCompletion sends the completion event when an adapter is
// configured. Notification failures are logged, never fatal: the data is
// already committed by the time the event is published.
func publishCompletion(ctx context.Context, settings *runSettings, logger *log.Logger, result *pipeline.RunResult) {
	a, err := buildAdapter(settings.adapter)
	if err != nil {
		logger.Warn("adapter setup failed", map[string]any{"error": err.Error()})
		return
	}
	if a == nil {
		return
	}
	defer func() { _ = a.Close() }()

	event := adapter.FromResult(settings.pipelineName, string(settings.mode), settings.storage.backend, result)
	if err := a.Publish(ctx, event); err != nil {
		logger.Warn("completion notification failed", map[string]any{
			"adapter": settings.adapter.kind,
			"error":   err.Error(),
		})
		return
	}
	logger.Info("completion notification published", map[string]any{"adapter": settings.adapter.kind})
}
