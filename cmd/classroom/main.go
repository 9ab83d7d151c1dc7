package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"classroom_fetcher/internal/config"
	"classroom_fetcher/internal/domain"
	"classroom_fetcher/internal/metrics"
	"classroom_fetcher/internal/notify"
	"classroom_fetcher/internal/publisher"
	"classroom_fetcher/internal/scheduler"
	"classroom_fetcher/internal/service"
	"classroom_fetcher/internal/source/zhiyun"
	"classroom_fetcher/internal/storage/postgres"
	"classroom_fetcher/internal/subtitle"
	"classroom_fetcher/internal/window"
)

type options struct {
	configPath  string
	mode        string
	granularity string
	anchor      string
	course      string
	teacher     string
	action      string
	format      string
	batchID     string
	limit       int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "config.yaml", "path to config file")
	flag.StringVar(&opts.mode, "mode", "mine", "course range: mine or all")
	flag.StringVar(&opts.granularity, "granularity", "week", "date window: day, week or month")
	flag.StringVar(&opts.anchor, "anchor", "", "date inside the window, YYYY-MM-DD (default today)")
	flag.StringVar(&opts.course, "course", "", "course name to search in all mode")
	flag.StringVar(&opts.teacher, "teacher", "", "lecturer name to search in all mode")
	flag.StringVar(&opts.action, "action", "list", "list, slides, subtitles, auto or history")
	flag.StringVar(&opts.format, "format", "", formatUsage())
	flag.StringVar(&opts.batchID, "batch", "", "batch id whose jobs history prints")
	flag.IntVar(&opts.limit, "limit", 20, "number of batches history prints")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, opts, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("classroom fetcher failed", "action", opts.action, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger) error {
	if cfg.Metrics.Addr != "" {
		srv := startMetrics(cfg.Metrics.Addr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	source := zhiyun.New(zhiyun.Config{
		BaseURL:        cfg.API.BaseURL,
		Token:          cfg.API.Token,
		Timeout:        cfg.API.Timeout,
		MaxAttempts:    cfg.API.Retry.MaxAttempts,
		InitialBackoff: cfg.API.Retry.InitialBackoff,
		MaxBackoff:     cfg.API.Retry.MaxBackoff,
	}, logger)

	var (
		recorder *service.Recorder
		batches  *postgres.BatchStore
		jobs     *postgres.JobStore
	)
	if cfg.Database.Host != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		logger.Info("connected to database")

		batches = postgres.NewBatchStore(db)
		jobs = postgres.NewJobStore(db)
		recorder = service.NewRecorder(batches, jobs, postgres.NewTransactionManager(db), logger)
	}

	if opts.action == "history" {
		if batches == nil {
			return errors.New("history needs a database, set database.host in config")
		}
		return showHistory(ctx, os.Stdout, batches, jobs, opts.batchID, opts.limit)
	}

	var queue service.TaskQueue
	if opts.action == "slides" || opts.action == "auto" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer rabbitMQ.Close()
		queue = rabbitMQ
	}

	notifier := buildNotifier(cfg.Notify, logger)

	if opts.action == "auto" {
		if !cfg.Auto.Enabled {
			return errors.New("auto download is disabled, set auto.enabled in config")
		}
		auto := service.NewAutoDownloadService(source, queue, recorder, notifier, logger, cfg.Auto, cfg.Download, time.Now)
		sched := scheduler.NewScheduler(auto, cfg.Auto.Interval, 0, logger)
		logger.Info("starting auto download", "interval", cfg.Auto.Interval, "granularity", cfg.Auto.Granularity)
		return sched.Start(ctx)
	}

	downloader := subtitle.NewDownloader(source, cfg.Download.SavePath, cfg.Download.MaxConcurrentTasks, logger)
	executor := service.NewSubtitleExecutor(downloader, logger)
	ws := service.NewWorkspace(source, queue, executor, recorder, notifier, logger, cfg.Download, time.Now)

	if err := load(ctx, ws, opts); err != nil {
		return err
	}

	switch opts.action {
	case "list":
		printSessions(os.Stdout, ws.Snapshot())
		return nil
	case "slides":
		submitted, err := ws.SubmitSlideJobs(ctx)
		if err != nil {
			return err
		}
		logger.Info("slide jobs submitted", "count", len(submitted))
		return nil
	case "subtitles":
		if opts.format != "" {
			f, err := domain.ParseSubtitleFormat(opts.format)
			if err != nil {
				return err
			}
			ws.SetSubtitleFormat(f)
		}
		if err := ws.OpenSubtitleDialog(ctx); err != nil {
			return err
		}
		outcome, err := ws.ConfirmSubtitleDownload(ctx)
		if err != nil {
			return err
		}
		logger.Info("subtitles downloaded",
			"success", outcome.Result.Success,
			"failed", outcome.Result.Failed,
		)
		return nil
	default:
		return fmt.Errorf("unknown action %q", opts.action)
	}
}

// load fills the session list for the requested range and window.
func load(ctx context.Context, ws *service.Workspace, opts options) error {
	mode, err := domain.ParseSourceRangeMode(opts.mode)
	if err != nil {
		return err
	}
	g, err := domain.ParseGranularity(opts.granularity)
	if err != nil {
		return err
	}

	// Configure the window without fetching, then let the range switch load it once.
	if err := ws.SetSourceRange(ctx, domain.RangeAll); err != nil {
		return err
	}
	if err := ws.SetGranularity(ctx, g); err != nil {
		return err
	}
	if opts.anchor != "" {
		anchor, err := window.ParseAnchor(opts.anchor, time.Local)
		if err != nil {
			return err
		}
		if err := ws.SetAnchor(ctx, anchor); err != nil {
			return err
		}
	}

	if mode == domain.RangeMine {
		return ws.SetSourceRange(ctx, domain.RangeMine)
	}

	ws.SetSearchTerms(opts.course, opts.teacher)
	if err := ws.SearchCourses(ctx); err != nil {
		return err
	}
	snapshot := ws.Snapshot()
	ids := make([]int64, 0, len(snapshot.Courses))
	for _, c := range snapshot.Courses {
		ids = append(ids, c.CourseID)
	}
	ws.SetSourceChecked(ids)
	return ws.DeriveFromCourses(ctx)
}

func buildNotifier(cfg config.NotifyConfig, logger *slog.Logger) service.Notifier {
	notifiers := notify.Multi{notify.NewLog(logger)}
	if cfg.DingURL != "" {
		notifiers = append(notifiers, notify.NewDingTalk(cfg.DingURL, 10*time.Second, logger))
	}
	return notifiers
}

func startMetrics(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("metrics server started", "addr", addr)
	return srv
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}
