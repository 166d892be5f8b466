package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

type loadMode string

const (
	modeCreate      loadMode = "create"
	modeCreatePatch loadMode = "create-patch"
	modeLifecycle   loadMode = "lifecycle"

	loadStatus = "Ready"
)

type config struct {
	addr        string
	total       int
	totalSet    bool
	duration    time.Duration
	concurrency int
	timeout     time.Duration
	mode        loadMode
	item        string
	value       decimal.Decimal
	nameTag     string
	outputPath  string
}

func parseConfig(args []string) (config, error) {
	var cfg config
	var modeValue, valueRaw string

	fs := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.addr, "addr", "http://localhost:8080", "orders API base URL")
	fs.IntVar(&cfg.total, "total", 400, "total scenarios to execute in count mode; in duration mode only used when explicitly set")
	fs.DurationVar(&cfg.duration, "duration", 0, "optional time-based run duration (e.g. 10m, 15m)")
	fs.IntVar(&cfg.concurrency, "concurrency", 40, "number of concurrent workers")
	fs.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-request timeout")
	fs.StringVar(&modeValue, "mode", string(modeCreate), "load mode: create | create-patch | lifecycle")
	fs.StringVar(&cfg.item, "item", "burger", "order item")
	fs.StringVar(&valueRaw, "value", "9.50", "order value")
	fs.StringVar(&cfg.nameTag, "name-tag", "load", "customer name prefix")
	fs.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	mode, err := parseMode(modeValue)
	if err != nil {
		return cfg, err
	}
	cfg.mode = mode

	value, err := decimal.NewFromString(strings.TrimSpace(valueRaw))
	if err != nil {
		return cfg, fmt.Errorf("parse value: %w", err)
	}
	cfg.value = value
	cfg.addr = strings.TrimRight(strings.TrimSpace(cfg.addr), "/")

	switch {
	case cfg.addr == "":
		return cfg, errors.New("addr is required")
	case cfg.duration < 0:
		return cfg, errors.New("duration must be >= 0")
	case cfg.duration == 0 && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when duration is not set")
	case cfg.duration > 0 && cfg.totalSet && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when explicitly set with duration")
	case cfg.concurrency <= 0:
		return cfg, errors.New("concurrency must be > 0")
	case cfg.timeout <= 0:
		return cfg, errors.New("timeout must be > 0")
	case !cfg.value.IsPositive():
		return cfg, errors.New("value must be > 0")
	case strings.TrimSpace(cfg.item) == "":
		return cfg, errors.New("item is required")
	case strings.TrimSpace(cfg.nameTag) == "":
		return cfg, errors.New("name-tag is required")
	}

	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	switch loadMode(strings.TrimSpace(value)) {
	case modeCreate:
		return modeCreate, nil
	case modeCreatePatch:
		return modeCreatePatch, nil
	case modeLifecycle:
		return modeLifecycle, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	result := run(cfg)

	printReport(os.Stdout, result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}

	if result.FailedScenarios > 0 {
		os.Exit(1)
	}
}

func run(cfg config) report {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = cfg.concurrency
	httpClient := &http.Client{Transport: transport}
	defer httpClient.CloseIdleConnections()

	startedAt := time.Now()
	runID := fmt.Sprintf("%d-%d", startedAt.UnixNano(), os.Getpid())
	col := newCollector()
	client := newOrdersClient(cfg.addr, httpClient, cfg.timeout, col)

	jobs := make(chan int, cfg.concurrency*2)
	var failures int64
	var wg sync.WaitGroup

	for workerID := 0; workerID < cfg.concurrency; workerID++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if runErr := runScenario(client, cfg, id, runID); runErr != nil {
					atomic.AddInt64(&failures, 1)
				}
			}
		}()
	}

	dispatchJobs(jobs, cfg)
	wg.Wait()

	result := col.buildReport(startedAt, time.Since(startedAt))
	if result.FailedScenarios == 0 && failures > 0 {
		result.FailedScenarios = failures
		result.ErrorRate = ratio(result.FailedScenarios, result.TotalScenarios)
	}
	return result
}

func dispatchJobs(jobs chan<- int, cfg config) {
	defer close(jobs)

	if cfg.duration <= 0 {
		for i := 0; i < cfg.total; i++ {
			jobs <- i
		}
		return
	}

	timer := time.NewTimer(cfg.duration)
	defer timer.Stop()

	for i := 0; ; i++ {
		if cfg.totalSet && i >= cfg.total {
			return
		}

		select {
		case <-timer.C:
			return
		case jobs <- i:
		}
	}
}

// runScenario выполняет один сценарий выбранного режима и записывает его итог.
func runScenario(client *ordersClient, cfg config, index int, runID string) (err error) {
	scenarioStart := time.Now()
	defer func() {
		result := outcome{status: "ok", ok: true}
		if err != nil {
			result = outcome{status: "failed"}
		}
		client.col.record(scenarioMethod, time.Since(scenarioStart), result)
	}()

	created, err := client.create(createRequest{
		Name:     fmt.Sprintf("%s-%s-%d", cfg.nameTag, runID, index),
		Items:    []string{cfg.item},
		Quantity: 1,
		Value:    cfg.value,
	})
	if err != nil {
		return err
	}
	if created.ID <= 0 {
		return errors.New("create response returned empty order id")
	}

	if cfg.mode == modeCreate {
		return nil
	}

	if err := client.patchStatus(created.ID, loadStatus); err != nil {
		return err
	}

	if cfg.mode == modeCreatePatch {
		return nil
	}

	fetched, err := client.get(created.ID)
	if err != nil {
		return err
	}
	if fetched.Status != loadStatus {
		return fmt.Errorf("order %d: %w", created.ID, errLostUpdate)
	}

	deleted, err := client.delete(created.ID)
	if err != nil {
		return err
	}
	if deleted.ID != created.ID {
		return fmt.Errorf("delete returned order %d, want %d", deleted.ID, created.ID)
	}
	return nil
}
