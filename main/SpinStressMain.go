package main

import (
	"bytes"
	"flag"
	"os"
	"sync"

	"go.uber.org/zap"

	"spinlock/common/config"
	"spinlock/common/file"
	"spinlock/common/lock"
	"spinlock/common/logger"
	"spinlock/common/utils/sys"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file (.json, .yaml, .toml)")
		workers    = flag.Int("workers", 0, "override stress.workers")
		iterations = flag.Int("iterations", 0, "override stress.iterations")
		observer   = flag.String("observer", "", "override stress.observer: none, log or count")
		reportPath = flag.String("report", "", "override stress.report")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			logger.Fatalf("%v", err)
		}
	}
	if *workers > 0 {
		cfg.Stress.Workers = *workers
	}
	if *iterations > 0 {
		cfg.Stress.Iterations = *iterations
	}
	if *observer != "" {
		cfg.Stress.Observer = *observer
	}
	if *reportPath != "" {
		cfg.Stress.Report = *reportPath
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	logger.InitLogger(cfg.LoggerOptions())
	defer logger.Sync()
	logger.Debugf("main goroutine %d running", sys.GetGID())

	rp, err := run(cfg)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	if !rp.ok() {
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) (report, error) {
	var counts *lock.CountingObserver
	switch cfg.Stress.Observer {
	case "log":
		lock.SetObserver(lock.LogObserver{})
	case "count":
		counts = &lock.CountingObserver{}
		lock.SetObserver(counts)
	}
	defer lock.SetObserver(nil)

	var rp report
	rp.Runs = append(rp.Runs,
		runLocker("spinlock", &counterLock, cfg.Stress.Workers, cfg.Stress.Iterations),
		runLocker("sync.Mutex", &sync.Mutex{}, cfg.Stress.Workers, cfg.Stress.Iterations),
	)
	if counts != nil {
		c := counts.Counts(&counterLock)
		rp.Counts = &c
		if logger.Logger != nil {
			logger.Logger.Info("observer counts", zap.Object("counts", c))
		}
	}
	if hold := cfg.Stress.Hold.Std(); hold > 0 {
		p := probeExclusion(&counterLock, hold)
		rp.Probe = &p
	}

	var buf bytes.Buffer
	if err := rp.render(&buf); err != nil {
		return rp, err
	}
	os.Stdout.Write(buf.Bytes())
	if cfg.Stress.Report != "" {
		if err := file.WriteFileWithSync(cfg.Stress.Report, buf.Bytes()); err != nil {
			return rp, err
		}
		logger.Infof("report written to %s", cfg.Stress.Report)
	}
	return rp, nil
}
