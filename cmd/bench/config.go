package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// config is the full set of bench parameters. It can be read from a YAML
// file (-config); flags given explicitly on the command line win.
type config struct {
	Capacity int           `yaml:"capacity"`
	Workers  int           `yaml:"workers"`
	Duration time.Duration `yaml:"duration"`
	ReadPct  int           `yaml:"reads"`
	DelPct   int           `yaml:"deletes"`

	Keys    int     `yaml:"keys"`
	ZipfS   float64 `yaml:"zipf_s"`
	ZipfV   float64 `yaml:"zipf_v"`
	Seed    int64   `yaml:"seed"`
	Preload int     `yaml:"preload"` // 0 = cap/2

	PprofAddr   string `yaml:"pprof"` // empty = disabled
	MetricsAddr string `yaml:"http"`  // empty = disabled

	Log logConfig `yaml:"log"`
}

func defaultConfig() config {
	return config{
		Capacity:    100_000,
		Workers:     2 * runtime.GOMAXPROCS(0),
		Duration:    10 * time.Second,
		ReadPct:     80,
		DelPct:      0,
		Keys:        1_000_000,
		ZipfS:       1.1,
		ZipfV:       1.0,
		Seed:        time.Now().UnixNano(),
		MetricsAddr: ":8080",
		Log:         logConfig{Format: logFormatText, Level: "info"},
	}
}

// parseConfig builds the config from defaults, an optional YAML file and
// command-line flags, in that order of precedence (lowest first).
func parseConfig(args []string) (config, error) {
	cfg := defaultConfig()
	fl := cfg

	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file; explicit flags override its values")
	fs.IntVar(&fl.Capacity, "cap", cfg.Capacity, "cache capacity (entries)")
	fs.IntVar(&fl.Workers, "workers", cfg.Workers, "number of worker goroutines")
	fs.DurationVar(&fl.Duration, "duration", cfg.Duration, "benchmark duration")
	fs.IntVar(&fl.ReadPct, "reads", cfg.ReadPct, "read percentage [0..100]")
	fs.IntVar(&fl.DelPct, "deletes", cfg.DelPct, "delete percentage [0..100-reads]")
	fs.IntVar(&fl.Keys, "keys", cfg.Keys, "keyspace size")
	fs.Float64Var(&fl.ZipfS, "zipf_s", cfg.ZipfS, "Zipf s > 1 (skew)")
	fs.Float64Var(&fl.ZipfV, "zipf_v", cfg.ZipfV, "Zipf v >= 1")
	fs.Int64Var(&fl.Seed, "seed", cfg.Seed, "random seed")
	fs.IntVar(&fl.Preload, "preload", cfg.Preload, "preload entries (0 = cap/2)")
	fs.StringVar(&fl.PprofAddr, "pprof", cfg.PprofAddr, "serve pprof at addr (e.g. :6060); empty = disabled")
	fs.StringVar(&fl.MetricsAddr, "http", cfg.MetricsAddr, "serve Prometheus metrics at addr; empty = disabled")
	fs.StringVar(&fl.Log.Format, "log-format", cfg.Log.Format, "log format: text | json")
	fs.StringVar(&fl.Log.Level, "log-level", cfg.Log.Level, "log level: debug | info | warn | error")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if *configPath != "" {
		if err := loadConfigFile(*configPath, &cfg); err != nil {
			return config{}, err
		}
	}
	fs.Visit(func(f *flag.Flag) { applyFlag(&cfg, &fl, f.Name) })

	if cfg.Preload == 0 {
		cfg.Preload = cfg.Capacity / 2
	}
	return cfg, cfg.validate()
}

func loadConfigFile(path string, cfg *config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyFlag copies one explicitly set flag value from fl into cfg.
func applyFlag(cfg, fl *config, name string) {
	switch name {
	case "cap":
		cfg.Capacity = fl.Capacity
	case "workers":
		cfg.Workers = fl.Workers
	case "duration":
		cfg.Duration = fl.Duration
	case "reads":
		cfg.ReadPct = fl.ReadPct
	case "deletes":
		cfg.DelPct = fl.DelPct
	case "keys":
		cfg.Keys = fl.Keys
	case "zipf_s":
		cfg.ZipfS = fl.ZipfS
	case "zipf_v":
		cfg.ZipfV = fl.ZipfV
	case "seed":
		cfg.Seed = fl.Seed
	case "preload":
		cfg.Preload = fl.Preload
	case "pprof":
		cfg.PprofAddr = fl.PprofAddr
	case "http":
		cfg.MetricsAddr = fl.MetricsAddr
	case "log-format":
		cfg.Log.Format = fl.Log.Format
	case "log-level":
		cfg.Log.Level = fl.Log.Level
	}
}

func (c config) validate() error {
	var errs []error
	if c.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("capacity must be > 0, got %d", c.Capacity))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be > 0, got %d", c.Workers))
	}
	if c.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be > 0, got %s", c.Duration))
	}
	if c.ReadPct < 0 || c.DelPct < 0 || c.ReadPct+c.DelPct > 100 {
		errs = append(errs, fmt.Errorf("reads (%d) and deletes (%d) must be >= 0 and sum to at most 100", c.ReadPct, c.DelPct))
	}
	if c.Keys <= 0 {
		errs = append(errs, fmt.Errorf("keys must be > 0, got %d", c.Keys))
	}
	if c.ZipfS <= 1 || c.ZipfV < 1 {
		errs = append(errs, fmt.Errorf("zipf requires s > 1 and v >= 1, got s=%v v=%v", c.ZipfS, c.ZipfV))
	}
	if c.Preload < 0 {
		errs = append(errs, fmt.Errorf("preload must be >= 0, got %d", c.Preload))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != logFormatText && c.Log.Format != logFormatJSON {
		errs = append(errs, fmt.Errorf("unknown log format %q (use %s or %s)", c.Log.Format, logFormatText, logFormatJSON))
	}
	return errors.Join(errs...)
}
