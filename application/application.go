// Package application 为 livectl 等工具提供运行时容器：
// 统一处理配置文件加载与日志初始化。
package application

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	zlog "github.com/lk2023060901/live-garden-go/pkg/log"
	"github.com/lk2023060901/live-garden-go/pkg/metrics"
	zviper "github.com/lk2023060901/live-garden-go/pkg/util/viper"
)

// registerMetricsOnce 保证重复调用 Run 时指标只注册一次。
var registerMetricsOnce sync.Once

// Application 持有进程级配置与按名称划分的模块日志器。
type Application struct {
	cfg     *zviper.Config
	loggers map[string]*zlog.MLogger
}

// New 创建一个空的 Application。
func New() *Application {
	return &Application{}
}

// Run 初始化应用：解析配置文件路径并加载，初始化日志，并注册指标。
// 配置文件路径的优先级从低到高：
//  1. 默认 ./config.yaml（不存在时跳过）；
//  2. 环境变量 LIVEGARDEN_CONFIG_FILE_PATH；
//  3. 命令行 --config <path> 或 --config=<path>。
func (a *Application) Run() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.initLogging(); err != nil {
		return err
	}

	registerMetricsOnce.Do(func() {
		metrics.Register(prometheus.DefaultRegisterer)
	})
	return nil
}

// Config 返回已加载的配置，未加载时为 nil。
func (a *Application) Config() *zviper.Config {
	return a.cfg
}

// Logger 返回按名称配置的模块日志器，名称未配置时退回全局日志器。
func (a *Application) Logger(name string) *zlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return &zlog.MLogger{Logger: zlog.L()}
}

func (a *Application) loadConfig() (*zviper.Config, error) {
	configPath := "./config.yaml"
	explicit := false

	if envPath := os.Getenv("LIVEGARDEN_CONFIG_FILE_PATH"); envPath != "" {
		configPath = envPath
		explicit = true
	}

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value after --config")
			}
			configPath = args[i+1]
			explicit = true
			i++
			continue
		}
		if strings.HasPrefix(arg, "--config=") {
			if val := strings.TrimPrefix(arg, "--config="); val != "" {
				configPath = val
				explicit = true
			}
		}
	}

	if _, err := os.Stat(configPath); err != nil {
		if explicit {
			return nil, fmt.Errorf("config file %q not found: %w", configPath, err)
		}
		// 默认路径不存在时按无配置运行。
		return nil, nil
	}

	cfg := zviper.New()
	if err := cfg.LoadFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file %q: %w", configPath, err)
	}
	return cfg, nil
}

func (a *Application) initLogging() error {
	if err := a.initGlobalLoggerFromEnv(); err != nil {
		return err
	}
	return a.initModuleLoggersFromConfig()
}

// initGlobalLoggerFromEnv 按 LIVEGARDEN_LOG_* 环境变量配置全局日志器。
//
//   - LIVEGARDEN_LOG_ENABLE: "1"/"true" 开启输出，其余视为关闭；
//   - LIVEGARDEN_LOG_LEVEL: 日志级别，默认 "info"；
//   - LIVEGARDEN_LOG_STDOUT: 是否输出到标准输出，默认 false；
//   - LIVEGARDEN_LOG_FILE_DIR / LIVEGARDEN_LOG_FILE: 文件输出位置；
//   - LIVEGARDEN_LOG_FORMAT: "text" 或 "json"，默认 "text"。
func (a *Application) initGlobalLoggerFromEnv() error {
	enabled := getenvBool("LIVEGARDEN_LOG_ENABLE", false)

	cfg := &zlog.Config{
		Level:               getenvDefault("LIVEGARDEN_LOG_LEVEL", "info"),
		Format:              getenvDefault("LIVEGARDEN_LOG_FORMAT", "text"),
		Stdout:              getenvBool("LIVEGARDEN_LOG_STDOUT", false),
		DisableErrorVerbose: true,
		File: zlog.FileLogConfig{
			RootPath: getenvDefault("LIVEGARDEN_LOG_FILE_DIR", ""),
			Filename: getenvDefault("LIVEGARDEN_LOG_FILE", ""),
		},
	}
	if !enabled {
		cfg.Stdout = false
		cfg.File.Filename = ""
	}

	logger, props, err := zlog.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("init global logger from env: %w", err)
	}
	zlog.ReplaceGlobals(logger, props)
	return nil
}

// initModuleLoggersFromConfig 从配置文件 "logging" 段创建命名日志器。
//
// 例：
//
//	logging:
//	  danmaku:
//	    level: debug
//	    stdout: true
//	    file:
//	      rootpath: ./logs
//	      filename: danmaku.log
func (a *Application) initModuleLoggersFromConfig() error {
	if a.cfg == nil {
		return nil
	}

	raw := make(map[string]zlog.Config)
	if err := a.cfg.UnmarshalKey("logging", &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	a.loggers = make(map[string]*zlog.MLogger, len(raw))
	for name, lc := range raw {
		cfgCopy := lc
		logger, _, err := zlog.InitLogger(&cfgCopy)
		if err != nil {
			return fmt.Errorf("init module logger %q: %w", name, err)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger}
	}
	return nil
}

func getenvDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getenvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
