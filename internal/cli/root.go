// Package cli 命令行入口：scan / serve / watch / version
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jar-analysis/jar-analysis-go/internal/config"
)

// 进程退出码
const (
	ExitOK      = 0
	ExitError   = 1
	ExitFlagged = 2 // 有类文件达到报告阈值，或发现非标准类文件
)

// errFlagged 扫描本身成功但存在可疑结果
var errFlagged = errors.New("suspicious classes found")

type app struct {
	v          *viper.Viper
	configPath string
	cfg        *config.Config
	logger     *logrus.Logger
	logOut     io.Writer
}

// NewRootCmd 创建根命令
func NewRootCmd() *cobra.Command {
	return newRootCmd(os.Stderr)
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), logOut: logOut}

	rootCmd := &cobra.Command{
		Use:                   "jarscan [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "jarscan inspects JAR class files for obfuscation and malicious indicators.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (YAML)")
	flags.BoolP("verbose", "v", false, "report every class and enable debug logging")
	flags.IntP("workers", "w", 0, "number of scan workers (0 = all CPUs)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("ignore-keywords", "", "file with suspicious keywords to ignore, one per line")

	bindFlags(a.v, flags, map[string]string{
		"scanner.verbose":              "verbose",
		"scanner.workers":              "workers",
		"log.level":                    "log-level",
		"scanner.ignore_keywords_file": "ignore-keywords",
	})

	rootCmd.AddCommand(
		newScanCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

// bindFlags 把命令行参数绑定到配置键，参数优先于配置文件和环境变量
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if f := flags.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

// init 加载配置并创建日志，命令参数已绑定到 viper
func (a *app) init() error {
	cfg, err := config.LoadWithViper(a.v, a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	a.logger = config.InitLogger(&cfg.Log, cfg.Scanner.Verbose)
	a.logger.SetOutput(a.logOut)
	if a.configPath != "" {
		a.logger.WithField("config", a.configPath).Debug("Config loaded")
	}
	return nil
}

// Execute 运行命令并返回进程退出码
func Execute() int {
	return run(NewRootCmd(), os.Args[1:])
}

func run(rootCmd *cobra.Command, args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errFlagged):
		return ExitFlagged
	default:
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return ExitError
	}
}
