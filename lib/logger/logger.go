package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Settings 用于配置日志的设置
type Settings struct {
	Path       string // 为空时输出到 stderr
	Name       string
	Ext        string
	TimeFormat string
	Level      string
}

// Setup 配置全局 logrus 实例
func Setup(settings *Settings) error {
	level := logrus.InfoLevel
	if settings.Level != "" {
		parsed, err := logrus.ParseLevel(settings.Level)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		level = parsed
	}
	timeFormat := settings.TimeFormat
	if timeFormat == "" {
		timeFormat = "2006-01-02"
	}

	var out io.Writer = os.Stderr
	if settings.Path != "" {
		// 如果目录不存在，尝试创建
		if err := os.MkdirAll(settings.Path, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create log directory: %v", err)
		}
		currentDate := time.Now().Format(timeFormat)
		logFileName := fmt.Sprintf("%s_%s.%s", settings.Name, currentDate, settings.Ext)
		logFile, err := os.OpenFile(filepath.Join(settings.Path, logFileName), os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %v", err)
		}
		out = logFile
	}

	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	logrus.SetLevel(level)
	logrus.Debug("Logging setup complete.")
	return nil
}

func Debug(args ...interface{}) { logrus.Debug(args...) }
func Info(args ...interface{})  { logrus.Info(args...) }
func Warn(args ...interface{})  { logrus.Warn(args...) }
func Error(args ...interface{}) { logrus.Error(args...) }
