package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewAppLoggerWithConfig(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAppLoggerWithConfig(&buf, true)
	if logger == nil {
		t.Fatal("日志实例不应为nil")
	}
	if !logger.debug {
		t.Error("调试模式应为true")
	}
	if logger.fileHandle != nil {
		t.Error("外部输出时不应持有文件句柄")
	}
}

func TestAppLogger_Debug(t *testing.T) {
	tests := []struct {
		name      string
		debugMode bool
		message   string
		expectLog bool
	}{
		{"调试模式下输出", true, "测试调试消息", true},
		{"非调试模式下不输出", false, "这条不应该出现", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewAppLoggerWithConfig(&buf, tt.debugMode)
			logger.Debug(tt.message)
			output := buf.String()
			hasLog := strings.Contains(output, tt.message)
			if hasLog != tt.expectLog {
				t.Errorf("期望有日志输出=%v，实际=%v", tt.expectLog, hasLog)
			}
			if tt.expectLog && !strings.Contains(output, "[DEBUG]") {
				t.Error("调试日志应包含 [DEBUG] 前缀")
			}
		})
	}
}

func TestAppLogger_Info(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAppLoggerWithConfig(&buf, false)
	logger.Info("测试信息: %s", "参数值")
	output := buf.String()
	if !strings.Contains(output, "[INFO]") {
		t.Error("信息日志应包含 [INFO] 前缀")
	}
	if !strings.Contains(output, "测试信息: 参数值") {
		t.Error("日志应包含格式化后的消息")
	}
}

func TestAppLogger_Warn(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAppLoggerWithConfig(&buf, false)
	logger.Warn("测试警告: %d", 123)
	output := buf.String()
	if !strings.Contains(output, "[WARN]") {
		t.Error("警告日志应包含 [WARN] 前缀")
	}
	if !strings.Contains(output, "测试警告: 123") {
		t.Error("日志应包含格式化后的消息")
	}
}

func TestAppLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAppLoggerWithConfig(&buf, false)
	logger.Error("测试错误: %v", "详细信息")
	output := buf.String()
	if !strings.Contains(output, "[ERROR]") {
		t.Error("错误日志应包含 [ERROR] 前缀")
	}
	if !strings.Contains(output, "测试错误: 详细信息") {
		t.Error("日志应包含格式化后的消息")
	}
}

func TestAppLogger_NilSafety(t *testing.T) {
	var logger *AppLogger = nil
	logger.Debug("不应panic")
	logger.Info("不应panic")
	logger.Warn("不应panic")
	logger.Error("不应panic")
}

func TestAppLogger_Close(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (*AppLogger, error)
	}{
		{"关闭无文件句柄的日志", func() (*AppLogger, error) {
			var buf bytes.Buffer
			logger := NewAppLoggerWithConfig(&buf, false)
			return logger, logger.Close()
		}},
		{"关闭nil日志", func() (*AppLogger, error) {
			var logger *AppLogger = nil
			return logger, logger.Close()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			if err != nil {
				t.Errorf("关闭日志不应返回错误: %v", err)
			}
		})
	}
}

func TestContainsPathTraversal(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"正常路径", "/var/log/app.log", false},
		{"包含..", "/var/../etc/passwd", true},
		{"包含../", "../secret.txt", true},
		{"包含./", "./local.log", false},
		{"Windows上级目录", "..\\config.ini", true},
		{"文件名以两个点开头", "/var/log/..hidden.log", false},
		{"空路径", "", false},
		{"文件名包含点", "/var/log/app.2024.log", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := containsPathTraversal(tt.path)
			if result != tt.expected {
				t.Errorf("containsPathTraversal(%q) = %v，期望 %v", tt.path, result, tt.expected)
			}
		})
	}
}

func TestIsDebug(t *testing.T) {
	tests := []struct {
		name       string
		ginMode    string
		nexusDebug string
		expected   bool
	}{
		{"debug模式", "debug", "", true},
		{"release模式", "release", "", false},
		{"test模式", "test", "", false},
		{"NEXUS_DEBUG开启", "release", "true", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GIN_MODE", tt.ginMode)
			t.Setenv("NEXUS_DEBUG", tt.nexusDebug)
			result := IsDebug()
			if result != tt.expected {
				t.Errorf("IsDebug() = %v，期望 %v (GIN_MODE=%s)", result, tt.expected, tt.ginMode)
			}
		})
	}
}

func TestCreateLogger_DebugFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexus.log")
	t.Setenv("DEBUG_FILE", path)
	t.Setenv("GIN_MODE", "release")

	logger := CreateLogger()
	logger.Info("写入文件: %d", 42)
	appLog, ok := logger.(*AppLogger)
	if !ok {
		t.Fatalf("CreateLogger 应返回 *AppLogger，实际 %T", logger)
	}
	if err := appLog.Close(); err != nil {
		t.Fatalf("关闭日志失败: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	if !strings.Contains(string(data), "写入文件: 42") {
		t.Errorf("日志文件内容不符合预期: %s", data)
	}
}

func TestCreateDebugFileOutput_RejectsTraversal(t *testing.T) {
	t.Setenv("DEBUG_FILE", "../escape.log")
	out, handle, warning := createDebugFileOutput()
	if out != os.Stdout || handle != nil {
		t.Error("路径穿越应回退到 stdout")
	}
	if warning == "" {
		t.Error("路径穿越应返回警告")
	}
}

func TestAppLogger_MultipleWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAppLoggerWithConfig(&buf, true)
	logger.Debug("第一条")
	logger.Info("第二条")
	logger.Warn("第三条")
	logger.Error("第四条")
	output := buf.String()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 4 {
		t.Errorf("期望4行日志，实际 %d 行", len(lines))
	}
}

func TestAppLogger_Named(t *testing.T) {
	var buf bytes.Buffer
	root := NewAppLoggerWithConfig(&buf, true)
	child := root.Named("registry")
	child.Info("模型已添加: %s", "custom-1")
	child.Debug("调试")

	output := buf.String()
	if !strings.Contains(output, "[INFO] [registry] 模型已添加: custom-1") {
		t.Errorf("子日志应带组件前缀，实际: %q", output)
	}
	if !strings.Contains(output, "[DEBUG] [registry] 调试") {
		t.Errorf("子日志应继承调试模式，实际: %q", output)
	}

	nested := child.(*AppLogger).Named("ollama")
	buf.Reset()
	nested.Warn("x")
	if !strings.Contains(buf.String(), "[registry] [ollama] x") {
		t.Errorf("嵌套前缀错误: %q", buf.String())
	}
	if err := child.(*AppLogger).Close(); err != nil {
		t.Errorf("子日志关闭不应出错: %v", err)
	}
}
