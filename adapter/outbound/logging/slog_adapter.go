package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ajkula/GoSubmit/config"
	"github.com/ajkula/GoSubmit/domain/port/outbound"
)

type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// represents a single log entry to be processed asynchronously
type LogMessage struct {
	Level LogLevel
	Msg   string
	Args  []any
	Time  time.Time
}

// implements the Logger interface using Go's structured logging (slog)
// with asynchronous processing to avoid blocking hot paths
type SlogAdapter struct {
	logger    *slog.Logger
	logChan   chan LogMessage
	ctx       context.Context
	cancel    context.CancelFunc
	slogLevel *slog.LevelVar
	done      chan struct{}
}

func NewSlogAdapter(cfg *config.Config) outbound.Logger {
	return newSlogAdapter(cfg, os.Stdout)
}

func newSlogAdapter(cfg *config.Config, w io.Writer) *SlogAdapter {
	ctx, cancel := context.WithCancel(context.Background())

	// LevelVar allows dynamic level changes
	levelVar := &slog.LevelVar{}
	levelVar.Set(parseSlogLevel(cfg.General.LogLevel))

	channelSize := cfg.Logging.ChannelSize
	if channelSize <= 0 {
		channelSize = 1000
	}

	adapter := &SlogAdapter{
		logger:    slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelVar})),
		logChan:   make(chan LogMessage, channelSize),
		ctx:       ctx,
		cancel:    cancel,
		slogLevel: levelVar,
		done:      make(chan struct{}),
	}

	go adapter.processLogs()

	return adapter
}

// UpdateLevel changes the minimum level dynamically
func (s *SlogAdapter) UpdateLevel(logLvl string) {
	normalizedLevel := strings.ToLower(logLvl)
	s.slogLevel.Set(parseSlogLevel(normalizedLevel))
	s.Info("Logger level updated dynamically", "new_level", normalizedLevel)
}

// handles messages asynchronously
func (s *SlogAdapter) processLogs() {
	defer close(s.done)

	for {
		select {
		case msg := <-s.logChan:
			s.writeLog(msg)
		case <-s.ctx.Done():
			// drain whatever is still queued
			for {
				select {
				case msg := <-s.logChan:
					s.writeLog(msg)
				default:
					return
				}
			}
		}
	}
}

// converts string level to slog.Level
func parseSlogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// performs the logging operation
func (s *SlogAdapter) writeLog(msg LogMessage) {
	switch msg.Level {
	case LevelError:
		s.logger.Error(msg.Msg, msg.Args...)
	case LevelWarn:
		s.logger.Warn(msg.Msg, msg.Args...)
	case LevelInfo:
		s.logger.Info(msg.Msg, msg.Args...)
	case LevelDebug:
		s.logger.Debug(msg.Msg, msg.Args...)
	}
}

func (s *SlogAdapter) sendLog(level LogLevel, msg string, args ...any) {
	select {
	case s.logChan <- LogMessage{
		Level: level,
		Msg:   msg,
		Args:  args,
		Time:  time.Now(),
	}:
	default:
		// chan full, drop rather than block the caller
	}
}

func (s *SlogAdapter) shouldLog(level LogLevel) bool {
	switch s.slogLevel.Level() {
	case slog.LevelError:
		return level == LevelError
	case slog.LevelWarn:
		return level <= LevelWarn
	case slog.LevelInfo:
		return level <= LevelInfo
	case slog.LevelDebug:
		return level <= LevelDebug
	default:
		return level <= LevelInfo
	}
}

func (s *SlogAdapter) Error(msg string, args ...any) {
	if !s.shouldLog(LevelError) {
		return
	}
	s.sendLog(LevelError, msg, args...)
}

func (s *SlogAdapter) Warn(msg string, args ...any) {
	if !s.shouldLog(LevelWarn) {
		return
	}
	s.sendLog(LevelWarn, msg, args...)
}

func (s *SlogAdapter) Info(msg string, args ...any) {
	if !s.shouldLog(LevelInfo) {
		return
	}
	s.sendLog(LevelInfo, msg, args...)
}

func (s *SlogAdapter) Debug(msg string, args ...any) {
	if !s.shouldLog(LevelDebug) {
		return
	}
	s.sendLog(LevelDebug, msg, args...)
}

// Shutdown stops the adapter and waits for queued messages to flush
func (s *SlogAdapter) Shutdown() {
	s.cancel()
	<-s.done
}
