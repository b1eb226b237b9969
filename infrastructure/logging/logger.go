// Package logging provides structured logging shared by every component of the
// monitoring engine.
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ContextKey is the type used for context values carried by this package.
type ContextKey string

const (
	// RunIDKey identifies a single dispatcher/monitor/ingester invocation.
	RunIDKey ContextKey = "run_id"
	// ClusterKey identifies the cluster a log entry pertains to.
	ClusterKey ContextKey = "cluster"
)

// Logger wraps logrus.Logger with the fields this domain cares about.
type Logger struct {
	*logrus.Logger
	component string
}

// New creates a Logger for the named component ("dispatcher", "monitor",
// "auditingest", ...).
func New(component, level, format string) *Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	logger.SetOutput(os.Stdout)

	return &Logger{Logger: logger, component: component}
}

// NewFromEnv builds a Logger using LOG_LEVEL and LOG_FORMAT, defaulting to
// "info" and "json".
func NewFromEnv(component string) *Logger {
	level := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if level == "" {
		level = "info"
	}
	format := strings.TrimSpace(os.Getenv("LOG_FORMAT"))
	if format == "" {
		format = "json"
	}
	return New(component, level, format)
}

// WithContext returns an entry carrying the run id and cluster name found in ctx.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithField("component", l.component)
	if runID, ok := ctx.Value(RunIDKey).(string); ok && runID != "" {
		entry = entry.WithField("run_id", runID)
	}
	if cluster, ok := ctx.Value(ClusterKey).(string); ok && cluster != "" {
		entry = entry.WithField("cluster", cluster)
	}
	return entry
}

// WithCluster returns an entry scoped to a single cluster, independent of context.
func (l *Logger) WithCluster(cluster string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"component": l.component,
		"cluster":   cluster,
	})
}

// WithError returns an entry carrying the error and component.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"component": l.component,
		"error":     err.Error(),
	})
}

// NewRunID generates a correlation id for a single dispatcher/monitor/ingester run.
func NewRunID() string {
	return uuid.New().String()
}

// WithRunID attaches a run id to ctx.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// WithClusterName attaches a cluster name to ctx.
func WithClusterName(ctx context.Context, cluster string) context.Context {
	return context.WithValue(ctx, ClusterKey, cluster)
}

// ClusterFromContext retrieves the cluster name stashed by WithClusterName.
func ClusterFromContext(ctx context.Context) string {
	cluster, _ := ctx.Value(ClusterKey).(string)
	return cluster
}
