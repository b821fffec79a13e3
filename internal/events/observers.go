package events

import (
	"log/slog"
)

// LoggingObserver logs every event.
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates an observer that logs events at info level.
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) OnEvent(event Event) error {
	o.logger.Info("event", "type", event.Type, "data", event.Data)
	return nil
}

func (o *LoggingObserver) Name() string { return "LoggingObserver" }

func (o *LoggingObserver) ShouldHandle(string) bool { return true }

// FuncObserver adapts a function to Observer. An empty Types list handles
// every event.
type FuncObserver struct {
	ObserverName string
	Types        []string
	Fn           func(Event) error
}

func (o *FuncObserver) OnEvent(event Event) error { return o.Fn(event) }

func (o *FuncObserver) Name() string { return o.ObserverName }

func (o *FuncObserver) ShouldHandle(eventType string) bool {
	if len(o.Types) == 0 {
		return true
	}
	for _, t := range o.Types {
		if t == eventType {
			return true
		}
	}
	return false
}
