package logconfig

import (
	myLogger "github.com/sirupsen/logrus"
)

// This output format is used in the test (has terminal).
func ConfigDebugLogger() {
	myLogger.SetReportCaller(true)
	myLogger.SetLevel(myLogger.DebugLevel)
	myLogger.SetFormatter(terminalFormatter())
}

func ConfigInfoLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(terminalFormatter())
}

// This output format is used in production: json lines, one per record.
func ConfigProductionLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(&myLogger.JSONFormatter{})
}

// ConfigLogger sets the level by name ("debug", "info", "warn", ...).
// Debug also reports the caller.
func ConfigLogger(level string) error {
	lvl, err := myLogger.ParseLevel(level)
	if err != nil {
		return err
	}
	myLogger.SetReportCaller(lvl >= myLogger.DebugLevel)
	myLogger.SetLevel(lvl)
	myLogger.SetFormatter(terminalFormatter())
	return nil
}

func terminalFormatter() *myLogger.TextFormatter {
	return &myLogger.TextFormatter{
		ForceColors:            true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	}
}
