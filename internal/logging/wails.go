package logging

// WailsLogger adapts Logger to the Wails runtime logger interface.
type WailsLogger struct {
	log *Logger
}

func NewWailsLogger(log *Logger) *WailsLogger {
	return &WailsLogger{log: log.Named("wails")}
}

func (w *WailsLogger) Print(message string)   { w.log.Info(message) }
func (w *WailsLogger) Trace(message string)   { w.log.Debug(message) }
func (w *WailsLogger) Debug(message string)   { w.log.Debug(message) }
func (w *WailsLogger) Info(message string)    { w.log.Info(message) }
func (w *WailsLogger) Warning(message string) { w.log.Warn(message) }
func (w *WailsLogger) Error(message string)   { w.log.Error(message) }
func (w *WailsLogger) Fatal(message string)   { w.log.Fatal(message) }
