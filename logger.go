package vermclient

import "k8s.io/klog/v2"

// Logger receives the client's diagnostics: one Infof line per exchange with
// the Verm server (method, path, status, latency and request id) and an
// Errorf line when the server answers a Store in a way Verm never should.
// A Logger may be shared between clients, so it must tolerate concurrent calls.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger drops every message. Tests use it to keep output quiet.
var NopLogger Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// DefaultLogger writes through klog. Exchange lines only appear with -v=2 or
// higher; protocol errors are always written.
var DefaultLogger Logger = klogLogger{}

type klogLogger struct{}

func (klogLogger) Infof(format string, args ...any) {
	if v := klog.V(2); v.Enabled() {
		v.InfofDepth(1, format, args...)
	}
}

func (klogLogger) Errorf(format string, args ...any) {
	klog.ErrorfDepth(1, format, args...)
}
