package telemetry

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// ProfilerConfig selects what the Pyroscope agent pushes and where
type ProfilerConfig struct {
	Enabled              bool
	ServerAddress        string
	ApplicationName      string
	BasicAuthUser        string
	BasicAuthPassword    string
	ProfileTypes         []string // pyroscope names, e.g. "cpu", "inuse_space"
	MutexProfileFraction int
	BlockProfileRate     int
	Tags                 map[string]string
}

var knownProfiles = map[string]pyroscope.ProfileType{
	string(pyroscope.ProfileCPU):           pyroscope.ProfileCPU,
	string(pyroscope.ProfileAllocObjects):  pyroscope.ProfileAllocObjects,
	string(pyroscope.ProfileAllocSpace):    pyroscope.ProfileAllocSpace,
	string(pyroscope.ProfileInuseObjects):  pyroscope.ProfileInuseObjects,
	string(pyroscope.ProfileInuseSpace):    pyroscope.ProfileInuseSpace,
	string(pyroscope.ProfileGoroutines):    pyroscope.ProfileGoroutines,
	string(pyroscope.ProfileMutexCount):    pyroscope.ProfileMutexCount,
	string(pyroscope.ProfileMutexDuration): pyroscope.ProfileMutexDuration,
	string(pyroscope.ProfileBlockCount):    pyroscope.ProfileBlockCount,
	string(pyroscope.ProfileBlockDuration): pyroscope.ProfileBlockDuration,
}

// Profiler wraps a running Pyroscope agent. A disabled Profiler is a no-op.
type Profiler struct {
	mu    sync.Mutex
	agent *pyroscope.Profiler
	log   *zap.Logger
}

// NewProfiler starts continuous profiling when cfg.Enabled is set
func NewProfiler(cfg ProfilerConfig, log *zap.Logger) (*Profiler, error) {
	p := &Profiler{log: log}
	if !cfg.Enabled {
		log.Info("Profiling disabled")
		return p, nil
	}
	if cfg.ServerAddress == "" {
		return nil, errors.New("profiling server address is required")
	}
	if cfg.ApplicationName == "" {
		return nil, errors.New("profiling application name is required")
	}
	types, err := profileTypes(cfg.ProfileTypes)
	if err != nil {
		return nil, err
	}

	if cfg.MutexProfileFraction > 0 {
		runtime.SetMutexProfileFraction(cfg.MutexProfileFraction)
	}
	if cfg.BlockProfileRate > 0 {
		runtime.SetBlockProfileRate(cfg.BlockProfileRate)
	}

	p.agent, err = pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		Tags:              cfg.Tags,
		ProfileTypes:      types,
		Logger:            zapPyroscope{log.Sugar()},
	})
	if err != nil {
		return nil, fmt.Errorf("start profiler: %w", err)
	}

	log.Info("Profiling enabled",
		zap.String("server_address", cfg.ServerAddress),
		zap.Strings("profile_types", cfg.ProfileTypes),
	)
	return p, nil
}

var defaultProfiles = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocObjects,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseObjects,
	pyroscope.ProfileInuseSpace,
}

// profileTypes maps names to pyroscope types. Empty means CPU and heap.
func profileTypes(names []string) ([]pyroscope.ProfileType, error) {
	if len(names) == 0 {
		return defaultProfiles, nil
	}
	types := make([]pyroscope.ProfileType, 0, len(names))
	for _, name := range names {
		pt, ok := knownProfiles[name]
		if !ok {
			return nil, fmt.Errorf("unknown profile type %q", name)
		}
		types = append(types, pt)
	}
	return types, nil
}

// IsEnabled reports whether the agent is running
func (p *Profiler) IsEnabled() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.agent != nil
}

// Stop flushes the last profiles. Calling it twice is safe.
func (p *Profiler) Stop() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.agent == nil {
		return nil
	}
	err := p.agent.Stop()
	p.agent = nil
	if err != nil {
		return fmt.Errorf("stop profiler: %w", err)
	}
	p.log.Info("Profiler stopped")
	return nil
}

// EnableSpanProfiles links CPU samples to the active span so traces can jump
// to the matching flame graph. It reports false when tracing is off.
func (tp *TracerProvider) EnableSpanProfiles() bool {
	if !tp.IsEnabled() {
		return false
	}
	otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp.sdk))
	tp.log.Info("Span profiles enabled")
	return true
}

type zapPyroscope struct {
	s *zap.SugaredLogger
}

func (z zapPyroscope) Infof(format string, args ...any)  { z.s.Infof(format, args...) }
func (z zapPyroscope) Debugf(format string, args ...any) { z.s.Debugf(format, args...) }
func (z zapPyroscope) Errorf(format string, args ...any) { z.s.Errorf(format, args...) }
