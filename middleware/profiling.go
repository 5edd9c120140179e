package middleware

import (
	"github.com/grafana/pyroscope-go"

	"github.com/duynhne/classifieds-service/config"
)

var profiler *pyroscope.Profiler

// InitProfiling starts Pyroscope continuous profiling. Kubernetes metadata overrides
// the configured service name.
func InitProfiling(cfg config.ProfilingConfig) error {
	id := detectIdentity(cfg.ServiceName)

	var err error
	profiler, err = pyroscope.Start(pyroscope.Config{
		ApplicationName: id.Name,
		ServerAddress:   cfg.Endpoint,
		Tags: map[string]string{
			"service":   id.Name,
			"namespace": id.Namespace,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
		Logger: pyroscope.StandardLogger,
	})
	return err
}

// StopProfiling stops Pyroscope profiling
func StopProfiling() {
	if profiler != nil {
		_ = profiler.Stop()
	}
}
