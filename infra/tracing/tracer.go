package tracing

import (
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// InitGlobalTracer installs a jaeger tracer configured from JAEGER_* environment variables.
// Without JAEGER_AGENT_HOST or JAEGER_ENDPOINT the noop tracer stays in place.
func InitGlobalTracer(serviceName string) (io.Closer, error) {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = serviceName
	}
	if cfg.Reporter == nil || (cfg.Reporter.LocalAgentHostPort == "" && cfg.Reporter.CollectorEndpoint == "") {
		logrus.Info("tracing disabled, no jaeger agent configured")
		return noopCloser{}, nil
	}

	tracer, closer, err := cfg.NewTracer()
	if err != nil {
		return nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	logrus.Infof("tracing enabled, reporting to %s%s", cfg.Reporter.LocalAgentHostPort, cfg.Reporter.CollectorEndpoint)
	return closer, nil
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }
