package observe

// Telemetry bundles the instruments a component reports through.
// Nil members are treated as no-ops.
type Telemetry struct {
	Tracer  Tracer
	Metrics Metrics
	Logger  Logger
}

// NopTelemetry returns a bundle that records nothing.
func NopTelemetry() Telemetry {
	return Telemetry{
		Tracer:  NopTracer(),
		Metrics: NopMetrics(),
		Logger:  NopLogger(),
	}
}

// TelemetryFromObserver builds a bundle on the observer's providers.
func TelemetryFromObserver(obs Observer) (Telemetry, error) {
	if obs == nil {
		return Telemetry{}, ErrNilObserver
	}
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return Telemetry{}, err
	}
	return Telemetry{
		Tracer:  NewTracer(obs.Tracer()),
		Metrics: metrics,
		Logger:  obs.Logger(),
	}, nil
}

// OrNop returns t with every nil member replaced by its no-op.
func (t Telemetry) OrNop() Telemetry {
	if t.Tracer == nil {
		t.Tracer = NopTracer()
	}
	if t.Metrics == nil {
		t.Metrics = NopMetrics()
	}
	if t.Logger == nil {
		t.Logger = NopLogger()
	}
	return t
}
