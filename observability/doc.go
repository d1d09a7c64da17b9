// Package observability wires OpenTelemetry metrics for streamkit.
//
//	mp, err := observability.InitMeter(ctx, cfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewStreamMetrics(observability.Meter("streamd"))
//	reg, _ := sse.NewRegistry[sse.Event](regCfg, sse.WithObserver(metrics))
//
// With metrics disabled InitMeter installs a provider without readers, so
// instruments stay valid and record nothing.
package observability
