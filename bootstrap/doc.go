// Package bootstrap runs a streamkit binary through a fixed lifecycle:
// start components, run hooks and configure callbacks, report readiness,
// then wait for a signal (Run) or a finite task (RunTask) and shut down in
// reverse order.
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil { ... }
//	_ = app.RegisterComponent(srv)
//	return app.Run(context.Background())
package bootstrap
