// Package metric provides prometheus metric registration for dashstream.
//
// A Registry namespaces collectors by component name so the client, the
// state tracker, and any embedding application can register metrics against
// one prometheus.Registry without collisions. Server exposes the registry
// over HTTP for scraping, with a plain /health endpoint alongside.
//
// Components hold their own typed metric structs and register them once at
// construction:
//
//	registry := metric.NewRegistry()
//	c, _ := client.New(url, client.WithMetrics(registry))
//	srv := metric.NewServer(":9090", "/metrics", registry)
//	_ = srv.Start()
package metric
