// Package certs provides HTTPS support for the decision API server.
//
// A Reloader holds the server certificate and re-reads the PEM files when
// their modification times change, so a renewed certificate is picked up
// without restarting the server:
//
//	r := certs.NewReloader("server.crt", "server.key", 5*time.Minute)
//	if err := r.Start(ctx); err != nil {
//		return err
//	}
//	tlsConfig, err := certs.ServerConfig(r, "1.3")
//
// Certificates that are expired or not yet valid are rejected at load time.
// A failed reload keeps the previous certificate.
package certs
