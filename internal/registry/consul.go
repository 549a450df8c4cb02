// Package registry registers the service with Consul for discovery.
package registry

import (
	"fmt"
	"net"
	"strconv"

	capi "github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
)

// Registry registers the service with a Consul agent and deregisters it on
// shutdown. Registration is optional; a service without a Consul address runs
// standalone.
type Registry struct {
	client    *capi.Client
	serviceID string
	logger    *zerolog.Logger
}

// New connects to the Consul agent at addr.
func New(addr string, logger *zerolog.Logger) (*Registry, error) {
	cfg := capi.DefaultConfig()
	cfg.Address = addr

	client, err := capi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	return &Registry{client: client, logger: logger}, nil
}

// Register announces the service with an HTTP health check against /healthz.
// httpAddr is the listen address of the service, e.g. ":8080" or
// "10.0.0.5:8080".
func (r *Registry) Register(serviceName, httpAddr string) error {
	host, port, err := splitHostPort(httpAddr)
	if err != nil {
		return err
	}

	r.serviceID = fmt.Sprintf("%s-%s-%d", serviceName, host, port)

	registration := &capi.AgentServiceRegistration{
		ID:      r.serviceID,
		Name:    serviceName,
		Address: host,
		Port:    port,
		Check: &capi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/healthz", host, port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := r.client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("register service: %w", err)
	}

	r.logger.Info().
		Str("service_id", r.serviceID).
		Str("service_name", serviceName).
		Msg("registered with consul")

	return nil
}

// Deregister removes the service from the agent. Safe to call when Register
// never succeeded.
func (r *Registry) Deregister() {
	if r.serviceID == "" {
		return
	}

	if err := r.client.Agent().ServiceDeregister(r.serviceID); err != nil {
		r.logger.Error().Err(err).Str("service_id", r.serviceID).Msg("failed to deregister service")
		return
	}

	r.logger.Info().Str("service_id", r.serviceID).Msg("deregistered from consul")
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("parse http address %q: %w", addr, err)
	}
	if host == "" {
		host = "127.0.0.1"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("parse http port %q: %w", portStr, err)
	}

	return host, port, nil
}
