// Package pipeline assembles the transport stack a reporting session writes
// through. It is shared by the CLI and the MCP server.
package pipeline

import (
	"context"
	"fmt"

	"angles-reporter/src/angles"
	"angles-reporter/src/broker"
	"angles-reporter/src/config"
	"angles-reporter/src/logger"
	"angles-reporter/src/metrics"
	"angles-reporter/src/mirror"
	"angles-reporter/src/transport"
)

// Mode selects how reports leave the process.
type Mode int

const (
	// DirectMode sends reports to the Angles service only.
	DirectMode Mode = iota
	// MirroredMode sends reports to the service and republishes them to Redpanda.
	MirroredMode
	// DryRunMode keeps reports in memory and never touches the network.
	DryRunMode
)

func (m Mode) String() string {
	switch m {
	case DirectMode:
		return "direct"
	case MirroredMode:
		return "mirrored"
	case DryRunMode:
		return "dry-run"
	}
	return "unknown"
}

// Options adjusts Build beyond what the configuration holds.
type Options struct {
	DryRun bool

	// Broker replaces the Redpanda broker in MirroredMode. Build does not close it.
	Broker broker.Broker

	// Metrics instruments the outermost transport when set.
	Metrics *metrics.Collector
}

// DetectMode picks the mode: dry run wins, then brokers enable mirroring.
func DetectMode(cfg *config.Config, opts Options) Mode {
	switch {
	case opts.DryRun:
		return DryRunMode
	case cfg.MirrorEnabled() || opts.Broker != nil:
		return MirroredMode
	default:
		return DirectMode
	}
}

// Pipeline is an assembled transport stack.
type Pipeline struct {
	Mode Mode

	// Transport is what a reporting session writes through.
	Transport transport.Transport

	// Directory lists teams and environments. Nil in DryRunMode.
	Directory transport.Directory

	// Memory holds every record in DryRunMode. Nil otherwise.
	Memory *transport.MemoryTransport

	broker broker.Broker
}

// Build assembles the stack for cfg.
func Build(cfg *config.Config, opts Options, log logger.Logger) (*Pipeline, error) {
	if log == nil {
		log = logger.NewSilentLogger()
	}

	p := &Pipeline{Mode: DetectMode(cfg, opts)}

	if p.Mode == DryRunMode {
		p.Memory = transport.NewMemoryTransport()
		p.Transport = metrics.Instrument(p.Memory, opts.Metrics)
		log.Info("[Pipeline] Dry run: reports are kept in memory")
		return p, nil
	}

	client := angles.NewClient(cfg.BaseURL, cfg.APIToken, cfg.Timeout)
	client.SetLogger(log)
	remote := angles.NewTransport(client)
	p.Transport = remote
	p.Directory = remote

	if p.Mode == MirroredMode {
		brk := opts.Broker
		if brk == nil {
			rp, err := broker.NewRedpandaBroker(cfg.RedpandaBrokers, log)
			if err != nil {
				return nil, fmt.Errorf("failed to create Redpanda broker: %w", err)
			}
			// Fail at startup rather than on the first mirrored write.
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
			err = rp.Ping(ctx)
			cancel()
			if err != nil {
				rp.Close()
				return nil, err
			}
			p.broker = rp
			brk = rp
		}
		p.Transport = mirror.New(remote, brk, log)
		log.Info("[Pipeline] Mirroring reports to %v", cfg.RedpandaBrokers)
	}

	p.Transport = metrics.Instrument(p.Transport, opts.Metrics)
	return p, nil
}

// Close releases the broker Build created, if any.
func (p *Pipeline) Close() error {
	if p.broker != nil {
		return p.broker.Close()
	}
	return nil
}
