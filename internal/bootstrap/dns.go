package bootstrap

import (
	"context"

	"chorddht/internal/config"
	"chorddht/internal/domain"
	"chorddht/internal/logger"
)

// DNSBootstrap discovers peers via SRV or A/AAAA lookups (ResolveBootstrap)
// and, when register.enabled is set, delegates Register/Deregister to an
// embedded Route53Bootstrap so the same hosted zone used for discovery
// also advertises this node.
type DNSBootstrap struct {
	cfg      config.BootstrapConfig
	lgr      logger.Logger
	register *Route53Bootstrap
}

func NewDNSBootstrap(cfg config.BootstrapConfig, lgr logger.Logger) (*DNSBootstrap, error) {
	d := &DNSBootstrap{cfg: cfg, lgr: lgr}
	if cfg.Register.Enabled {
		r, err := NewRoute53Bootstrap(cfg.Register)
		if err != nil {
			return nil, err
		}
		d.register = r
	}
	return d, nil
}

func (d *DNSBootstrap) Discover(ctx context.Context) ([]string, error) {
	return ResolveBootstrap(d.cfg, d.lgr)
}

func (d *DNSBootstrap) Register(ctx context.Context, node *domain.Node) error {
	if d.register == nil {
		return nil
	}
	return d.register.Register(ctx, node)
}

func (d *DNSBootstrap) Deregister(ctx context.Context, node *domain.Node) error {
	if d.register == nil {
		return nil
	}
	return d.register.Deregister(ctx, node)
}
