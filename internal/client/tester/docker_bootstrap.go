package tester

import (
	"context"
	"fmt"
	"strings"

	"chorddht/internal/domain"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// DockerBootstrap discovers ring nodes by container name suffix and
// network membership, for clusters started via docker-compose.
type DockerBootstrap struct {
	Suffix  string // e.g. "localtest-node"
	Port    int    // e.g. 4000
	Network string // e.g. "chord-net"
}

// NewDockerBootstrap creates a Docker-based bootstrapper.
func NewDockerBootstrap(suffix string, port int, network string) *DockerBootstrap {
	return &DockerBootstrap{
		Suffix:  strings.TrimSpace(suffix),
		Port:    port,
		Network: strings.TrimSpace(network),
	}
}

// Discover returns the addresses of running containers whose name
// contains Suffix and that are attached to Network.
func (d *DockerBootstrap) Discover(ctx context.Context) ([]string, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	defer func() { _ = cli.Close() }()

	containers, err := cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("container list failed: %w", err)
	}

	var addrs []string
	for _, c := range containers {
		name := ""
		for _, n := range c.Names {
			n = strings.TrimPrefix(n, "/")
			if strings.Contains(n, d.Suffix) {
				name = n
				break
			}
		}
		if name == "" {
			continue
		}

		net, ok := c.NetworkSettings.Networks[d.Network]
		if !ok || net.IPAddress == "" {
			continue
		}

		// use the container name (resolvable over the compose network's
		// embedded DNS) rather than its IP, which is not stable across
		// restarts.
		addrs = append(addrs, fmt.Sprintf("%s:%d", name, d.Port))
	}

	return addrs, nil
}

// Register and Deregister are no-ops: container membership is the
// source of truth, there is nothing separate to record.
func (d *DockerBootstrap) Register(ctx context.Context, node *domain.Node) error   { return nil }
func (d *DockerBootstrap) Deregister(ctx context.Context, node *domain.Node) error { return nil }
