// Package deploy contains the remote deployment collaborators: an SSH swarm
// deployer, a Portainer stack-API client and an image build/push helper.
// Everything here performs I/O; the deployment decisions themselves are
// computed from distribution state by pure functions.
package deploy

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/compose"
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/distribution"
)

// stackKindOrder is the -c flag order of a stack deploy command: override
// first, then proxy, then dev so local patches win the compose merge.
var stackKindOrder = []compose.Kind{compose.KindOverride, compose.KindProxy, compose.KindDev}

// StackCommand builds the docker stack deploy command for a distribution
// whose files live under remoteRoot on the target host. Pure; the deployer
// only ships it over SSH.
func StackCommand(dist *distribution.Distribution, remoteRoot string) string {
	distDir := path.Join(remoteRoot, distribution.DistSubdir, dist.Name)

	var flags []string
	for _, kind := range stackKindOrder {
		if _, ok := dist.Docs[kind]; ok {
			flags = append(flags, "-c "+path.Join(distDir, kind.Filename()))
		}
	}
	return fmt.Sprintf("docker stack deploy %s %s", strings.Join(flags, " "), dist.Name)
}

// =============================================================================
// Swarm Deployer
// =============================================================================

// SwarmConfig configures the SSH swarm deployer.
type SwarmConfig struct {
	Host           string // target host
	Port           int    // default 22
	User           string
	PrivateKey     []byte        // PEM-encoded key material
	CommandTimeout time.Duration // default 10 minutes; stack deploys pull images
	ConnectTimeout time.Duration // default 10 seconds
}

// SwarmDeployer runs docker swarm commands on a remote manager node over
// SSH.
type SwarmDeployer struct {
	cfg    SwarmConfig
	signer ssh.Signer
	logger *slog.Logger

	mu     sync.Mutex
	client *ssh.Client
}

// NewSwarmDeployer creates a deployer from a decrypted private key.
func NewSwarmDeployer(cfg SwarmConfig, logger *slog.Logger) (*SwarmDeployer, error) {
	signer, err := ssh.ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("parse SSH private key: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = 10 * time.Minute
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	return &SwarmDeployer{cfg: cfg, signer: signer, logger: logger}, nil
}

// connect establishes the SSH connection if not already connected.
func (d *SwarmDeployer) connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil {
		_, _, err := d.client.SendRequest("keepalive@dreamtools", true, nil)
		if err == nil {
			return nil
		}
		d.client.Close()
		d.client = nil
	}

	config := &ssh.ClientConfig{
		User:            d.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(d.signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         d.cfg.ConnectTimeout,
	}

	addr := net.JoinHostPort(d.cfg.Host, strconv.Itoa(d.cfg.Port))
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return fmt.Errorf("SSH dial %s: %w", addr, err)
	}
	d.client = client
	return nil
}

// Close closes the SSH connection.
func (d *SwarmDeployer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client != nil {
		err := d.client.Close()
		d.client = nil
		return err
	}
	return nil
}

// run executes one remote command and returns its stdout.
func (d *SwarmDeployer) run(ctx context.Context, cmd string) (string, error) {
	if err := d.connect(); err != nil {
		return "", err
	}

	d.mu.Lock()
	session, err := d.client.NewSession()
	d.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("create SSH session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	d.logger.Debug("running remote command", "cmd", cmd, "host", d.cfg.Host)

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(d.cfg.CommandTimeout):
		return "", fmt.Errorf("command timeout after %v: %s", d.cfg.CommandTimeout, cmd)
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("remote command failed: %w: %s", err, stderr.String())
		}
	}
	return stdout.String(), nil
}

// Init initializes swarm mode on the target host.
func (d *SwarmDeployer) Init(ctx context.Context) error {
	_, err := d.run(ctx, "docker swarm init")
	return err
}

// Leave forces the target host out of the swarm.
func (d *SwarmDeployer) Leave(ctx context.Context) error {
	_, err := d.run(ctx, "docker swarm leave --force")
	return err
}

// ServiceList returns the raw docker service listing.
func (d *SwarmDeployer) ServiceList(ctx context.Context) (string, error) {
	return d.run(ctx, "docker service list")
}

// Deploy runs the stack deploy command for dist against the distribution
// files under remoteRoot on the target host.
func (d *SwarmDeployer) Deploy(ctx context.Context, dist *distribution.Distribution, remoteRoot string) error {
	cmd := StackCommand(dist, remoteRoot)
	d.logger.Info("deploying stack", "distribution", dist.Name, "host", d.cfg.Host)
	_, err := d.run(ctx, cmd)
	return err
}
