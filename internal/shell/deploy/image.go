package deploy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
)

// =============================================================================
// Image Builder
// =============================================================================

// ImageBuilder builds and pushes the container images of a distribution
// through the local Docker daemon. Swarm stack deploys cannot build, so
// images must exist in a registry before deployment.
type ImageBuilder struct {
	cli    *client.Client
	logger *slog.Logger
}

// NewImageBuilder connects to the Docker daemon from the environment.
func NewImageBuilder(logger *slog.Logger) (*ImageBuilder, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageBuilder{cli: cli, logger: logger}, nil
}

// Close releases the daemon connection.
func (b *ImageBuilder) Close() error {
	return b.cli.Close()
}

// BuildSpec describes one image build.
type BuildSpec struct {
	ContextDir string
	Dockerfile string // relative to ContextDir
	Tag        string
	Args       map[string]*string
}

// Build runs one image build and drains the daemon's progress stream.
func (b *ImageBuilder) Build(ctx context.Context, spec BuildSpec) error {
	tar, err := archive.TarWithOptions(spec.ContextDir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("create build context: %w", err)
	}
	defer tar.Close()

	b.logger.Info("building image", "tag", spec.Tag, "context", spec.ContextDir)

	resp, err := b.cli.ImageBuild(ctx, tar, types.ImageBuildOptions{
		Tags:       []string{spec.Tag},
		Dockerfile: spec.Dockerfile,
		BuildArgs:  spec.Args,
		Remove:     true,
	})
	if err != nil {
		return fmt.Errorf("build %s: %w", spec.Tag, err)
	}
	defer resp.Body.Close()

	return drainBuildStream(resp.Body)
}

// Push uploads a built image to its registry.
func (b *ImageBuilder) Push(ctx context.Context, tag string, auth registry.AuthConfig) error {
	encoded, err := encodeAuth(auth)
	if err != nil {
		return err
	}

	b.logger.Info("pushing image", "tag", tag)

	reader, err := b.cli.ImagePush(ctx, tag, image.PushOptions{RegistryAuth: encoded})
	if err != nil {
		return fmt.Errorf("push %s: %w", tag, err)
	}
	defer reader.Close()

	return drainBuildStream(reader)
}

// Exists checks whether an image is present in the local daemon.
func (b *ImageBuilder) Exists(ctx context.Context, tag string) (bool, error) {
	_, _, err := b.cli.ImageInspectWithRaw(ctx, tag)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// drainBuildStream consumes a daemon JSON progress stream and surfaces the
// error frame the daemon reports on failure.
func drainBuildStream(r io.Reader) error {
	dec := json.NewDecoder(r)
	for {
		var frame struct {
			Error string `json:"error"`
		}
		if err := dec.Decode(&frame); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read daemon stream: %w", err)
		}
		if frame.Error != "" {
			return fmt.Errorf("daemon reported: %s", frame.Error)
		}
	}
}

func encodeAuth(auth registry.AuthConfig) (string, error) {
	payload, err := json.Marshal(auth)
	if err != nil {
		return "", fmt.Errorf("marshal registry auth: %w", err)
	}
	return base64.URLEncoding.EncodeToString(payload), nil
}
