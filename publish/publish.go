// Package publish writes the rendered site bundle, either locally for
// preview or into a git repository that serves the live site.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"venuefeed/render"
)

const (
	commitUser  = "venuefeed-bot"
	commitEmail = "bot@venuefeed.local"
)

// Publisher assembles site bundles from a payload plus static template
// files.
type Publisher struct {
	templatesDir string
	logger       *slog.Logger
}

// New creates a Publisher reading templates from templatesDir.
func New(templatesDir string, logger *slog.Logger) *Publisher {
	return &Publisher{templatesDir: templatesDir, logger: logger}
}

// WriteLocal writes the template files and data.json into outDir so the
// bundle can be previewed without touching any remote.
func (p *Publisher) WriteLocal(payload render.Payload, template, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := p.copyTemplate(template, outDir); err != nil {
		return err
	}

	if err := writeJSON(filepath.Join(outDir, "data.json"), payload); err != nil {
		return err
	}

	p.logger.Info("wrote local bundle",
		"dir", outDir,
		"events", payload.TotalEvents)
	return nil
}

// Deploy clones repoURL, replaces its public/ directory with the
// bundle, and pushes to branch. A clone with no staged changes is a
// successful no-op.
func (p *Publisher) Deploy(ctx context.Context, payload render.Payload, template, repoURL, branch string) error {
	if repoURL == "" {
		return fmt.Errorf("no deploy repository configured")
	}
	if branch == "" {
		branch = "main"
	}

	workDir, err := os.MkdirTemp("", "venuefeed-deploy-*")
	if err != nil {
		return fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	repoDir := filepath.Join(workDir, "repo")

	p.logger.Info("cloning deploy repository", "repo", repoURL, "branch", branch)
	if err := p.git(ctx, workDir, "clone", "--depth", "1", "--branch", branch, repoURL, repoDir); err != nil {
		return fmt.Errorf("cloning %s: %w", repoURL, err)
	}
	if err := p.git(ctx, repoDir, "config", "user.name", commitUser); err != nil {
		return fmt.Errorf("configuring git identity: %w", err)
	}
	if err := p.git(ctx, repoDir, "config", "user.email", commitEmail); err != nil {
		return fmt.Errorf("configuring git identity: %w", err)
	}

	publicDir := filepath.Join(repoDir, "public")
	if err := p.copyTemplate(template, publicDir); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(publicDir, "data.json"), payload); err != nil {
		return err
	}

	if err := p.git(ctx, repoDir, "add", "public/"); err != nil {
		return fmt.Errorf("staging bundle: %w", err)
	}

	// Exit status 0 means the staged tree matches HEAD and there is
	// nothing to push.
	if err := p.git(ctx, repoDir, "diff", "--staged", "--quiet"); err == nil {
		p.logger.Info("no changes to deploy", "repo", repoURL)
		return nil
	}

	msg := fmt.Sprintf("Update %s - %s", payload.SiteName, time.Now().Format("2006-01-02 15:04"))
	if err := p.git(ctx, repoDir, "commit", "-m", msg); err != nil {
		return fmt.Errorf("committing bundle: %w", err)
	}
	if err := p.git(ctx, repoDir, "push", "origin", branch); err != nil {
		return fmt.Errorf("pushing to %s: %w", branch, err)
	}

	p.logger.Info("deployed bundle",
		"repo", repoURL,
		"branch", branch,
		"events", payload.TotalEvents)
	return nil
}

func (p *Publisher) git(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("git %s: %v: %s", args[0], err, stderr.String())
		}
		return fmt.Errorf("git %s: %w", args[0], err)
	}
	return nil
}

// copyTemplate copies the named template directory tree into dst.
// A missing template directory is tolerated so data-only sites still
// publish their data.json.
func (p *Publisher) copyTemplate(template, dst string) error {
	src := filepath.Join(p.templatesDir, template)
	info, err := os.Stat(src)
	if os.IsNotExist(err) {
		p.logger.Warn("template directory missing, writing data only", "template", template)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading template %s: %w", template, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("template %s is not a directory", template)
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}

func writeJSON(path string, payload render.Payload) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
