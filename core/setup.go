package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// LoadConfigFiles reads and validates the backend configuration files from dir.
// Each file must exist under its required name (".yaml" or ".yml") and hold a
// non-empty YAML mapping. Files are validated concurrently.
func LoadConfigFiles(ctx context.Context, dir string) ([]contract.ConfigUpload, error) {
	uploads := make([]contract.ConfigUpload, len(schema.RequiredConfigFiles))
	g, _ := errgroup.WithContext(ctx)
	for i, file := range schema.RequiredConfigFiles {
		g.Go(func() error {
			path, err := findConfigFile(dir, file.FileName)
			if err != nil {
				return err
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file.FileName, err)
			}
			if err := validateYAMLMapping(content); err != nil {
				return fmt.Errorf("%s: %w", file.FileName, err)
			}
			uploads[i] = contract.ConfigUpload{Field: file.Field, FileName: file.FileName, Content: content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return uploads, nil
}

// findConfigFile resolves the required file name, accepting the ".yml" spelling too.
func findConfigFile(dir, name string) (string, error) {
	candidates := []string{name, strings.TrimSuffix(name, ".yaml") + ".yml"}
	for _, c := range candidates {
		path := filepath.Join(dir, c)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("missing config file %s in %s", name, dir)
}

func validateYAMLMapping(content []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	if len(doc) == 0 {
		return errors.New("expected a non-empty YAML mapping")
	}
	return nil
}

// ExecuteSetup validates and uploads the backend configuration files, then
// records in the session that setup is done.
func ExecuteSetup(ctx context.Context, cfg *contract.Config, svc *Services, dir string) error {
	uploads, err := LoadConfigFiles(ctx, dir)
	if err != nil {
		return err
	}
	if err := svc.Client.UploadConfig(ctx, uploads); err != nil {
		return backendFailure(err)
	}

	store := resultStore(svc)
	session, err := LoadSession(store)
	if err != nil {
		return err
	}
	session.ConfigDone = true
	session.System = cfg.System
	if err := SaveSession(store, session); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✅ Uploaded %d config files to %s\n", len(uploads), cfg.BackendURL)
	return nil
}
