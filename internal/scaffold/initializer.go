package scaffold

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dyluth/wikisync/internal/config"
	"github.com/dyluth/wikisync/internal/gamedata"
)

//go:embed templates/*
var templatesFS embed.FS

const (
	// ConfigFile is the name of the generated configuration file
	ConfigFile = "wikisync.yml"

	// DataDir holds the generated sample game data
	DataDir = "data"
)

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize writes wikisync.yml and a sample game data file into dir.
// If force is true, existing files are replaced.
func Initialize(dir string, force bool, w io.Writer) error {
	if force {
		if err := handleForce(dir, w); err != nil {
			return err
		}
	}

	files, err := getTemplateFiles()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(dir, DataDir), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", DataDir, err)
	}

	for _, file := range files {
		path := filepath.Join(dir, file.Path)
		if err := os.WriteFile(path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}

	return validateCreatedFiles(dir)
}

// handleForce removes the files Initialize is about to write.
func handleForce(dir string, w io.Writer) error {
	for _, name := range []string{ConfigFile, filepath.Join(DataDir, "game.yml")} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		fmt.Fprintf(w, "⚠️  Removing existing %s...\n", name)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return nil
}

// getTemplateFiles reads the embedded templates.
func getTemplateFiles() ([]FileInfo, error) {
	templates := []struct {
		name, path string
	}{
		{"templates/wikisync.yml.tmpl", ConfigFile},
		{"templates/game.yml.tmpl", filepath.Join(DataDir, "game.yml")},
	}

	files := make([]FileInfo, 0, len(templates))
	for _, tmpl := range templates {
		content, err := templatesFS.ReadFile(tmpl.name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s template: %w", filepath.Base(tmpl.path), err)
		}
		files = append(files, FileInfo{Path: tmpl.path, Content: content, Permissions: 0644})
	}
	return files, nil
}

// validateCreatedFiles loads both files the way every other command does.
func validateCreatedFiles(dir string) error {
	cfg, err := config.Load(filepath.Join(dir, ConfigFile))
	if err != nil {
		return fmt.Errorf("created %s is invalid: %w", ConfigFile, err)
	}
	if _, err := gamedata.Load(cfg.GameData); err != nil {
		return fmt.Errorf("created game data is invalid: %w", err)
	}
	return nil
}

// PrintSuccess prints the created files and next steps.
func PrintSuccess(w io.Writer) {
	fmt.Fprintln(w, "\n✅ Successfully initialized wikisync!")
	fmt.Fprintln(w, "\nCreated:")
	fmt.Fprintf(w, "  ✓ %s\n", ConfigFile)
	fmt.Fprintf(w, "  ✓ %s/game.yml\n", DataDir)
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintf(w, "  1. Point wiki.api_url in %s at your wiki\n", ConfigFile)
	fmt.Fprintln(w, "  2. Export the current game data to data/game.yml")
	fmt.Fprintln(w, "  3. Set WIKISYNC_PASSWORD and run 'wikisync update monsters --dry-run'")
}
