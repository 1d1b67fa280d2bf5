// Package importer pulls text files from configured sources (local
// directories or git repositories) into the practice store. It only ever
// adds: deleting a stored text would destroy its scheduling history, so
// texts that disappear from a source are left untouched.
package importer

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/memoline/memoline/internal/domain"
	"github.com/memoline/memoline/internal/fingerprint"
	"github.com/memoline/memoline/internal/gitsource"
	"github.com/memoline/memoline/internal/parser"
	"github.com/memoline/memoline/internal/repository"
)

// Importer reconciles configured text sources into the repository.
type Importer struct {
	repo     *repository.Repository
	reposDir string
}

// New creates an importer; reposDir is where git sources are checked out.
func New(repo *repository.Repository, reposDir string) *Importer {
	return &Importer{repo: repo, reposDir: reposDir}
}

// Run imports every source in turn. A failing source is logged and
// skipped; the others still run.
func (im *Importer) Run(sources []string) error {
	if len(sources) == 0 {
		slog.Info("no sources configured, nothing to import")
		return nil
	}

	known, err := im.knownFingerprints()
	if err != nil {
		return err
	}

	for _, source := range sources {
		path := source
		if isGitSource(source) {
			localPath, err := gitURLToLocalPath(im.reposDir, source)
			if err != nil {
				slog.Error("cannot determine local path for git source", "url", source, "error", err)
				continue
			}
			if err := gitsource.Sync(source, localPath); err != nil {
				slog.Error("git sync failed", "url", source, "error", err)
				continue
			}
			path = localPath
		}
		im.importDir(path, known)
	}
	return nil
}

// knownFingerprints hashes every stored text so re-imports can be skipped.
func (im *Importer) knownFingerprints() (map[string]bool, error) {
	texts, err := im.repo.ListTexts()
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(texts))
	for _, t := range texts {
		lines := make([]string, len(t.Lines))
		for i, l := range t.Lines {
			lines[i] = l.Text
		}
		known[fingerprint.Hash(t.Title, lines)] = true
	}
	return known, nil
}

func (im *Importer) importDir(dir string, known map[string]bool) {
	var imported, skipped int
	var importErrors []error

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isTextFile(d.Name()) {
			return nil
		}

		draft, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			importErrors = append(importErrors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}

		lines := make([]string, len(draft.Lines))
		for i, l := range draft.Lines {
			lines[i] = l.Text
		}
		hash := fingerprint.Hash(draft.Title, lines)
		if known[hash] {
			skipped++
			return nil
		}

		category := draft.Category
		if !domain.ValidCategory(category) {
			category = domain.CategoryOther
		}
		newLines := make([]repository.NewLine, len(draft.Lines))
		for i, l := range draft.Lines {
			newLines[i] = repository.NewLine{
				Text:          l.Text,
				Pronunciation: l.Pronunciation,
				Translation:   l.Translation,
			}
		}

		if _, err := im.repo.CreateText(draft.Title, category, newLines); err != nil {
			importErrors = append(importErrors, fmt.Errorf("storing %s: %w", path, err))
			return nil
		}
		known[hash] = true
		imported++
		slog.Info("imported text", "title", draft.Title, "file", path, "lines", len(newLines))
		return nil
	})

	if walkErr != nil {
		slog.Error("error walking source directory", "path", dir, "error", walkErr)
		return
	}

	slog.Info("import complete",
		"path", dir,
		"imported", imported,
		"skipped", skipped,
		"errors", len(importErrors),
	)
	for _, err := range importErrors {
		slog.Warn("import problem", "error", err)
	}
}

func isTextFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".txt" || ext == ".md"
}

func isGitSource(source string) bool {
	return strings.HasSuffix(source, ".git") ||
		strings.HasPrefix(source, "git@") ||
		strings.HasPrefix(source, "https://") ||
		strings.HasPrefix(source, "http://")
}

// gitURLToLocalPath maps a git URL onto a checkout path under baseDir.
func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		// scp-style git@host:user/repo.git addresses have no URL scheme.
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}

// EnsureReposDir creates the checkout directory for git sources.
func (im *Importer) EnsureReposDir() error {
	return os.MkdirAll(im.reposDir, os.ModePerm)
}
