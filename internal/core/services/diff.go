package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
)

// diffContextLines is the number of unchanged lines around each hunk.
const diffContextLines = 3

// DiffVersions compares two stored versions of path ordinal by ordinal.
// Version range checks are the caller's job; a version with no chunks
// compares as empty. Ordinals are visited in ascending order so the
// report is stable.
func DiffVersions(
	ctx context.Context, store driven.VersionStore, path string, fromVersion, toVersion int,
) (*domain.DiffReport, error) {
	doc, err := store.GetDocument(ctx, path)
	if err != nil {
		return nil, err
	}

	from, err := chunkTexts(ctx, store, doc.ID, fromVersion)
	if err != nil {
		return nil, err
	}
	to, err := chunkTexts(ctx, store, doc.ID, toVersion)
	if err != nil {
		return nil, err
	}

	report := &domain.DiffReport{
		Path:        path,
		FromVersion: fromVersion,
		ToVersion:   toVersion,
		Chunks:      []domain.ChunkDiff{},
	}
	var combined []string

	for _, ordinal := range unionOrdinals(from, to) {
		a, inFrom := from[ordinal]
		b, inTo := to[ordinal]

		cd := domain.ChunkDiff{
			Ordinal: ordinal,
			FromLen: len([]rune(a)),
			ToLen:   len([]rune(b)),
		}
		switch {
		case !inFrom:
			cd.Status = domain.DiffAdded
			report.Summary.Added++
		case !inTo:
			cd.Status = domain.DiffRemoved
			report.Summary.Removed++
		case a == b:
			cd.Status = domain.DiffUnchanged
			report.Summary.Unchanged++
		default:
			cd.Status = domain.DiffChanged
			report.Summary.Changed++
		}

		if cd.Status != domain.DiffUnchanged {
			cd.Diff, err = unifiedDiff(a, b,
				fmt.Sprintf("%s@v%d:chunk_%d", path, fromVersion, ordinal),
				fmt.Sprintf("%s@v%d:chunk_%d", path, toVersion, ordinal),
			)
			if err != nil {
				return nil, fmt.Errorf("diff chunk %d: %w", ordinal, err)
			}
			combined = append(combined, cd.Diff)
		}
		report.Chunks = append(report.Chunks, cd)
	}

	report.Summary.Total = len(report.Chunks)
	report.Combined = strings.Join(combined, "\n\n")
	return report, nil
}

func chunkTexts(ctx context.Context, store driven.VersionStore, docID int64, version int) (map[int]string, error) {
	chunks, err := store.ListChunks(ctx, docID, version)
	if err != nil {
		return nil, fmt.Errorf("load v%d chunks: %w", version, err)
	}
	texts := make(map[int]string, len(chunks))
	for _, c := range chunks {
		texts[c.Ordinal] = c.Text
	}
	return texts, nil
}

func unionOrdinals(a, b map[int]string) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// unifiedDiff returns a line-based unified diff with no trailing newline.
func unifiedDiff(a, b, fromName, toName string) (string, error) {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(a),
		B:        splitLines(b),
		FromFile: fromName,
		ToFile:   toName,
		Context:  diffContextLines,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(text, "\n"), nil
}

// splitLines splits text into newline-terminated lines. A trailing newline
// does not produce an extra empty line and CRLF endings are normalised.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r") + "\n"
	}
	return lines
}
