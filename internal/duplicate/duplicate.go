// Package duplicate implements the duplicate-file detector, one of
// the boundary collaborators named in §9's design note: it groups
// scanned files by identical content hash and renders a deterministic,
// capped text block for the assembler's prompt context.
//
// Grounded on the teacher's scan.Cache hashing (internal/scan/cache.go)
// reused here as the equality key, and on the general
// "sort, cap, summarize" shape the rest of §9's collaborator notes
// prescribe.
package duplicate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hookguard/hookguard/internal/scan"
)

// Group is one set of files sharing a content hash.
type Group struct {
	Hash  string
	Files []string // relative paths, sorted
}

// Report is the duplicate detector's capped result.
type Report struct {
	Groups      []Group
	TotalGroups int // before MaxGroups truncation
	TopDirs     []string
}

// Find groups files by ContentHash, keeping only groups with 2+
// members, sorted by (group size desc, first file path asc), capped
// at maxGroups groups of up to maxFiles files each.
func Find(files []scan.SourceFile, maxGroups, maxFiles, topDirs int) Report {
	byHash := map[string][]string{}
	for _, f := range files {
		if f.ContentHash == "" {
			continue
		}
		byHash[f.ContentHash] = append(byHash[f.ContentHash], f.RelativePath)
	}

	var groups []Group
	for hash, paths := range byHash {
		if len(paths) < 2 {
			continue
		}
		sort.Strings(paths)
		groups = append(groups, Group{Hash: hash, Files: paths})
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Files) != len(groups[j].Files) {
			return len(groups[i].Files) > len(groups[j].Files)
		}
		return groups[i].Files[0] < groups[j].Files[0]
	})

	report := Report{TotalGroups: len(groups)}
	if len(groups) > maxGroups {
		groups = groups[:maxGroups]
	}
	for i := range groups {
		if len(groups[i].Files) > maxFiles {
			groups[i].Files = groups[i].Files[:maxFiles]
		}
	}
	report.Groups = groups
	report.TopDirs = topDirectories(byHash, topDirs)
	return report
}

func topDirectories(byHash map[string][]string, topN int) []string {
	if topN <= 0 {
		return nil
	}
	counts := map[string]int{}
	for _, paths := range byHash {
		if len(paths) < 2 {
			continue
		}
		for _, p := range paths {
			dir := "."
			if idx := strings.LastIndex(p, "/"); idx != -1 {
				dir = p[:idx]
			}
			counts[dir]++
		}
	}
	type dirCount struct {
		dir   string
		count int
	}
	var dcs []dirCount
	for d, c := range counts {
		dcs = append(dcs, dirCount{d, c})
	}
	sort.Slice(dcs, func(i, j int) bool {
		if dcs[i].count != dcs[j].count {
			return dcs[i].count > dcs[j].count
		}
		return dcs[i].dir < dcs[j].dir
	})
	if len(dcs) > topN {
		dcs = dcs[:topN]
	}
	var out []string
	for _, d := range dcs {
		out = append(out, d.dir)
	}
	return out
}

// Render composes the deterministic text block the assembler embeds.
func Render(r Report) string {
	if len(r.Groups) == 0 {
		return "No duplicate files detected."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d duplicate group(s) found", r.TotalGroups)
	if r.TotalGroups > len(r.Groups) {
		fmt.Fprintf(&b, " (showing %d)", len(r.Groups))
	}
	b.WriteString(":\n")
	for _, g := range r.Groups {
		b.WriteString(strings.Join(g.Files, ", "))
		b.WriteByte('\n')
	}
	if len(r.TopDirs) > 0 {
		fmt.Fprintf(&b, "Top directories: %s\n", strings.Join(r.TopDirs, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
