package hivetrigger

import (
	"github.com/gobwas/glob"

	"github.com/hivegraph/hivecore/hiverow"
)

// globEntry is one compiled tag-glob rule. No path separator is
// configured, matching the original TagGlobs' fnmatch-style behaviour
// where '*' crosses dot boundaries freely.
type globEntry struct {
	pattern string
	compiled glob.Glob
	iden     hiverow.Iden
}

// globIndex holds every glob-pattern rule registered for one form (or
// the form-agnostic bucket), mirroring s_cache.TagGlobs.
type globIndex struct {
	entries []globEntry
}

func (g *globIndex) add(pattern string, iden hiverow.Iden) error {
	compiled, err := glob.Compile(pattern)
	if err != nil {
		return err
	}
	g.entries = append(g.entries, globEntry{pattern: pattern, compiled: compiled, iden: iden})
	return nil
}

func (g *globIndex) remove(pattern string, iden hiverow.Iden) {
	out := g.entries[:0]
	for _, e := range g.entries {
		if e.pattern == pattern && e.iden == iden {
			continue
		}
		out = append(out, e)
	}
	g.entries = out
}

// get returns the idens of every glob rule whose pattern matches tag, in
// registration order — the same order TagGlobs.get yields matches.
func (g *globIndex) get(tag string) []hiverow.Iden {
	if g == nil {
		return nil
	}
	var out []hiverow.Iden
	for _, e := range g.entries {
		if e.compiled.Match(tag) {
			out = append(out, e.iden)
		}
	}
	return out
}
