package download

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/quantmind-br/downgit-go/internal/domain"
	"github.com/quantmind-br/downgit-go/internal/utils"
	"golang.org/x/text/unicode/norm"
)

// RewritePath maps a remote path to its path inside the output: the subpath
// and its separator are stripped, then rootPrefix is prepended. Paths are
// compared and returned in NFC so a subpath typed into a URL matches the
// listing's spelling of the same name.
func RewritePath(remotePath, subpath, rootPrefix string) string {
	remote := norm.NFC.String(strings.TrimPrefix(remotePath, "/"))
	sub := norm.NFC.String(strings.Trim(subpath, "/"))

	rel := remote
	switch {
	case sub == "":
	case remote == sub:
		rel = remote[strings.LastIndex(remote, "/")+1:]
	default:
		rel = strings.TrimPrefix(remote, sub+"/")
	}

	return norm.NFC.String(rootPrefix) + rel
}

// Assembler writes fetched files into an output sink
type Assembler struct {
	logger *utils.Logger
}

// NewAssembler creates a new assembler
func NewAssembler(logger *utils.Logger) *Assembler {
	a := &Assembler{}
	if logger != nil {
		a.logger = logger.WithComponent("assembler")
	}
	return a
}

// Assemble rewrites every file path for spec, writes the files to sink in
// path order and finalizes it. It returns the written output paths and the
// artifact location. Colliding output paths fail before anything is written.
func (a *Assembler) Assemble(ctx context.Context, spec *domain.RepoSpec, files []domain.FetchedFile, sink domain.Sink) ([]string, string, error) {
	prefix := spec.RootFolder.Prefix(spec.SubjectName)

	type item struct {
		out     string
		content []byte
	}
	items := make([]item, 0, len(files))
	owners := make(map[string]string, len(files))

	for _, f := range files {
		out := RewritePath(f.Path, spec.Subpath, prefix)
		if out == "" || strings.HasSuffix(out, "/") {
			return nil, "", fmt.Errorf("%w: empty output path for %s", domain.ErrWriteFailed, f.Path)
		}
		if prev, dup := owners[out]; dup {
			return nil, "", fmt.Errorf("%w: %s and %s both map to %s", domain.ErrWriteFailed, prev, f.Path, out)
		}
		owners[out] = f.Path
		items = append(items, item{out: out, content: f.Content})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].out < items[j].out })

	written := make([]string, 0, len(items))
	for _, it := range items {
		if err := sink.Put(ctx, it.out, it.content); err != nil {
			return written, "", err
		}
		written = append(written, it.out)
	}

	location, err := sink.Close()
	if err != nil {
		return written, "", err
	}

	if a.logger != nil {
		a.logger.Debug().Int("files", len(written)).Str("output", location).Msg("Assembled output")
	}
	return written, location, nil
}
