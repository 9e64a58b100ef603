package download

import (
	"context"
	"errors"
	"testing"

	"github.com/quantmind-br/downgit-go/internal/domain"
	"github.com/quantmind-br/downgit-go/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRewritePath(t *testing.T) {
	tests := []struct {
		name     string
		remote   string
		subpath  string
		prefix   string
		expected string
	}{
		{"no root folder", "src/lib/a.txt", "src", "", "lib/a.txt"},
		{"subject root folder", "src/lib/a.txt", "src", "src/", "src/lib/a.txt"},
		{"custom root folder", "src/lib/a.txt", "src", "x/", "x/lib/a.txt"},
		{"nested subpath", "src/lib/a.txt", "src/lib", "", "a.txt"},
		{"subpath with slashes", "src/lib/a.txt", "/src/", "", "lib/a.txt"},
		{"empty subpath", "README.md", "", "widgets/", "widgets/README.md"},
		{"remote equals subpath", "docs/README.md", "docs/README.md", "", "README.md"},
		{"sibling with shared prefix", "srcx/a.txt", "src", "", "srcx/a.txt"},
		{"decomposed subpath", "caf\u00e9/menu.txt", "cafe\u0301", "", "menu.txt"},
		{"decomposed remote", "cafe\u0301/menu.txt", "", "", "caf\u00e9/menu.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RewritePath(tt.remote, tt.subpath, tt.prefix))
		})
	}
}

func TestAssembler_WritesInPathOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	ctx := context.Background()

	gomock.InOrder(
		sink.EXPECT().Put(ctx, "src/a.txt", []byte("A")).Return(nil),
		sink.EXPECT().Put(ctx, "src/lib/b.txt", []byte("B")).Return(nil),
		sink.EXPECT().Put(ctx, "src/z.txt", []byte("Z")).Return(nil),
		sink.EXPECT().Close().Return("out", nil),
	)

	spec := &domain.RepoSpec{Subpath: "src", SubjectName: "src"}
	files := []domain.FetchedFile{
		{Path: "src/z.txt", Content: []byte("Z")},
		{Path: "src/a.txt", Content: []byte("A")},
		{Path: "src/lib/b.txt", Content: []byte("B")},
	}

	written, location, err := NewAssembler(nil).Assemble(ctx, spec, files, sink)
	require.NoError(t, err)
	assert.Equal(t, "out", location)
	assert.Equal(t, []string{"src/a.txt", "src/lib/b.txt", "src/z.txt"}, written)
}

func TestAssembler_RejectsCollidingPaths(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)

	spec := &domain.RepoSpec{Subpath: "src", RootFolder: domain.RootFolderPolicy{Kind: domain.RootFolderNone}}
	files := []domain.FetchedFile{
		{Path: "src/caf\u00e9.txt"},
		{Path: "src/cafe\u0301.txt"},
	}

	_, _, err := NewAssembler(nil).Assemble(context.Background(), spec, files, sink)
	assert.ErrorIs(t, err, domain.ErrWriteFailed)
}

func TestAssembler_SinkErrorIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	ctx := context.Background()

	diskFull := errors.New("disk full")
	sink.EXPECT().Put(ctx, "a.txt", gomock.Any()).Return(nil)
	sink.EXPECT().Put(ctx, "b.txt", gomock.Any()).Return(diskFull)

	spec := &domain.RepoSpec{Subpath: "src", RootFolder: domain.RootFolderPolicy{Kind: domain.RootFolderNone}}
	files := []domain.FetchedFile{{Path: "src/a.txt"}, {Path: "src/b.txt"}, {Path: "src/c.txt"}}

	written, _, err := NewAssembler(nil).Assemble(ctx, spec, files, sink)
	assert.ErrorIs(t, err, diskFull)
	assert.Equal(t, []string{"a.txt"}, written)
}
