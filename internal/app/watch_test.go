package app_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/press/internal/app"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
)

func TestClassify(t *testing.T) {
	root := t.TempDir()
	reg := domain.DefaultRegistry(root)

	tests := []struct {
		name   string
		ev     ports.WatchEvent
		want   domain.ChangeEvent
		wantOK bool
	}{
		{
			name:   "partial modified",
			ev:     ports.WatchEvent{Path: filepath.Join(root, "src", "scss", "_vars.scss"), Operation: ports.OpWrite},
			want:   domain.ChangeEvent{Class: domain.ClassSCSS, Path: "src/scss/_vars.scss", Kind: domain.ChangeModified},
			wantOK: true,
		},
		{
			name:   "template added",
			ev:     ports.WatchEvent{Path: filepath.Join(root, "src", "templates", "nav.html"), Operation: ports.OpCreate},
			want:   domain.ChangeEvent{Class: domain.ClassHTML, Path: "src/templates/nav.html", Kind: domain.ChangeAdded},
			wantOK: true,
		},
		{
			name:   "image renamed away",
			ev:     ports.WatchEvent{Path: filepath.Join(root, "src", "img", "a.png"), Operation: ports.OpRename},
			want:   domain.ChangeEvent{Class: domain.ClassImg, Path: "src/img/a.png", Kind: domain.ChangeRemoved},
			wantOK: true,
		},
		{
			name: "unwatched file",
			ev:   ports.WatchEvent{Path: filepath.Join(root, "README.md"), Operation: ports.OpWrite},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := app.Classify(reg, root, tt.ev)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestChangedClasses(t *testing.T) {
	events := []domain.ChangeEvent{
		{Class: domain.ClassJS, Path: "src/js/a.js"},
		{Class: domain.ClassSCSS, Path: "src/scss/a.scss"},
		{Class: domain.ClassJS, Path: "src/js/b.js"},
		{Class: domain.ClassSCSS, Path: "src/scss/b.scss"},
	}

	got := app.ChangedClasses(events)
	assert.ElementsMatch(t, []domain.AssetClass{domain.ClassSCSS, domain.ClassJS}, got)
	assert.Len(t, got, 2)
	assert.Empty(t, app.ChangedClasses(nil))
}
