package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadEpithets(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    []string
		wantErr string
	}{
		{
			name:    "json",
			file:    "epithets.json",
			content: `{"epithets": ["vanha akka", "Pääkaupunki", "???"]}`,
			want:    []string{"vanha akka", "Pääkaupunki", "???"},
		},
		{
			name:    "json empty list",
			file:    "epithets.json",
			content: `{"epithets": []}`,
			want:    []string{},
		},
		{
			name:    "yaml",
			file:    "epithets.yaml",
			content: "epithets:\n  - vanha akka\n  - kissa\n",
			want:    []string{"vanha akka", "kissa"},
		},
		{
			name:    "yml extension",
			file:    "EPITHETS.YML",
			content: "epithets: [akka]\n",
			want:    []string{"akka"},
		},
		{
			name:    "missing collection",
			file:    "epithets.json",
			content: `{"names": ["akka"]}`,
			wantErr: "no \"epithets\" collection",
		},
		{
			name:    "malformed json",
			file:    "epithets.json",
			content: `{"epithets": [`,
			wantErr: "parse epithets",
		},
		{
			name:    "wrong element type",
			file:    "epithets.json",
			content: `{"epithets": [1, 2]}`,
			wantErr: "parse epithets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadEpithets(writeInput(t, tt.file, tt.content))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadEpithets_MissingCollectionIsSentinel(t *testing.T) {
	_, err := ReadEpithets(writeInput(t, "epithets.json", `{}`))
	require.ErrorIs(t, err, ErrNoEpithets)
}

func TestReadEpithets_MissingFile(t *testing.T) {
	_, err := ReadEpithets(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
