// Package mpi reads media-player-info descriptors. Each supported player has
// a <id>.mpi keyfile under <datadir>/media-player-info describing how it is
// accessed and which formats it plays.
package mpi

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"

	"github.com/sigreer/playerdock/internal/cache"
)

// DirName is the directory name media-player-info installs into
const DirName = "media-player-info"

// ErrNotInstalled means no media-player-info directory was found
var ErrNotInstalled = errors.New("media-player-info not installed")

// Info is the parsed content of one descriptor
type Info struct {
	ID              string   `json:"id"`
	Vendor          string   `json:"vendor,omitempty"`
	Product         string   `json:"product,omitempty"`
	Icon            string   `json:"icon,omitempty"`
	AccessProtocols []string `json:"access_protocols"`
	OutputFormats   []string `json:"output_formats,omitempty"`
	InputFormats    []string `json:"input_formats,omitempty"`
	PlaylistFormats []string `json:"playlist_formats,omitempty"`
	AudioFolders    []string `json:"audio_folders,omitempty"`
}

// SystemDataDirs returns $XDG_DATA_DIRS or its default
func SystemDataDirs() []string {
	env := os.Getenv("XDG_DATA_DIRS")
	if env == "" {
		env = "/usr/local/share/:/usr/share/"
	}
	var dirs []string
	for _, d := range strings.Split(env, ":") {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Dir returns the first <dir>/media-player-info that exists, or "".
func Dir(dataDirs []string) string {
	for _, d := range dataDirs {
		p := filepath.Join(d, DirName)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p
		}
	}
	return ""
}

// Database looks up descriptors in one media-player-info directory
type Database struct {
	dir   string
	infos *cache.Cache[*Info]
}

// Open locates the descriptor directory among dataDirs, falling back to the
// XDG system data dirs when dataDirs is empty.
func Open(dataDirs []string) (*Database, error) {
	if len(dataDirs) == 0 {
		dataDirs = SystemDataDirs()
	}
	dir := Dir(dataDirs)
	if dir == "" {
		return nil, fmt.Errorf("%w (searched %s)", ErrNotInstalled, strings.Join(dataDirs, ", "))
	}
	return &Database{
		dir:   dir,
		infos: cache.New[*Info](cache.TTLStatic),
	}, nil
}

// Path returns the descriptor directory
func (d *Database) Path() string {
	return d.dir
}

// Protocols returns the access protocols of a player in descriptor order.
// Unknown or unparsable players have none.
func (d *Database) Protocols(mediaPlayerID string) []string {
	info, err := d.Info(mediaPlayerID)
	if err != nil {
		return nil
	}
	return append([]string(nil), info.AccessProtocols...)
}

// Info parses <id>.mpi. Failed lookups are cached too.
func (d *Database) Info(mediaPlayerID string) (*Info, error) {
	if mediaPlayerID == "" || strings.ContainsRune(mediaPlayerID, filepath.Separator) {
		return nil, fmt.Errorf("invalid media player id %q", mediaPlayerID)
	}
	info := d.infos.GetOrLoad(mediaPlayerID, d.load)
	if info == nil {
		return nil, fmt.Errorf("no descriptor for %q", mediaPlayerID)
	}
	return info, nil
}

func (d *Database) load(mediaPlayerID string) *Info {
	info, err := parseFile(filepath.Join(d.dir, mediaPlayerID+".mpi"))
	if err != nil {
		log.Debug().Err(err).Str("id", mediaPlayerID).Msg("media-player-info lookup failed")
		return nil
	}
	info.ID = mediaPlayerID
	return info
}

func parseFile(path string) (*Info, error) {
	// ';' separates list items in keyfiles, it must not start a comment
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return nil, err
	}

	dev, err := f.GetSection("Device")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !dev.HasKey("AccessProtocol") {
		return nil, fmt.Errorf("%s: no AccessProtocol", path)
	}

	info := &Info{
		Vendor:          dev.Key("Vendor").String(),
		Product:         dev.Key("Product").String(),
		Icon:            dev.Key("Icon").String(),
		AccessProtocols: splitList(dev.Key("AccessProtocol").String()),
	}

	if media, err := f.GetSection("Media"); err == nil {
		info.OutputFormats = splitList(media.Key("OutputFormats").String())
		info.InputFormats = splitList(media.Key("InputFormats").String())
		info.PlaylistFormats = splitList(media.Key("PlaylistFormats").String())
		info.AudioFolders = splitList(media.Key("AudioFolders").String())
	}

	return info, nil
}

// splitList splits a keyfile list, dropping the empty item a trailing ';'
// leaves behind
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ";") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
