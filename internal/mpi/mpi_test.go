package mpi

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const sansaClip = `# Sandisk Sansa Clip
[Device]
Product=Sansa Clip
Vendor=SanDisk
AccessProtocol=mtp;storage;
Icon=multimedia-player

[Media]
OutputFormats=audio/mpeg;audio/x-ms-wma;audio/ogg;
AudioFolders=MUSIC/;
`

func newDatabase(t *testing.T, files map[string]string) *Database {
	t.Helper()
	data := t.TempDir()
	dir := filepath.Join(data, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	db, err := Open([]string{filepath.Join(data, "missing"), data})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if db.Path() != dir {
		t.Fatalf("expected %s, got %s", dir, db.Path())
	}
	return db
}

func TestProtocols(t *testing.T) {
	db := newDatabase(t, map[string]string{
		"sandisk_sansa-clip.mpi": sansaClip,
		"broken.mpi":             "[Device]\nProduct=Nothing\n",
		"garbage.mpi":            "this is [not\x00 a keyfile",
	})

	cases := []struct {
		id   string
		want []string
	}{
		{"sandisk_sansa-clip", []string{"mtp", "storage"}},
		{"broken", nil},
		{"garbage", nil},
		{"unknown", nil},
		{"../etc/passwd", nil},
	}

	for _, c := range cases {
		t.Run(c.id, func(t *testing.T) {
			if got := db.Protocols(c.id); !reflect.DeepEqual(got, c.want) {
				t.Fatalf("Protocols(%q) = %v, want %v", c.id, got, c.want)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	db := newDatabase(t, map[string]string{"sandisk_sansa-clip.mpi": sansaClip})

	info, err := db.Info("sandisk_sansa-clip")
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Vendor != "SanDisk" || info.Product != "Sansa Clip" {
		t.Fatalf("unexpected vendor/product %+v", info)
	}
	want := []string{"audio/mpeg", "audio/x-ms-wma", "audio/ogg"}
	if !reflect.DeepEqual(info.OutputFormats, want) {
		t.Fatalf("OutputFormats = %v, want %v", info.OutputFormats, want)
	}
	if !reflect.DeepEqual(info.AudioFolders, []string{"MUSIC/"}) {
		t.Fatalf("unexpected audio folders %v", info.AudioFolders)
	}
}

func TestProtocolsReturnsCopy(t *testing.T) {
	db := newDatabase(t, map[string]string{"sandisk_sansa-clip.mpi": sansaClip})

	first := db.Protocols("sandisk_sansa-clip")
	first[0] = "changed"
	if got := db.Protocols("sandisk_sansa-clip"); got[0] != "mtp" {
		t.Fatalf("cached descriptor was mutated: %v", got)
	}
}

func TestInfoIsCached(t *testing.T) {
	db := newDatabase(t, map[string]string{"sandisk_sansa-clip.mpi": sansaClip})

	if _, err := db.Info("sandisk_sansa-clip"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Info("new-player"); err == nil {
		t.Fatal("expected miss for unknown player")
	}

	// the files change behind the database's back
	if err := os.Remove(filepath.Join(db.Path(), "sandisk_sansa-clip.mpi")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(db.Path(), "new-player.mpi"), []byte(sansaClip), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := db.Info("sandisk_sansa-clip"); err != nil {
		t.Fatalf("expected cached descriptor, got %v", err)
	}
	if _, err := db.Info("new-player"); err == nil {
		t.Fatal("expected cached miss")
	}
}

func TestOpenNotInstalled(t *testing.T) {
	_, err := Open([]string{t.TempDir()})
	if !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("expected ErrNotInstalled, got %v", err)
	}
}

func TestSystemDataDirs(t *testing.T) {
	t.Setenv("XDG_DATA_DIRS", "/opt/share::/usr/share")
	want := []string{"/opt/share", "/usr/share"}
	if got := SystemDataDirs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("SystemDataDirs() = %v, want %v", got, want)
	}
}
