package loader

import (
	"encoding/hex"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/blake2b"

	"github.com/tangzhangming/javm/internal/classfile"
	"github.com/tangzhangming/javm/internal/errors"
)

func writeClass(t *testing.T, root, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name)+ClassFileExtension)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func buildClass(t *testing.T, name string) []byte {
	t.Helper()
	data, err := classfile.NewBuilder(name, "java/lang/Object").Bytes()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// ============================================================================
// 查找测试
// ============================================================================

func TestResolveAcrossRoots(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	writeClass(t, second, "pkg/Helper", buildClass(t, "pkg/Helper"))
	shadowed := writeClass(t, first, "Main", buildClass(t, "Main"))
	writeClass(t, second, "Main", buildClass(t, "Main"))

	l := New([]string{first, second})

	path, err := l.Resolve("pkg/Helper")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if filepath.Dir(filepath.Dir(path)) != second {
		t.Errorf("Expected Helper under second root, got %s", path)
	}

	path, err = l.Resolve("Main.class")
	if err != nil || path != shadowed {
		t.Errorf("Expected first root to win, got %s (%v)", path, err)
	}
}

func TestResolveNotFound(t *testing.T) {
	l := New([]string{t.TempDir()})
	_, err := l.Resolve("Missing")
	var re *errors.RuntimeError
	if !stderrors.As(err, &re) || re.Code != errors.R0303 {
		t.Fatalf("Expected R0303, got %v", err)
	}
	if re.Exception != "NoClassDefFoundError" || len(re.Hints) == 0 {
		t.Errorf("Unexpected error %+v", re)
	}
}

func TestLibraryClassesNeverLoaded(t *testing.T) {
	root := t.TempDir()
	writeClass(t, root, "java/lang/Thing", buildClass(t, "java/lang/Thing"))
	l := New([]string{root})
	if _, _, err := l.Open("java/lang/Thing"); err == nil {
		t.Error("Expected library class to be refused")
	}
	if !IsLibraryClass("java/io/PrintStream") || IsLibraryClass("javax/Foo") {
		t.Error("Unexpected library class classification")
	}
}

// ============================================================================
// 加载测试
// ============================================================================

func TestLoadRecordsDigest(t *testing.T) {
	root := t.TempDir()
	data := buildClass(t, "Main")
	writeClass(t, root, "Main", data)

	l := New([]string{root})
	if l.IsLoaded("Main") {
		t.Fatal("Main should not be loaded yet")
	}
	cf, err := l.Load("Main")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if name, _ := cf.Name(); name != "Main" {
		t.Errorf("Expected Main, got %s", name)
	}
	if !l.IsLoaded("Main") {
		t.Error("Expected Main to be marked loaded")
	}
	sum := blake2b.Sum256(data)
	if l.Digest("Main") != hex.EncodeToString(sum[:]) {
		t.Errorf("Unexpected digest %s", l.Digest("Main"))
	}
}

func TestLoadVersionLimit(t *testing.T) {
	root := t.TempDir()
	path := writeClass(t, root, "Main", buildClass(t, "Main"))

	l := New([]string{root}, WithMaxMajorVersion(46))
	_, err := l.Load("Main")
	var ce *errors.ClassError
	if !stderrors.As(err, &ce) || ce.Code != errors.C0002 {
		t.Fatalf("Expected C0002, got %v", err)
	}
	if ce.File != path {
		t.Errorf("Expected file %s on error, got %s", path, ce.File)
	}
}
