package tlsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuild_InsecureSkipVerifySetsFlagAndSkipsBundleLookup(t *testing.T) {
	cfg, err := Build(Config{ServerName: "example.test", VerifyPeer: false})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !cfg.InsecureSkipVerify {
		t.Fatal("want InsecureSkipVerify true when VerifyPeer is false")
	}
	if cfg.RootCAs != nil {
		t.Fatal("RootCAs should be untouched when peer verification is disabled")
	}
}

func TestBuild_ExplicitCABundleLoadsIntoRootCAs(t *testing.T) {
	pemData, err := os.ReadFile(findAnySystemBundleOrSkip(t))
	if err != nil {
		t.Fatalf("read reference bundle: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.pem")
	if err := os.WriteFile(path, pemData, 0o644); err != nil {
		t.Fatalf("write temp bundle: %v", err)
	}

	cfg, err := Build(Config{ServerName: "example.test", VerifyPeer: true, CABundle: path})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.RootCAs == nil {
		t.Fatal("want RootCAs populated from the explicit bundle")
	}
}

func TestBuild_MissingBundleFileReturnsError(t *testing.T) {
	_, err := Build(Config{ServerName: "example.test", VerifyPeer: true, CABundle: "/nonexistent/path/bundle.pem"})
	if err == nil {
		t.Fatal("want an error when the configured CA bundle does not exist")
	}
}

func TestDiscoverCABundle_ReturnsExistingPathOrEmpty(t *testing.T) {
	got := DiscoverCABundle()
	if got == "" {
		return
	}
	if _, err := os.Stat(got); err != nil {
		t.Fatalf("DiscoverCABundle returned a path that does not exist: %v", err)
	}
}

func findAnySystemBundleOrSkip(t *testing.T) string {
	t.Helper()
	if p := DiscoverCABundle(); p != "" {
		return p
	}
	t.Skip("no system CA bundle present to use as PEM fixture")
	return ""
}
