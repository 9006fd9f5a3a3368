//go:build integration

package integration_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/m4sc0/new/internal/builder"
	"github.com/m4sc0/new/internal/image"
	"github.com/m4sc0/new/internal/logger"
	"github.com/m4sc0/new/internal/placeholder"
	"github.com/m4sc0/new/internal/render"
	"github.com/m4sc0/new/internal/store"
)

// TestFullFlowBuildPushPullCreate tests the complete flow:
// build -> push -> drop local copy -> pull -> create a project.
func TestFullFlowBuildPushPullCreate(t *testing.T) {
	env := setupTestEnv(t)
	setupTemplates(t, env.TemplateDir)
	s := env.store(t)
	ref := image.MustParse("python/fastapi:1.0.0")

	// Step 1: Build from the source folder.
	built, err := builder.New(s, logger.Nop()).Build(ref, filepath.Join(env.TemplateDir, "fastapi"), builder.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if built.Files != 4 {
		t.Errorf("built %d files, want 4", built.Files)
	}
	assertFileNotExists(t, filepath.Join(s.Path(ref), ".git"))
	assertFileExists(t, filepath.Join(s.Path(ref), "static", "favicon.ico"))
	builtMeta := s.MetadataPath(ref)

	// Step 2: Push to the registry.
	client := env.client(t, s)
	if err := client.Push(ref, uploadToken); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if !env.Registry.has(ref.ID()) {
		t.Fatalf("registry has no %s after push", ref)
	}

	// Step 3: Pull into a fresh store and compare.
	other := store.New(filepath.Join(t.TempDir(), "images"), logger.Nop())
	pulledClient := env.client(t, other)
	latest, err := pulledClient.Resolve(image.Reference{Category: "python", Name: "fastapi"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if latest != ref {
		t.Errorf("Resolve = %s, want %s", latest, ref)
	}
	if _, err := pulledClient.Pull(latest); err != nil {
		t.Fatalf("Pull: %v", err)
	}
	assertSameFile(t, builtMeta, other.MetadataPath(ref))
	for _, rel := range []string{"{{project_name}}/main.py", "{{project_name}}/__init__.py", "Dockerfile", "static/favicon.ico"} {
		assertSameFile(t, filepath.Join(s.Path(ref), filepath.FromSlash(rel)), filepath.Join(other.Path(ref), filepath.FromSlash(rel)))
	}

	hash, _, err := store.ContentHash(other.Path(ref))
	if err != nil {
		t.Fatalf("ContentHash: %v", err)
	}
	if hash.String() != built.Metadata.HashString() {
		t.Errorf("pulled hash %s, built hash %s", hash, built.Metadata.HashString())
	}

	// Step 4: Create a project from the pulled image.
	record, err := other.Load(ref)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	values, err := placeholder.Resolve(record.Placeholders, placeholder.NewContext("billing", ref),
		placeholder.Static{"author": "Ada", "port": "8080"})
	if err != nil {
		t.Fatalf("Resolve placeholders: %v", err)
	}

	target := filepath.Join(env.ProjectDir, "billing")
	if _, err := render.New(logger.Nop()).Render(other.Path(ref), target, values); err != nil {
		t.Fatalf("Render: %v", err)
	}
	assertFileContains(t, filepath.Join(target, "billing", "main.py"), `"""Billing by Ada."""`)
	assertFileExists(t, filepath.Join(target, "billing", "__init__.py"))
	assertFileContains(t, filepath.Join(target, "Dockerfile"), "EXPOSE 8080")
	assertSameFile(t, filepath.Join(other.Path(ref), "static", "favicon.ico"), filepath.Join(target, "static", "favicon.ico"))
	assertFileNotExists(t, filepath.Join(target, "template.json"))
}

// TestVersionsResolveToHighest builds several versions and checks that a
// reference without a version resolves to the semantically highest one,
// locally and remotely.
func TestVersionsResolveToHighest(t *testing.T) {
	env := setupTestEnv(t)
	setupTemplates(t, env.TemplateDir)
	s := env.store(t)
	b := builder.New(s, logger.Nop())
	client := env.client(t, s)

	for _, v := range []string{"1.2.0", "1.10.0", "1.9.3"} {
		ref := image.MustParse("docs/letter:" + v)
		if _, err := b.Build(ref, filepath.Join(env.TemplateDir, "letter"), builder.Options{}); err != nil {
			t.Fatalf("Build(%s): %v", ref, err)
		}
		if err := client.Push(ref, uploadToken); err != nil {
			t.Fatalf("Push(%s): %v", ref, err)
		}
	}

	unversioned := image.Reference{Category: "docs", Name: "letter"}
	local, err := s.Resolve(unversioned)
	if err != nil {
		t.Fatalf("store Resolve: %v", err)
	}
	if local.Version != "1.10.0" {
		t.Errorf("local version = %q, want 1.10.0", local.Version)
	}

	remoteRef, err := client.Resolve(unversioned)
	if err != nil {
		t.Fatalf("remote Resolve: %v", err)
	}
	if remoteRef.Version != "1.10.0" {
		t.Errorf("remote version = %q, want 1.10.0", remoteRef.Version)
	}

	refs, err := client.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(refs) != 3 {
		t.Errorf("List returned %d refs, want 3", len(refs))
	}
}

// TestRebuildKeepsHashStable checks that identical content under different
// references hashes the same and that force replaces the stored copy.
func TestRebuildKeepsHashStable(t *testing.T) {
	env := setupTestEnv(t)
	setupTemplates(t, env.TemplateDir)
	s := env.store(t)
	b := builder.New(s, logger.Nop())
	src := filepath.Join(env.TemplateDir, "fastapi")

	first, err := b.Build(image.MustParse("python/fastapi:1.0.0"), src, builder.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := b.Build(image.MustParse("web/api:2.0.0"), src, builder.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if first.Metadata.HashString() != second.Metadata.HashString() {
		t.Errorf("hashes differ: %s vs %s", first.Metadata.HashString(), second.Metadata.HashString())
	}

	_, err = b.Build(image.MustParse("python/fastapi:1.0.0"), src, builder.Options{})
	if !errors.Is(err, image.ErrAlreadyExists) {
		t.Fatalf("rebuild without force: got %v, want ErrAlreadyExists", err)
	}

	writeFile(t, filepath.Join(src, "Dockerfile"), "EXPOSE {{port}}\nCMD [\"run\"]\n")
	forced, err := b.Build(image.MustParse("python/fastapi:1.0.0"), src, builder.Options{Force: true})
	if err != nil {
		t.Fatalf("forced Build: %v", err)
	}
	if !forced.Replaced {
		t.Error("forced build should report Replaced")
	}
	if forced.Metadata.HashString() == first.Metadata.HashString() {
		t.Error("hash did not change after a content edit")
	}
}

// TestPushRejectedWithoutToken checks the registry error surfaces as an
// authentication failure and nothing is stored.
func TestPushRejectedWithoutToken(t *testing.T) {
	env := setupTestEnv(t)
	setupTemplates(t, env.TemplateDir)
	s := env.store(t)
	ref := image.MustParse("docs/letter:1.0.0")
	if _, err := builder.New(s, logger.Nop()).Build(ref, filepath.Join(env.TemplateDir, "letter"), builder.Options{}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	err := env.client(t, s).Push(ref, "wrong")
	if !errors.Is(err, image.ErrAuth) {
		t.Fatalf("Push with bad token: got %v, want ErrAuth", err)
	}
	if env.Registry.has(ref.ID()) {
		t.Error("registry stored an image from a rejected upload")
	}
}
