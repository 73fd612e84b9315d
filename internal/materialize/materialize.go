package materialize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"paperdeck/internal/domain"
	"paperdeck/internal/objectstore"
	"paperdeck/internal/render"
)

const htmlContentType = "text/html; charset=utf-8"

// Artifact describes a published slide deck.
type Artifact struct {
	LocalPath  string
	MarkupPath string
	Key        string
	PublicURL  string
}

type Materializer struct {
	renderer      render.Renderer
	store         objectstore.Store
	outputDir     string
	uploadFolder  string
	publicURL     func(key string) string
	uploadTimeout time.Duration
}

func New(renderer render.Renderer, store objectstore.Store, outputDir, uploadFolder string, publicURL func(string) string, uploadTimeout time.Duration) *Materializer {
	return &Materializer{
		renderer:      renderer,
		store:         store,
		outputDir:     outputDir,
		uploadFolder:  uploadFolder,
		publicURL:     publicURL,
		uploadTimeout: uploadTimeout,
	}
}

func MarkupPath(outputDir, name string) string {
	return filepath.Join(outputDir, name+".md")
}

func HTMLPath(outputDir, name string) string {
	return filepath.Join(outputDir, name+"_slide.html")
}

// LocalFiles lists every working file derived from a document stem.
func LocalFiles(outputDir, name string) []string {
	return []string{
		filepath.Join(outputDir, name+".pdf"),
		filepath.Join(outputDir, name+".txt"),
		MarkupPath(outputDir, name),
		HTMLPath(outputDir, name),
	}
}

// Materialize writes markup to disk, renders it to HTML and uploads the
// HTML under a name derived from documentName, so reruns overwrite.
func (m *Materializer) Materialize(ctx context.Context, markup, documentName string) (*Artifact, error) {
	if err := os.MkdirAll(m.outputDir, 0o755); err != nil {
		return nil, domain.IOError("create output dir", err)
	}

	mdPath := MarkupPath(m.outputDir, documentName)
	if err := os.WriteFile(mdPath, []byte(markup), 0o644); err != nil {
		_ = os.Remove(mdPath)
		return nil, domain.IOError(fmt.Sprintf("write %s", mdPath), err)
	}

	htmlPath := HTMLPath(m.outputDir, documentName)
	if err := m.renderer.Render(ctx, mdPath, htmlPath); err != nil {
		if domain.IsKind(err, domain.KindRender) {
			return nil, err
		}
		return nil, domain.RenderError(fmt.Sprintf("render %s", mdPath), err)
	}

	html, err := os.ReadFile(htmlPath)
	if err != nil {
		return nil, domain.RenderError(fmt.Sprintf("renderer produced no %s", htmlPath), err)
	}

	key := objectstore.Join(m.uploadFolder, documentName+"_slide.html")
	uploadCtx := ctx
	if m.uploadTimeout > 0 {
		var cancel context.CancelFunc
		uploadCtx, cancel = context.WithTimeout(ctx, m.uploadTimeout)
		defer cancel()
	}
	if err := m.store.Put(uploadCtx, key, html, htmlContentType); err != nil {
		return nil, domain.UploadError(fmt.Sprintf("upload %s", key), err)
	}

	return &Artifact{
		LocalPath:  htmlPath,
		MarkupPath: mdPath,
		Key:        key,
		PublicURL:  m.publicURL(key),
	}, nil
}
