package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"paperdeck/internal/domain"
	"paperdeck/internal/gate"
	"paperdeck/internal/materialize"
	"paperdeck/internal/model"
	"paperdeck/internal/objectstore"
	"paperdeck/internal/pipeline"
	"paperdeck/internal/pkg/pdfextract"
	"paperdeck/internal/platform/rabbitmq"
	"paperdeck/internal/repository"
)

const testCDN = "https://cdn.example.com"

// scriptedAgent answers with a fixed reply and fails for inputs containing
// failOn.
type scriptedAgent struct {
	mu     sync.Mutex
	name   string
	reply  func(input string) string
	failOn string
	inputs []string
}

func (a *scriptedAgent) Respond(_ context.Context, msg string) (string, error) {
	a.mu.Lock()
	a.inputs = append(a.inputs, msg)
	a.mu.Unlock()
	if a.failOn != "" && strings.Contains(msg, a.failOn) {
		return "", domain.GenerationError(a.name, "model call failed", context.DeadlineExceeded)
	}
	return a.reply(msg), nil
}

func (a *scriptedAgent) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.inputs)
}

type copyRenderer struct{}

func (copyRenderer) Render(_ context.Context, markupPath, outputPath string) error {
	md, err := os.ReadFile(markupPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte("<html>"+string(md)+"</html>"), 0o644)
}

// uploadStore records every upload and refuses them while failPut is set.
type uploadStore struct {
	*objectstore.LocalStore
	mu      sync.Mutex
	uploads []string
	failPut error
}

func (s *uploadStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut != nil {
		return s.failPut
	}
	s.uploads = append(s.uploads, key)
	return s.LocalStore.Put(ctx, key, data, contentType)
}

func (s *uploadStore) uploaded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uploads...)
}

func (s *uploadStore) refuseUploads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPut = err
}

type recordingPublisher struct {
	jobs []rabbitmq.ProcessJob
}

func (p *recordingPublisher) Publish(_ context.Context, job rabbitmq.ProcessJob) error {
	p.jobs = append(p.jobs, job)
	return nil
}

type memCache struct {
	pages       []model.SummaryPage
	hit         bool
	generation  int64
	invalidated int
}

func (c *memCache) GetList(context.Context) ([]model.SummaryPage, int64, bool, error) {
	return c.pages, c.generation, c.hit, nil
}

func (c *memCache) SetList(_ context.Context, pages []model.SummaryPage, generation int64) error {
	if generation != c.generation {
		return nil
	}
	c.pages, c.hit = pages, true
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.pages, c.hit = nil, false
	c.generation++
	c.invalidated++
	return nil
}

func textExtract(path string) (*pdfextract.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &pdfextract.Document{Text: string(b), Pages: 1}, nil
}

type harness struct {
	store       *uploadStore
	repo        *repository.SummaryPageRepository
	cache       *memCache
	publisher   *recordingPublisher
	interpreter *scriptedAgent
	formatter   *scriptedAgent
	outputDir   string
	processor   *Processor
	gate        *gate.Gate
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	local, err := objectstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	store := &uploadStore{LocalStore: local}

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.SummaryPage{}))
	repo := repository.NewSummaryPageRepository(db)

	h := &harness{
		store:     store,
		repo:      repo,
		cache:     &memCache{},
		publisher: &recordingPublisher{},
		outputDir: filepath.Join(t.TempDir(), "temp"),
		interpreter: &scriptedAgent{name: "interpreter", reply: func(string) string {
			return "M"
		}},
		formatter: &scriptedAgent{name: "formatter", reply: func(string) string {
			return "M'"
		}},
	}

	publicURL := func(key string) string { return testCDN + "/" + key }
	h.processor = NewProcessor(ProcessorConfig{
		Store: store,
		Stages: []pipeline.Stage{
			{Name: "interpreter", Agent: h.interpreter, Caption: "pdf:\n\n"},
			{Name: "formatter", Agent: h.formatter, Caption: "marp:\n\n"},
		},
		Materializer: materialize.New(copyRenderer{}, store, h.outputDir, "paper", publicURL, 0),
		Repo:         repo,
		Cache:        h.cache,
		Extract:      textExtract,
		OutputDir:    h.outputDir,
		Logger:       zerolog.Nop(),
	})
	h.gate = gate.New(repo, nil, 0, zerolog.Nop())
	return h
}

func (h *harness) batch() *BatchService {
	return NewBatchService(h.store, h.gate, h.processor, h.publisher, "raw_files", ".pdf", zerolog.Nop())
}

func (h *harness) onDemand(skipProcessed bool) *ProcessService {
	return NewProcessService(h.gate, h.processor, h.repo, h.publisher, "raw_files", ".pdf", skipProcessed, zerolog.Nop())
}

func (h *harness) putSource(t *testing.T, name, text string) {
	t.Helper()
	require.NoError(t, h.store.LocalStore.Put(context.Background(), "raw_files/"+name, []byte(text), "application/pdf"))
}

func (h *harness) workingFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(h.outputDir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
