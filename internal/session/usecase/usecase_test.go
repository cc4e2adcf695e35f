package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/martpos/inventory-service/internal/ingest"
	"github.com/martpos/inventory-service/internal/model"
	"github.com/martpos/inventory-service/internal/session"
)

type memKV struct {
	data map[string][]byte
}

func (m *memKV) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

func (m *memKV) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (m *memKV) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type fakeStorage struct {
	saved []string
	err   error
}

func (f *fakeStorage) Save(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	io.Copy(io.Discard, r)
	f.saved = append(f.saved, objectName)
	return "mem://" + objectName, nil
}

type stubExtractor struct {
	result ingest.Result
}

func (s *stubExtractor) Extract(context.Context, ingest.File) ingest.Result {
	return s.result
}

func newUC(store *session.Store, files *fakeStorage, csv ingest.Extractor) session.UseCase {
	return NewSessionUseCase(store, files, &ingest.Dispatcher{CSV: csv}, zap.NewNop())
}

func TestUploadFilesAppendsRowsAndWarnings(t *testing.T) {
	store := session.NewStore(&memKV{data: map[string][]byte{}}, time.Hour)
	files := &fakeStorage{}
	qty := 2.0
	uc := newUC(store, files, &stubExtractor{result: ingest.Result{
		Rows:     []model.CandidateRow{{Name: "Widget", Quantity: &qty, Source: model.SourceCSV, Confidence: model.ConfidenceHigh}},
		Warnings: []string{"items.csv line 3: short record"},
	}})
	ctx := context.Background()

	sess, err := uc.CreateSession(ctx, "t1", "upload")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sess, err = uc.UploadFiles(ctx, "t1", sess.ID, []ingest.File{
		{Name: "items.csv", Mime: "text/csv", Data: []byte("name\nWidget\n")},
	}, false)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if sess.Status != model.SessionParsed {
		t.Fatalf("status: %s", sess.Status)
	}
	if len(sess.Rows) != 1 || sess.Rows[0].Name != "Widget" {
		t.Fatalf("rows: %+v", sess.Rows)
	}
	if len(sess.Warnings) != 1 {
		t.Fatalf("warnings: %v", sess.Warnings)
	}
	if len(sess.Files) != 1 || sess.Files[0].Path != "mem://t1/"+sess.ID+"/items.csv" {
		t.Fatalf("files: %+v", sess.Files)
	}

	// The state must survive a reload from the store.
	reloaded, err := uc.GetSession(ctx, "t1", sess.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.Rows) != 1 {
		t.Fatalf("reloaded rows: %+v", reloaded.Rows)
	}
}

func TestUploadUnsupportedFileBecomesWarning(t *testing.T) {
	store := session.NewStore(&memKV{data: map[string][]byte{}}, time.Hour)
	uc := newUC(store, &fakeStorage{}, &stubExtractor{})
	ctx := context.Background()

	sess, _ := uc.CreateSession(ctx, "t1", "upload")
	sess, err := uc.UploadFiles(ctx, "t1", sess.ID, []ingest.File{
		{Name: "notes.docx", Data: []byte("hello")},
	}, false)
	if err != nil {
		t.Fatalf("upload should tolerate a bad file: %v", err)
	}
	if len(sess.Rows) != 0 || len(sess.Warnings) != 1 {
		t.Fatalf("got rows=%d warnings=%v", len(sess.Rows), sess.Warnings)
	}
}

func TestUploadStorageFailureStillExtracts(t *testing.T) {
	store := session.NewStore(&memKV{data: map[string][]byte{}}, time.Hour)
	uc := newUC(store, &fakeStorage{err: errors.New("bucket gone")}, &stubExtractor{result: ingest.Result{
		Rows: []model.CandidateRow{{Name: "Widget"}},
	}})
	ctx := context.Background()

	sess, _ := uc.CreateSession(ctx, "t1", "upload")
	sess, err := uc.UploadFiles(ctx, "t1", sess.ID, []ingest.File{
		{Name: "items.csv", Data: []byte("name\nWidget\n")},
	}, false)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(sess.Rows) != 1 {
		t.Fatalf("rows: %+v", sess.Rows)
	}
	if sess.Files[0].Path != "" {
		t.Fatalf("path should be empty when storage failed: %q", sess.Files[0].Path)
	}
}

func TestUpdateRowsReplacesStagedRows(t *testing.T) {
	store := session.NewStore(&memKV{data: map[string][]byte{}}, time.Hour)
	uc := newUC(store, &fakeStorage{}, &stubExtractor{result: ingest.Result{
		Rows: []model.CandidateRow{{Name: "Widgte"}}, // typo from OCR
	}})
	ctx := context.Background()

	sess, _ := uc.CreateSession(ctx, "t1", "upload")
	sess, err := uc.UploadFiles(ctx, "t1", sess.ID, []ingest.File{
		{Name: "scan.csv", Data: []byte("x")},
	}, false)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	corrected := []model.CandidateRow{{Name: "Widget", Confidence: model.ConfidenceHigh, Source: model.SourceCSV}}
	sess, err = uc.UpdateRows(ctx, "t1", sess.ID, corrected)
	if err != nil {
		t.Fatalf("update rows: %v", err)
	}
	if len(sess.Rows) != 1 || sess.Rows[0].Name != "Widget" {
		t.Fatalf("rows: %+v", sess.Rows)
	}
}

func TestUpdateRowsOnCommittedSession(t *testing.T) {
	store := session.NewStore(&memKV{data: map[string][]byte{}}, time.Hour)
	uc := newUC(store, &fakeStorage{}, &stubExtractor{})
	ctx := context.Background()

	sess, _ := uc.CreateSession(ctx, "t1", "upload")
	loaded, _ := store.Get(ctx, "t1", sess.ID)
	if err := store.MarkCommitted(ctx, loaded); err != nil {
		t.Fatalf("mark committed: %v", err)
	}

	if _, err := uc.UpdateRows(ctx, "t1", sess.ID, nil); !errors.Is(err, model.ErrSessionCommitted) {
		t.Fatalf("expected ErrSessionCommitted, got %v", err)
	}
}
