package gcsuploader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/chat-ledger/internal/domain"
)

// MockStorageService is a mock implementation of StorageService for testing.
type MockStorageService struct {
	UploadFunc   func(ctx context.Context, bucket, object, contentType string, r io.Reader) error
	DownloadFunc func(ctx context.Context, bucket, object string) ([]byte, error)

	objects map[string][]byte
}

func (m *MockStorageService) Upload(ctx context.Context, bucket, object, contentType string, r io.Reader) error {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, bucket, object, contentType, r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[bucket+"/"+object] = data
	return nil
}

func (m *MockStorageService) Download(ctx context.Context, bucket, object string) ([]byte, error) {
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, bucket, object)
	}
	data, ok := m.objects[bucket+"/"+object]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

type listerFunc func(ctx context.Context) ([]domain.Record, error)

func (f listerFunc) List(ctx context.Context) ([]domain.Record, error) { return f(ctx) }

func staticLister(records ...domain.Record) RecordLister {
	return listerFunc(func(context.Context) ([]domain.Record, error) { return records, nil })
}

var snapshotTime = time.Date(2024, 5, 1, 20, 30, 0, 0, time.FixedZone("CST", 8*3600))

var sampleRecords = []domain.Record{
	{ID: 2, Date: "2024-05-01", Item: "午餐, 便當", Amount: 120, Category: "餐飲"},
	{ID: 1, Date: "2024-04-30", Item: `say "hi"`, Amount: 35, Category: "交通"},
}

func TestSnapshotObjectName(t *testing.T) {
	got := SnapshotObjectName(snapshotTime)
	want := "ledger/records-20240501T123000Z.csv"
	if got != want {
		t.Errorf("SnapshotObjectName() = %q, want %q", got, want)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRecords); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if lines[0] != "id,date,item,amount,category" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != `2,2024-05-01,"午餐, 便當",120,餐飲` {
		t.Errorf("row = %q", lines[1])
	}
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"header only", "id,date,item,amount,category\n", 0, false},
		{"one row", "id,date,item,amount,category\n5,2024-01-02,咖啡,60,餐飲\n", 1, false},
		{"empty", "", 0, true},
		{"bad id", "id,date,item,amount,category\nx,2024-01-02,a,1,b\n", 0, true},
		{"bad amount", "id,date,item,amount,category\n1,2024-01-02,a,1.5,b\n", 0, true},
		{"short row", "id,date,item,amount,category\n1,2024-01-02\n", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadCSV(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadCSV() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(got) != tt.want {
				t.Errorf("ReadCSV() returned %d records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestUploadSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads and verifies", func(t *testing.T) {
		svc := &MockStorageService{}
		object, err := UploadSnapshot(ctx, staticLister(sampleRecords...), svc, "bucket", snapshotTime, true)
		if err != nil {
			t.Fatalf("UploadSnapshot() error = %v", err)
		}
		if object != SnapshotObjectName(snapshotTime) {
			t.Errorf("object = %q", object)
		}
		got, err := ReadCSV(bytes.NewReader(svc.objects["bucket/"+object]))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 || got[0] != sampleRecords[0] || got[1] != sampleRecords[1] {
			t.Errorf("stored records = %+v", got)
		}
	})

	t.Run("sets csv content type", func(t *testing.T) {
		var gotType string
		svc := &MockStorageService{
			UploadFunc: func(_ context.Context, _, _, contentType string, _ io.Reader) error {
				gotType = contentType
				return nil
			},
		}
		if _, err := UploadSnapshot(ctx, staticLister(), svc, "bucket", snapshotTime, false); err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(gotType, "text/csv") {
			t.Errorf("content type = %q", gotType)
		}
	})

	t.Run("verify detects a truncated object", func(t *testing.T) {
		svc := &MockStorageService{
			UploadFunc: func(context.Context, string, string, string, io.Reader) error { return nil },
			DownloadFunc: func(context.Context, string, string) ([]byte, error) {
				return []byte("id,date,item,amount,category\n"), nil
			},
		}
		if _, err := UploadSnapshot(ctx, staticLister(sampleRecords...), svc, "bucket", snapshotTime, true); err == nil {
			t.Error("expected verify error")
		}
	})

	t.Run("propagates errors", func(t *testing.T) {
		boom := errors.New("boom")
		failingLister := listerFunc(func(context.Context) ([]domain.Record, error) { return nil, boom })
		if _, err := UploadSnapshot(ctx, failingLister, &MockStorageService{}, "b", snapshotTime, false); !errors.Is(err, boom) {
			t.Errorf("lister error = %v", err)
		}
		svc := &MockStorageService{
			UploadFunc: func(context.Context, string, string, string, io.Reader) error { return boom },
		}
		if _, err := UploadSnapshot(ctx, staticLister(), svc, "b", snapshotTime, false); !errors.Is(err, boom) {
			t.Errorf("upload error = %v", err)
		}
	})
}
