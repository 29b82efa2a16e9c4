package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockIndex struct {
	count int
	err   error
}

func (m *mockIndex) Count(_ context.Context) (int, error) {
	return m.count, m.err
}

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error {
	return m.err
}

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockIndex{count: 42}, &mockChecker{})
	report := svc.Check(context.Background())

	if report.Status != Healthy {
		t.Errorf("status = %q", report.Status)
	}
	if report.Checks["vector_index"] != CheckOK {
		t.Errorf("vector_index = %q", report.Checks["vector_index"])
	}
	if report.Checks["embedding"] != CheckOK {
		t.Errorf("embedding = %q", report.Checks["embedding"])
	}
	if report.Chunks != 42 {
		t.Errorf("chunks = %d", report.Chunks)
	}
}

func TestCheck_IndexDown(t *testing.T) {
	svc := New(&mockIndex{err: errors.New("closed")}, &mockChecker{})
	report := svc.Check(context.Background())

	if report.Status != Degraded {
		t.Errorf("status = %q", report.Status)
	}
	if report.Checks["vector_index"] != CheckError {
		t.Errorf("vector_index = %q", report.Checks["vector_index"])
	}
}

func TestCheck_EmbeddingDown(t *testing.T) {
	svc := New(&mockIndex{count: 1}, &mockChecker{err: errors.New("unreachable")})
	report := svc.Check(context.Background())

	if report.Status != Degraded {
		t.Errorf("status = %q", report.Status)
	}
}

func TestCheck_NilEmbeddingChecker(t *testing.T) {
	svc := New(&mockIndex{}, nil)
	report := svc.Check(context.Background())

	if report.Status != Healthy {
		t.Errorf("status = %q", report.Status)
	}
	if _, ok := report.Checks["embedding"]; ok {
		t.Error("embedding check must be absent when checker is nil")
	}
}
